package match

import "testing"

func TestMatchKeyword(t *testing.T) {
	m := New([]string{"kubectl", "ssh"}, "#desc", "#nolog")

	cases := []struct {
		name    string
		command string
		want    bool
		wantCmd string
		wantDsc string
	}{
		{"keyword hit", "kubectl get pods", true, "kubectl get pods", ""},
		{"keyword substring", "watch kubectl get pods", true, "watch kubectl get pods", ""},
		{"no keyword", "ls -la", false, "", ""},
		{"empty command", "", false, "", ""},
		{"whitespace only", "   ", false, "", ""},
		{"desc token forces logging", "ls -la #desc checking loot", true, "ls -la", "checking loot"},
		{"desc token with keyword", "kubectl get pods #desc prod cluster", true, "kubectl get pods", "prod cluster"},
		{"nolog veto beats keyword", "kubectl get pods #nolog", false, "", ""},
		{"nolog veto beats desc token", "ssh target #desc recon #nolog", false, "", ""},
		{"split at first token", "ssh x #desc a #desc b", true, "ssh x", "a #desc b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := m.Match(tc.command)
			if ok != tc.want {
				t.Fatalf("Match(%q) ok = %v, want %v", tc.command, ok, tc.want)
			}
			if !ok {
				return
			}
			if res.Command != tc.wantCmd {
				t.Errorf("command = %q, want %q", res.Command, tc.wantCmd)
			}
			if res.Description != tc.wantDsc {
				t.Errorf("description = %q, want %q", res.Description, tc.wantDsc)
			}
		})
	}
}

func TestMatchNoKeywordsConfigured(t *testing.T) {
	m := New(nil, "#desc", "#nolog")

	if _, ok := m.Match("kubectl get pods"); ok {
		t.Fatal("expected no match with no keywords configured")
	}
	res, ok := m.Match("anything at all #desc still logged")
	if !ok {
		t.Fatal("desc token should force logging with no keywords configured")
	}
	if res.Command != "anything at all" || res.Description != "still logged" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMatchBlankKeywordsDropped(t *testing.T) {
	m := New([]string{" ", ""}, "#desc", "#nolog")
	if _, ok := m.Match("some command"); ok {
		t.Fatal("blank keywords must not match everything")
	}
}
