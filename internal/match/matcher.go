// Package match decides whether a raw command qualifies for logging and
// extracts the optional trailing description.
package match

import "strings"

// Result holds the command text and description to store for a qualifying
// command.
type Result struct {
	Command     string
	Description string
}

// Matcher applies the configured trigger keywords and marker tokens to raw
// command strings.
type Matcher struct {
	keywords   []string
	descToken  string
	noLogToken string
}

// New creates a Matcher. Empty keywords are dropped; descToken and
// noLogToken may be empty to disable the corresponding behavior.
func New(keywords []string, descToken, noLogToken string) *Matcher {
	m := &Matcher{descToken: descToken, noLogToken: noLogToken}
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			m.keywords = append(m.keywords, kw)
		}
	}
	return m
}

// Suppressed reports whether the command carries the no-log token, an
// explicit "do not record this" signal that overrides every other trigger.
func (m *Matcher) Suppressed(command string) bool {
	return m.noLogToken != "" && strings.Contains(command, m.noLogToken)
}

// Match reports whether command qualifies for logging. A command qualifies
// when it contains any trigger keyword, or when it carries the description
// token, which always forces logging. On a match the returned Result holds
// the command stripped of the description token and the extracted
// description, both trimmed.
func (m *Matcher) Match(command string) (Result, bool) {
	command = strings.TrimSpace(command)
	if command == "" || m.Suppressed(command) {
		return Result{}, false
	}

	hasToken := m.descToken != "" && strings.Contains(command, m.descToken)
	if !hasToken && !m.matchesKeyword(command) {
		return Result{}, false
	}

	res := Result{Command: command}
	if hasToken {
		before, after, _ := strings.Cut(command, m.descToken)
		res.Command = strings.TrimSpace(before)
		res.Description = strings.TrimSpace(after)
	}
	return res, true
}

func (m *Matcher) matchesKeyword(command string) bool {
	for _, kw := range m.keywords {
		if strings.Contains(command, kw) {
			return true
		}
	}
	return false
}
