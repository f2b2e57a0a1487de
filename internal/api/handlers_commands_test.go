package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/termrelay/termrelay/internal/config"
	"github.com/termrelay/termrelay/internal/journal"
	"github.com/termrelay/termrelay/internal/relay"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.NewForTesting()
	cfg.JournalDir = t.TempDir()
	store, err := journal.New(cfg.JournalDir)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	// No upstream client: qualifying commands are cached to the journal.
	return NewRouter(relay.New(cfg, nil, store))
}

func TestPreExecNonQualifyingReturns204(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"id":"id1","command":"ls -la"}`)
	req := httptest.NewRequest(http.MethodPost, "/commands/", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestPreExecQualifyingReturnsResult(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"id":"id1","command":"kubectl get pods #desc prod cluster"}`)
	req := httptest.NewRequest(http.MethodPost, "/commands/", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res relay.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Status != relay.StatusCached {
		t.Fatalf("expected cached status, got %q", res.Status)
	}
	if res.EntryID != "id1" {
		t.Fatalf("expected entry id id1, got %q", res.EntryID)
	}
}

func TestPostExecRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	create := bytes.NewBufferString(`{"id":"id1","command":"kubectl get pods"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/commands/", create))
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", w.Code)
	}

	update := bytes.NewBufferString(`{"id":"id1","end_time":"2023-04-11 19:18:24","output":"Success"}`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/commands/", update))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
}

func TestPreExecInvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/commands/", bytes.NewBufferString(`{not json`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
