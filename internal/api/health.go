package api

import (
	"net/http"

	"github.com/termrelay/termrelay/internal/api/respond"
)

// Healthz handles GET /healthz. Liveness only; upstream reachability is
// reported per-event, not here.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
