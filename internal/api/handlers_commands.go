// Package api is the HTTP boundary the shell hooks talk to.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/termrelay/termrelay/internal/api/respond"
	"github.com/termrelay/termrelay/internal/relay"
)

type CommandHandler struct {
	engine *relay.Engine
}

func NewCommandHandler(engine *relay.Engine) *CommandHandler {
	return &CommandHandler{engine: engine}
}

// PreExec handles POST /commands/, a "command started" event.
func (h *CommandHandler) PreExec(w http.ResponseWriter, r *http.Request) {
	var req relay.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	writeResult(w, h.engine.HandleCreate(r.Context(), req))
}

// PostExec handles PUT /commands/, a "command finished" event or a manual update.
func (h *CommandHandler) PostExec(w http.ResponseWriter, r *http.Request) {
	var req relay.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	writeResult(w, h.engine.HandleUpdate(r.Context(), req))
}

// writeResult maps engine outcomes onto HTTP statuses. A non-qualifying
// command is 204 so hooks can stay silent; a sync failure is 502 but still
// carries the structured result, since the entry was cached locally.
func writeResult(w http.ResponseWriter, res relay.Result) {
	switch res.Status {
	case relay.StatusNoop:
		w.WriteHeader(http.StatusNoContent)
	case relay.StatusFailed:
		respond.WriteJSON(w, http.StatusBadGateway, res)
	default:
		respond.WriteJSON(w, http.StatusOK, res)
	}
}
