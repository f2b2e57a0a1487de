package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/termrelay/termrelay/internal/relay"
)

// NewRouter wires the relay engine into the HTTP surface the hooks use.
func NewRouter(engine *relay.Engine) *mux.Router {
	r := mux.NewRouter()

	cmds := NewCommandHandler(engine)
	r.HandleFunc("/commands/", cmds.PreExec).Methods(http.MethodPost)
	r.HandleFunc("/commands/", cmds.PostExec).Methods(http.MethodPut)

	r.HandleFunc("/healthz", Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
