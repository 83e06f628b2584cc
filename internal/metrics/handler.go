package metrics

import (
	"net/http"

	"github.com/JaimeStill/snare/pkg/handlers"
	"github.com/JaimeStill/snare/pkg/routes"
)

// Handler serves the ledger's current report.
type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/metrics",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get},
		},
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.ledger.Snapshot().Report())
}
