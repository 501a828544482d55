package agents

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/http/api"
)

type Handler struct {
	client agent.Client
}

func NewHandler(client agent.Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status, err := h.client.Health(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, status)
}
