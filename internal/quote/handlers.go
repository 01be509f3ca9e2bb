package quote

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pricing-engine/internal/common"
)

// Handler wires the quote service to HTTP.
type Handler struct {
	Svc *Service
}

// Routes mounts the quote endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/quotes", h.Create)
}

// Create calculates a price for the posted context and returns the sheet.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	resp, err := h.Svc.Quote(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}
