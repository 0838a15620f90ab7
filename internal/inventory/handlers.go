package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// Handler exposes staff inventory endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type adjustRequest struct {
	Delta int64 `json:"delta"`
}

// Adjust handles POST /api/v1/plants/{id}/stock.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	plant, err := h.service.Adjust(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		writeStockError(w, err)
		return
	}
	common.Data(w, http.StatusOK, plant)
}

// LowStock handles GET /api/v1/inventory/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	plants, err := h.service.LowStock(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if plants == nil {
		plants = []repo.Plant{}
	}
	common.Data(w, http.StatusOK, plants)
}

func writeStockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "not enough stock available", nil)
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "plant not found", nil)
	default:
		common.WriteError(w, err)
	}
}
