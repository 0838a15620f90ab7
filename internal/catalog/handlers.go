package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Plants handles GET /api/v1/plants with filters and pagination.
func (h *Handler) Plants(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.ListPlants(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: result.Total},
	})
}

// PlantDetail handles GET /api/v1/plants/{id}.
func (h *Handler) PlantDetail(w http.ResponseWriter, r *http.Request) {
	plant, err := h.service.GetPlant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, plant)
}

// Create handles POST /api/v1/plants (staff only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in PlantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	userID, _ := common.UserID(r.Context())
	plant, err := h.service.CreatePlant(r.Context(), in, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, plant)
}

type plantUpdateRequest struct {
	Name         *string `json:"name"`
	Image        *string `json:"image"`
	PriceInCents *int64  `json:"priceInCents"`
	Stock        *int64  `json:"stock"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
}

// Update handles PATCH /api/v1/plants/{id} (staff only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req plantUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	update := repo.PlantUpdate{
		Name:        req.Name,
		Image:       req.Image,
		PriceCents:  req.PriceInCents,
		Stock:       req.Stock,
		Description: req.Description,
		Category:    req.Category,
	}
	plant, err := h.service.UpdatePlant(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, plant)
}

// Delete handles DELETE /api/v1/plants/{id} (staff only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "plant not found", nil)
		return
	}
	common.WriteError(w, err)
}
