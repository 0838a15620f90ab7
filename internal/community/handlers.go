package community

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes community event endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/events?city=Sydney.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, views)
}

// Get handles GET /api/v1/events/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Create handles POST /api/v1/events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Create(r.Context(), in, userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Update handles PUT /api/v1/events/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/events/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Attend handles POST /api/v1/events/{id}/attend.
func (h *Handler) Attend(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Attend(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Unattend handles DELETE /api/v1/events/{id}/attend.
func (h *Handler) Unattend(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Unattend(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}
