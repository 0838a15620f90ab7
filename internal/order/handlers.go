package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes order endpoints. All routes require authentication.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type checkoutRequest struct {
	GiftWrap bool `json:"giftWrap"`
}

// Checkout handles POST /api/v1/orders.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(w, common.BadRequest("invalid request body", ""))
			return
		}
	}
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Checkout(r.Context(), userID, req.GiftWrap)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Pay handles POST /api/v1/orders/{id}/pay.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Pay(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Cancel handles POST /api/v1/orders/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Cancel(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// AdminUpdate handles PATCH /api/v1/admin/orders/{id}.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	view, err := h.service.AdminUpdate(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	views, err := h.service.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, views)
}
