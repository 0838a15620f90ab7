package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes cart endpoints. All routes require authentication.
type Handler struct {
	service          *Service
	validate         *validator.Validate
	deliveryFeeCents int64
	giftWrapFeeCents int64
}

// HandlerConfig configures the Handler.
type HandlerConfig struct {
	Service          *Service
	DeliveryFeeCents int64
	GiftWrapFeeCents int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:          cfg.Service,
		validate:         validator.New(),
		deliveryFeeCents: cfg.DeliveryFeeCents,
		giftWrapFeeCents: cfg.GiftWrapFeeCents,
	}
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

type replaceRequest struct {
	Items []ItemInput `json:"items" validate:"dive"`
}

// Replace handles PUT /api/v1/cart.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid request body", ""))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.WriteError(w, common.BadRequest("validation failed", ""))
		return
	}
	userID, _ := common.UserID(r.Context())
	view, err := h.service.Replace(r.Context(), userID, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	if err := h.service.Clear(r.Context(), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote handles GET /api/v1/cart/quote?giftWrap=true.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	giftWrap, _ := strconv.ParseBool(r.URL.Query().Get("giftWrap"))
	quote, err := h.service.Quote(r.Context(), userID, giftWrap, h.deliveryFeeCents, h.giftWrapFeeCents)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, quote)
}
