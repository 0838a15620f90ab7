package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// CartStore is the subset of the cart repository the service needs.
type CartStore interface {
	ByUser(ctx context.Context, userID string) (repo.Cart, error)
	Replace(ctx context.Context, userID string, items []repo.CartItem) (repo.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// PlantStore resolves cart lines against the catalog.
type PlantStore interface {
	ByIDs(ctx context.Context, ids []string) ([]repo.Plant, error)
}

// UserStore loads the shopper for loyalty-aware pricing.
type UserStore interface {
	ByID(ctx context.Context, id string) (repo.User, error)
}

// Service maintains persistent carts and prices them.
type Service struct {
	carts  CartStore
	plants PlantStore
	users  UserStore
	engine *pricing.Engine
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carts  CartStore
	Plants PlantStore
	Users  UserStore
	Engine *pricing.Engine
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Carts == nil || cfg.Plants == nil || cfg.Users == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("cart: missing dependencies")
	}
	return &Service{carts: cfg.Carts, plants: cfg.Plants, users: cfg.Users, engine: cfg.Engine}, nil
}

// Line is a cart entry joined with its catalog data.
type Line struct {
	PlantID      string `json:"plantId"`
	Name         string `json:"name"`
	PriceInCents int64  `json:"priceInCents"`
	Price        string `json:"price"`
	Category     string `json:"category,omitempty"`
	Qty          int64  `json:"qty"`
	Stock        int64  `json:"stock"`
}

// View is the cart payload returned to clients.
type View struct {
	Items           []Line `json:"items"`
	SubtotalInCents int64  `json:"subtotalInCents"`
	Subtotal        string `json:"subtotal"`
}

// ItemInput is one requested cart entry.
type ItemInput struct {
	PlantID string `json:"plantId" validate:"required"`
	Qty     int64  `json:"qty" validate:"gt=0"`
}

// Get returns the current cart for a user.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	stored, err := s.carts.ByUser(ctx, userID)
	if err != nil {
		if err == repo.ErrNotFound {
			return emptyView(), nil
		}
		return View{}, err
	}
	return s.buildView(ctx, stored.Items)
}

// Replace swaps the cart contents after validating every line against the
// catalog. Quantities must be positive and duplicate plants are merged.
func (s *Service) Replace(ctx context.Context, userID string, items []ItemInput) (View, error) {
	merged := make(map[string]int64, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.Qty <= 0 {
			return View{}, common.NewAppError("VALIDATION_ERROR", "quantity must be positive", http.StatusBadRequest, nil)
		}
		if _, seen := merged[item.PlantID]; !seen {
			order = append(order, item.PlantID)
		}
		merged[item.PlantID] += item.Qty
	}

	plants, err := s.plants.ByIDs(ctx, order)
	if err != nil {
		return View{}, err
	}
	known := make(map[string]repo.Plant, len(plants))
	for _, p := range plants {
		known[p.ID.Hex()] = p
	}

	stored := make([]repo.CartItem, 0, len(order))
	for _, id := range order {
		plant, ok := known[id]
		if !ok {
			return View{}, common.NewAppError("UNKNOWN_PLANT", fmt.Sprintf("plant %s not found", id), http.StatusBadRequest, nil)
		}
		if plant.Stock < merged[id] {
			return View{}, common.NewAppError("INSUFFICIENT_STOCK", fmt.Sprintf("only %d of %s in stock", plant.Stock, plant.Name), http.StatusConflict, nil)
		}
		stored = append(stored, repo.CartItem{PlantID: id, Qty: merged[id]})
	}

	if _, err := s.carts.Replace(ctx, userID, stored); err != nil {
		return View{}, err
	}
	return s.buildView(ctx, stored)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// QuoteResult pairs the discount-engine quote with order-level fees.
type QuoteResult struct {
	pricing.Quote
	DeliveryFeeInCents int64  `json:"deliveryFeeInCents"`
	GiftWrapFeeInCents int64  `json:"giftWrapFeeInCents,omitempty"`
	GrandTotalInCents  int64  `json:"grandTotalInCents"`
	GrandTotal         string `json:"grandTotal"`
}

// Quote prices the user's cart with every discount rule, then adds the flat
// delivery fee and the optional gift wrap charge.
func (s *Service) Quote(ctx context.Context, userID string, giftWrap bool, deliveryFeeCents, giftWrapFeeCents int64) (QuoteResult, error) {
	stored, err := s.carts.ByUser(ctx, userID)
	if err != nil && err != repo.ErrNotFound {
		return QuoteResult{}, err
	}

	priced, _, err := s.PriceItems(ctx, userID, stored.Items)
	if err != nil {
		return QuoteResult{}, err
	}

	result := QuoteResult{Quote: priced, DeliveryFeeInCents: deliveryFeeCents}
	grand := int64(priced.TotalCents)
	if len(stored.Items) > 0 {
		grand += deliveryFeeCents
	} else {
		result.DeliveryFeeInCents = 0
	}
	if giftWrap && len(stored.Items) > 0 {
		result.GiftWrapFeeInCents = giftWrapFeeCents
		grand += giftWrapFeeCents
	}
	result.GrandTotalInCents = grand
	result.GrandTotal = pricing.Money(grand).Display()
	return result, nil
}

// PriceItems runs the discount engine over arbitrary cart items for the given
// shopper. The checkout flow shares this with Quote so an order is always
// priced exactly like its preview.
func (s *Service) PriceItems(ctx context.Context, userID string, items []repo.CartItem) (pricing.Quote, []Line, error) {
	lines, err := s.resolveLines(ctx, items)
	if err != nil {
		return pricing.Quote{}, nil, err
	}

	var shopper *pricing.Shopper
	if userID != "" {
		if user, err := s.users.ByID(ctx, userID); err == nil && user.IsCustomer() {
			shopper = &pricing.Shopper{ID: user.ID.Hex(), LoyaltyTier: user.LoyaltyTier}
		}
	}

	cart := pricing.Cart{Items: make([]pricing.LineItem, 0, len(lines))}
	for _, line := range lines {
		cart.Items = append(cart.Items, pricing.LineItem{
			PlantID:   line.PlantID,
			Name:      line.Name,
			UnitPrice: pricing.Money(line.PriceInCents),
			Category:  line.Category,
			Qty:       int(line.Qty),
		})
	}
	return s.engine.CalculateTotals(cart, shopper), lines, nil
}

func (s *Service) resolveLines(ctx context.Context, items []repo.CartItem) ([]Line, error) {
	if len(items) == 0 {
		return []Line{}, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.PlantID)
	}
	plants, err := s.plants.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[string]repo.Plant, len(plants))
	for _, p := range plants {
		known[p.ID.Hex()] = p
	}
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		plant, ok := known[item.PlantID]
		if !ok {
			// Plant was deleted after being carted; drop the line.
			continue
		}
		lines = append(lines, Line{
			PlantID:      item.PlantID,
			Name:         plant.Name,
			PriceInCents: plant.PriceCents,
			Price:        pricing.Money(plant.PriceCents).Display(),
			Category:     plant.Category,
			Qty:          item.Qty,
			Stock:        plant.Stock,
		})
	}
	return lines, nil
}

func (s *Service) buildView(ctx context.Context, items []repo.CartItem) (View, error) {
	lines, err := s.resolveLines(ctx, items)
	if err != nil {
		return View{}, err
	}
	var subtotal int64
	for _, line := range lines {
		subtotal += line.PriceInCents * line.Qty
	}
	return View{
		Items:           lines,
		SubtotalInCents: subtotal,
		Subtotal:        pricing.Money(subtotal).Display(),
	}, nil
}

func emptyView() View {
	return View{Items: []Line{}, Subtotal: "0.00"}
}
