package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/cart"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/lock"
	"github.com/noah-isme/backend-nursery/internal/loyalty"
	"github.com/noah-isme/backend-nursery/internal/notify"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/payment"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

const orderCounter = "orders"

// OrderStore is the subset of the order repository the service needs.
type OrderStore interface {
	Insert(ctx context.Context, o repo.Order) (repo.Order, error)
	ByID(ctx context.Context, id string) (repo.Order, error)
	ListByUser(ctx context.Context, userID string) ([]repo.Order, error)
	Transition(ctx context.Context, id, from, to string) (repo.Order, error)
	MarkPaid(ctx context.Context, id, provider, receiptID string) (repo.Order, error)
	Patch(ctx context.Context, id string, p repo.OrderPatch) (repo.Order, error)
}

// CounterStore hands out monotonically increasing order numbers.
type CounterStore interface {
	Next(ctx context.Context, name string) (int64, error)
}

// CartAccess is what checkout needs from the cart layer: the stored items,
// shared pricing, and clearing after a successful order.
type CartAccess interface {
	PriceItems(ctx context.Context, userID string, items []repo.CartItem) (pricing.Quote, []cart.Line, error)
	Clear(ctx context.Context, userID string) error
}

// CartStore loads the raw stored cart.
type CartStore interface {
	ByUser(ctx context.Context, userID string) (repo.Cart, error)
}

// Stock reserves and releases inventory.
type Stock interface {
	Reserve(ctx context.Context, plantID string, qty int64) (repo.Plant, error)
	Release(ctx context.Context, plantID string, qty int64) (repo.Plant, error)
}

// UserStore records loyalty accrual after payment.
type UserStore interface {
	ByID(ctx context.Context, id string) (repo.User, error)
	RecordPurchase(ctx context.Context, id string, a repo.LoyaltyAccrual) (repo.User, error)
}

// Service owns the order lifecycle: checkout, payment, and cancellation.
type Service struct {
	orders           OrderStore
	counters         CounterStore
	carts            CartStore
	pricer           CartAccess
	stock            Stock
	users            UserStore
	provider         payment.Provider
	notifier         notify.Notifier
	locks            *lock.Locker
	logger           zerolog.Logger
	deliveryFeeCents int64
	giftWrapFeeCents int64
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Orders           OrderStore
	Counters         CounterStore
	Carts            CartStore
	Pricer           CartAccess
	Stock            Stock
	Users            UserStore
	Provider         payment.Provider
	Notifier         notify.Notifier
	Locks            *lock.Locker
	Logger           zerolog.Logger
	DeliveryFeeCents int64
	GiftWrapFeeCents int64
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Orders == nil || cfg.Counters == nil || cfg.Carts == nil || cfg.Pricer == nil || cfg.Stock == nil || cfg.Users == nil {
		return nil, errors.New("order: missing dependencies")
	}
	if cfg.Provider == nil {
		return nil, errors.New("order: payment provider is required")
	}
	return &Service{
		orders:           cfg.Orders,
		counters:         cfg.Counters,
		carts:            cfg.Carts,
		pricer:           cfg.Pricer,
		stock:            cfg.Stock,
		users:            cfg.Users,
		provider:         cfg.Provider,
		notifier:         cfg.Notifier,
		locks:            cfg.Locks,
		logger:           cfg.Logger,
		deliveryFeeCents: cfg.DeliveryFeeCents,
		giftWrapFeeCents: cfg.GiftWrapFeeCents,
	}, nil
}

// View is the order payload returned to clients.
type View struct {
	ID                   string         `json:"id"`
	Number               string         `json:"number"`
	Items                []ItemView     `json:"items"`
	Discounts            []DiscountView `json:"discounts"`
	SubtotalInCents      int64          `json:"subtotalInCents"`
	TotalDiscountInCents int64          `json:"totalDiscountInCents"`
	DeliveryFeeInCents   int64          `json:"deliveryFeeInCents"`
	GiftWrap             bool           `json:"giftWrap"`
	GiftWrapFeeInCents   int64          `json:"giftWrapFeeInCents,omitempty"`
	TotalInCents         int64          `json:"totalInCents"`
	Total                string         `json:"total"`
	Status               string         `json:"status"`
	Provider             string         `json:"provider,omitempty"`
	ReceiptID            string         `json:"receiptId,omitempty"`
	CreatedAt            string         `json:"created_at"`
}

// ItemView is a frozen order line.
type ItemView struct {
	PlantID      string `json:"plantId"`
	Name         string `json:"name"`
	PriceInCents int64  `json:"priceInCents"`
	Qty          int64  `json:"qty"`
}

// DiscountView is one applied discount on the order.
type DiscountView struct {
	Name          string `json:"name"`
	AmountInCents int64  `json:"amountInCents"`
	Description   string `json:"description"`
}

// Checkout turns the user's cart into a pending order. Stock is reserved line
// by line; any failure releases what was already taken and aborts. When a
// distributed lock is configured, checkouts for the same user are serialized.
func (s *Service) Checkout(ctx context.Context, userID string, giftWrap bool) (View, error) {
	if s.locks == nil {
		return s.checkout(ctx, userID, giftWrap)
	}
	var view View
	err := s.locks.WithLock(ctx, "checkout:"+userID, 30*time.Second, func(ctx context.Context) error {
		var inner error
		view, inner = s.checkout(ctx, userID, giftWrap)
		return inner
	})
	return view, err
}

func (s *Service) checkout(ctx context.Context, userID string, giftWrap bool) (View, error) {
	stored, err := s.carts.ByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, emptyCartErr()
		}
		return View{}, err
	}
	if len(stored.Items) == 0 {
		return View{}, emptyCartErr()
	}

	quote, lines, err := s.pricer.PriceItems(ctx, userID, stored.Items)
	if err != nil {
		return View{}, err
	}
	if len(lines) == 0 {
		return View{}, emptyCartErr()
	}

	reserved := make([]repo.CartItem, 0, len(lines))
	for _, line := range lines {
		if _, err := s.stock.Reserve(ctx, line.PlantID, line.Qty); err != nil {
			s.releaseAll(ctx, reserved)
			s.countCheckout("stock_conflict")
			if errors.Is(err, repo.ErrInsufficientStock) {
				return View{}, common.NewAppError("INSUFFICIENT_STOCK", fmt.Sprintf("not enough stock for %s", line.Name), http.StatusConflict, err)
			}
			return View{}, err
		}
		reserved = append(reserved, repo.CartItem{PlantID: line.PlantID, Qty: line.Qty})
	}

	number, err := s.counters.Next(ctx, orderCounter)
	if err != nil {
		s.releaseAll(ctx, reserved)
		s.countCheckout("error")
		return View{}, fmt.Errorf("next order number: %w", err)
	}

	doc := repo.Order{
		Number:             number,
		Items:              make([]repo.OrderItem, 0, len(lines)),
		Discounts:          make([]repo.OrderDiscount, 0, len(quote.Discounts)),
		SubtotalCents:      int64(quote.SubtotalCents),
		TotalDiscountCents: int64(quote.TotalDiscountCents),
		DeliveryFeeCents:   s.deliveryFeeCents,
		GiftWrap:           giftWrap,
		Status:             repo.OrderPending,
		CreatedBy:          userID,
	}
	for _, line := range lines {
		doc.Items = append(doc.Items, repo.OrderItem{
			PlantID:        line.PlantID,
			Name:           line.Name,
			UnitPriceCents: line.PriceInCents,
			Category:       line.Category,
			Qty:            line.Qty,
		})
	}
	for _, d := range quote.Discounts {
		doc.Discounts = append(doc.Discounts, repo.OrderDiscount{
			Name:        d.Name,
			AmountCents: int64(d.AmountCents),
			Description: d.Description,
		})
		if obs.DiscountAppliedTotal != nil {
			obs.DiscountAppliedTotal.WithLabelValues(d.Name).Inc()
		}
	}
	if giftWrap {
		doc.GiftWrapFeeCents = s.giftWrapFeeCents
	}
	doc.TotalCents = int64(quote.TotalCents) + doc.DeliveryFeeCents + doc.GiftWrapFeeCents

	created, err := s.orders.Insert(ctx, doc)
	if err != nil {
		s.releaseAll(ctx, reserved)
		s.countCheckout("error")
		return View{}, fmt.Errorf("insert order: %w", err)
	}

	if err := s.pricer.Clear(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("order_id", created.ID.Hex()).Msg("clear cart after checkout failed")
	}
	s.countCheckout("created")
	s.notifyOrder(ctx, notify.KindOrderPlaced, created, userID)
	return convertOrder(created), nil
}

// Pay charges the order total through the configured provider and marks the
// order paid. Loyalty accrual happens on the goods total, so delivery and
// gift wrap fees never earn points.
func (s *Service) Pay(ctx context.Context, userID, orderID string) (View, error) {
	stored, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return View{}, err
	}
	if stored.Status != repo.OrderPending {
		return View{}, common.Conflict(fmt.Sprintf("order is %s", stored.Status))
	}

	receipt, err := s.provider.Charge(ctx, payment.ChargeRequest{
		OrderID:     stored.ID.Hex(),
		OrderNumber: FormatNumber(stored.Number),
		AmountCents: stored.TotalCents,
	})
	if err != nil {
		if obs.PaymentChargeTotal != nil {
			obs.PaymentChargeTotal.WithLabelValues(s.provider.Name(), "error").Inc()
		}
		return View{}, common.NewAppError("PAYMENT_FAILED", "payment was not accepted", http.StatusBadGateway, err)
	}
	if obs.PaymentChargeTotal != nil {
		obs.PaymentChargeTotal.WithLabelValues(receipt.Provider, "ok").Inc()
	}

	paid, err := s.orders.MarkPaid(ctx, orderID, receipt.Provider, receipt.ReceiptID)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return View{}, common.Conflict("order is no longer pending")
		}
		return View{}, err
	}
	if obs.OrdersPaidTotal != nil {
		obs.OrdersPaidTotal.WithLabelValues(receipt.Provider).Inc()
	}

	s.accrueLoyalty(ctx, userID, paid)
	s.notifyOrder(ctx, notify.KindOrderPaid, paid, userID)
	return convertOrder(paid), nil
}

// Cancel aborts a pending order and returns its stock.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (View, error) {
	if _, err := s.ownedOrder(ctx, userID, orderID); err != nil {
		return View{}, err
	}
	cancelled, err := s.orders.Transition(ctx, orderID, repo.OrderPending, repo.OrderCancelled)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return View{}, common.Conflict("only pending orders can be cancelled")
		}
		return View{}, err
	}
	for _, item := range cancelled.Items {
		if _, err := s.stock.Release(ctx, item.PlantID, item.Qty); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", orderID).
				Str("plant_id", item.PlantID).
				Msg("restock after cancel failed")
		}
	}
	return convertOrder(cancelled), nil
}

// AdminUpdateInput carries the fields staff may change on an order. Items
// stay immutable; only the status and the delivery fee can move.
type AdminUpdateInput struct {
	Status           *string `json:"status"`
	DeliveryFeeCents *int64  `json:"deliveryFeeInCents"`
}

// AdminUpdate applies a staff change to any order, regardless of owner. A
// delivery fee change recomputes the total; moving a pending order to
// cancelled returns its stock just like a customer cancellation.
func (s *Service) AdminUpdate(ctx context.Context, orderID string, in AdminUpdateInput) (View, error) {
	stored, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFound("order not found")
		}
		return View{}, err
	}

	var patch repo.OrderPatch
	if in.Status != nil {
		switch *in.Status {
		case repo.OrderPending, repo.OrderPaid, repo.OrderCancelled:
		default:
			return View{}, common.BadRequest(fmt.Sprintf("unknown status %q", *in.Status), "status")
		}
		patch.Status = in.Status
	}
	if in.DeliveryFeeCents != nil {
		if *in.DeliveryFeeCents < 0 {
			return View{}, common.BadRequest("delivery fee must not be negative", "deliveryFeeInCents")
		}
		patch.DeliveryFeeCents = in.DeliveryFeeCents
		total := stored.TotalCents - stored.DeliveryFeeCents + *in.DeliveryFeeCents
		patch.TotalCents = &total
	}
	if patch.Status == nil && patch.DeliveryFeeCents == nil {
		return View{}, common.BadRequest("nothing to update", "")
	}

	updated, err := s.orders.Patch(ctx, orderID, patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFound("order not found")
		}
		return View{}, err
	}

	if patch.Status != nil && *patch.Status == repo.OrderCancelled && stored.Status == repo.OrderPending {
		for _, item := range updated.Items {
			if _, err := s.stock.Release(ctx, item.PlantID, item.Qty); err != nil {
				s.logger.Error().Err(err).
					Str("order_id", orderID).
					Str("plant_id", item.PlantID).
					Msg("restock after cancel failed")
			}
		}
	}
	return convertOrder(updated), nil
}

// Get returns one of the user's orders.
func (s *Service) Get(ctx context.Context, userID, orderID string) (View, error) {
	stored, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return View{}, err
	}
	return convertOrder(stored), nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]View, error) {
	rows, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, convertOrder(row))
	}
	return views, nil
}

func (s *Service) ownedOrder(ctx context.Context, userID, orderID string) (repo.Order, error) {
	stored, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Order{}, common.NotFound("order not found")
		}
		return repo.Order{}, err
	}
	if stored.CreatedBy != userID {
		// Do not reveal that the order exists.
		return repo.Order{}, common.NotFound("order not found")
	}
	return stored, nil
}

func (s *Service) accrueLoyalty(ctx context.Context, userID string, paid repo.Order) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil || !user.IsCustomer() {
		return
	}
	goodsPaid := paid.SubtotalCents - paid.TotalDiscountCents
	if goodsPaid < 0 {
		goodsPaid = 0
	}
	acc := loyalty.Accrue(user.TotalSpentCents, user.LoyaltyCreditCents, goodsPaid, paid.SubtotalCents)
	if _, err := s.users.RecordPurchase(ctx, userID, repo.LoyaltyAccrual{
		SpentCents:  acc.SpentCents,
		CreditCents: acc.CreditCents,
		Points:      acc.Points,
		Tier:        acc.Tier,
	}); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("loyalty accrual failed")
		return
	}
	if acc.TierChanged && obs.LoyaltyTierUpgrades != nil {
		obs.LoyaltyTierUpgrades.WithLabelValues(acc.Tier).Inc()
	}
}

func (s *Service) releaseAll(ctx context.Context, reserved []repo.CartItem) {
	for _, item := range reserved {
		if _, err := s.stock.Release(ctx, item.PlantID, item.Qty); err != nil {
			s.logger.Error().Err(err).Str("plant_id", item.PlantID).Msg("stock rollback failed")
		}
	}
}

func (s *Service) countCheckout(result string) {
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) notifyOrder(ctx context.Context, kind string, o repo.Order, userID string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.Notification{
		Kind:      kind,
		Recipient: userID,
		Subject:   fmt.Sprintf("Order %s", FormatNumber(o.Number)),
		Body:      fmt.Sprintf("Order %s is %s", FormatNumber(o.Number), o.Status),
		Meta: map[string]any{
			"order_id":     o.ID.Hex(),
			"totalInCents": o.TotalCents,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID.Hex()).Msg("order notification failed")
	}
}

// FormatNumber renders a counter value as the public order number.
func FormatNumber(n int64) string {
	return fmt.Sprintf("ORD-%06d", n)
}

func emptyCartErr() *common.AppError {
	return common.NewAppError("EMPTY_CART", "cart is empty", http.StatusBadRequest, nil)
}

func convertOrder(o repo.Order) View {
	view := View{
		ID:                   o.ID.Hex(),
		Number:               FormatNumber(o.Number),
		Items:                make([]ItemView, 0, len(o.Items)),
		Discounts:            make([]DiscountView, 0, len(o.Discounts)),
		SubtotalInCents:      o.SubtotalCents,
		TotalDiscountInCents: o.TotalDiscountCents,
		DeliveryFeeInCents:   o.DeliveryFeeCents,
		GiftWrap:             o.GiftWrap,
		GiftWrapFeeInCents:   o.GiftWrapFeeCents,
		TotalInCents:         o.TotalCents,
		Total:                pricing.Money(o.TotalCents).Display(),
		Status:               o.Status,
		Provider:             o.Provider,
		ReceiptID:            o.ReceiptID,
		CreatedAt:            o.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, ItemView{
			PlantID:      item.PlantID,
			Name:         item.Name,
			PriceInCents: item.UnitPriceCents,
			Qty:          item.Qty,
		})
	}
	for _, d := range o.Discounts {
		view.Discounts = append(view.Discounts, DiscountView{
			Name:          d.Name,
			AmountInCents: d.AmountCents,
			Description:   d.Description,
		})
	}
	return view
}
