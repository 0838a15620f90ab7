package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/notify"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// PlantStore is the subset of the plant repository the inventory service needs.
type PlantStore interface {
	AdjustStock(ctx context.Context, id string, delta int64) (repo.Plant, error)
	ListLowStock(ctx context.Context, threshold int64) ([]repo.Plant, error)
}

// Service guards stock movements and raises low-stock alerts.
type Service struct {
	store     PlantStore
	notifier  notify.Notifier
	logger    zerolog.Logger
	threshold int64
}

// ServiceConfig configures the Service dependencies.
type ServiceConfig struct {
	Store     PlantStore
	Notifier  notify.Notifier
	Logger    zerolog.Logger
	Threshold int64
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	return &Service{
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		threshold: threshold,
	}
}

// Reserve removes qty units of a plant from stock. The underlying update
// carries a guard so concurrent reservations can never oversell.
func (s *Service) Reserve(ctx context.Context, plantID string, qty int64) (repo.Plant, error) {
	if qty <= 0 {
		return repo.Plant{}, common.BadRequest("quantity must be positive", "qty")
	}
	p, err := s.store.AdjustStock(ctx, plantID, -qty)
	if err != nil {
		return repo.Plant{}, err
	}
	if p.Stock <= s.threshold {
		s.alertLowStock(ctx, p)
	}
	return p, nil
}

// Release returns qty units to stock, e.g. after a cancelled order.
func (s *Service) Release(ctx context.Context, plantID string, qty int64) (repo.Plant, error) {
	if qty <= 0 {
		return repo.Plant{}, common.BadRequest("quantity must be positive", "qty")
	}
	return s.store.AdjustStock(ctx, plantID, qty)
}

// Adjust applies an arbitrary staff-initiated stock delta.
func (s *Service) Adjust(ctx context.Context, plantID string, delta int64) (repo.Plant, error) {
	if delta == 0 {
		return repo.Plant{}, common.BadRequest("delta must be non-zero", "delta")
	}
	p, err := s.store.AdjustStock(ctx, plantID, delta)
	if err != nil {
		return repo.Plant{}, err
	}
	if delta < 0 && p.Stock <= s.threshold {
		s.alertLowStock(ctx, p)
	}
	return p, nil
}

// LowStock lists plants at or below the alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]repo.Plant, error) {
	return s.store.ListLowStock(ctx, s.threshold)
}

func (s *Service) alertLowStock(ctx context.Context, p repo.Plant) {
	if obs.LowStockAlertsTotal != nil {
		obs.LowStockAlertsTotal.Inc()
	}
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.Notification{
		Kind:    notify.KindLowStock,
		Subject: fmt.Sprintf("Low stock: %s", p.Name),
		Body:    fmt.Sprintf("%s is down to %d units", p.Name, p.Stock),
		Meta: map[string]any{
			"plant_id": p.ID.Hex(),
			"stock":    p.Stock,
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Str("plant_id", p.ID.Hex()).Msg("low stock notification failed")
	}
}
