package payment

import (
	"context"
	"fmt"

	"github.com/noah-isme/backend-nursery/internal/resilience"
)

// Guarded wraps a Provider with a circuit breaker so a flapping upstream does
// not take the whole checkout path down with it.
type Guarded struct {
	Provider Provider
	Breaker  *resilience.Breaker
}

// NewGuarded builds a breaker-protected provider.
func NewGuarded(p Provider, b *resilience.Breaker) Guarded {
	return Guarded{Provider: p, Breaker: b}
}

// Name reports the underlying provider name.
func (g Guarded) Name() string {
	return g.Provider.Name()
}

// Charge delegates to the underlying provider while the breaker permits it.
func (g Guarded) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if g.Breaker == nil {
		return g.Provider.Charge(ctx, req)
	}
	if !g.Breaker.Allow(ctx) {
		return Receipt{}, fmt.Errorf("%s: %w", g.Provider.Name(), resilience.ErrOpenCircuit)
	}
	receipt, err := g.Provider.Charge(ctx, req)
	g.Breaker.Report(ctx, err == nil)
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}
