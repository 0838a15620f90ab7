package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/payment"
	"github.com/noah-isme/backend-nursery/internal/resilience"
)

type flakyProvider struct {
	err   error
	calls int
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Charge(_ context.Context, req payment.ChargeRequest) (payment.Receipt, error) {
	f.calls++
	if f.err != nil {
		return payment.Receipt{}, f.err
	}
	return payment.Receipt{Provider: "flaky", ReceiptID: "r1", AmountCents: req.AmountCents, ChargedAt: time.Now()}, nil
}

func TestGuardedPassesThroughSuccess(t *testing.T) {
	upstream := &flakyProvider{}
	guarded := payment.NewGuarded(upstream, resilience.NewBreaker(2, 0.5, time.Minute))

	receipt, err := guarded.Charge(context.Background(), payment.ChargeRequest{OrderID: "o1", AmountCents: 1500})
	require.NoError(t, err)
	require.Equal(t, "r1", receipt.ReceiptID)
	require.Equal(t, 1, upstream.calls)
}

func TestGuardedOpensAfterRepeatedFailures(t *testing.T) {
	upstream := &flakyProvider{err: errors.New("gateway timeout")}
	guarded := payment.NewGuarded(upstream, resilience.NewBreaker(2, 0.5, time.Minute))
	ctx := context.Background()
	req := payment.ChargeRequest{OrderID: "o1", AmountCents: 1500}

	_, err := guarded.Charge(ctx, req)
	require.Error(t, err)
	_, err = guarded.Charge(ctx, req)
	require.Error(t, err)

	// Breaker is now open: the upstream must not be called again.
	_, err = guarded.Charge(ctx, req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, upstream.calls)
}

func TestGuardedWithoutBreakerDelegates(t *testing.T) {
	upstream := &flakyProvider{}
	guarded := payment.NewGuarded(upstream, nil)
	_, err := guarded.Charge(context.Background(), payment.ChargeRequest{OrderID: "o1", AmountCents: 100})
	require.NoError(t, err)
}
