package cart

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

type fakeCartStore struct {
	carts map[string][]repo.CartItem
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string][]repo.CartItem{}}
}

func (f *fakeCartStore) ByUser(_ context.Context, userID string) (repo.Cart, error) {
	items, ok := f.carts[userID]
	if !ok {
		return repo.Cart{}, repo.ErrNotFound
	}
	return repo.Cart{UserID: userID, Items: items}, nil
}

func (f *fakeCartStore) Replace(_ context.Context, userID string, items []repo.CartItem) (repo.Cart, error) {
	f.carts[userID] = items
	return repo.Cart{UserID: userID, Items: items}, nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID string) error {
	delete(f.carts, userID)
	return nil
}

type fakePlantStore struct {
	plants map[string]repo.Plant
}

func (f *fakePlantStore) ByIDs(_ context.Context, ids []string) ([]repo.Plant, error) {
	var out []repo.Plant
	for _, id := range ids {
		if p, ok := f.plants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[string]repo.User
}

func (f *fakeUserStore) ByID(_ context.Context, id string) (repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

type fixture struct {
	svc      *Service
	carts    *fakeCartStore
	plants   *fakePlantStore
	users    *fakeUserStore
	plantIDs []string
	userID   string
}

// october keeps the seasonal promotion active so tests are deterministic.
func october() time.Time {
	return time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	plants := &fakePlantStore{plants: map[string]repo.Plant{}}
	var ids []string
	for _, p := range []repo.Plant{
		{Name: "Grevillea", PriceCents: 2000, Stock: 50, Category: "Outdoor, Sun"},
		{Name: "Calathea", PriceCents: 3000, Stock: 20, Category: "Indoor"},
	} {
		p.ID = primitive.NewObjectID()
		plants.plants[p.ID.Hex()] = p
		ids = append(ids, p.ID.Hex())
	}

	userOID := primitive.NewObjectID()
	users := &fakeUserStore{users: map[string]repo.User{
		userOID.Hex(): {ID: userOID, Role: repo.RoleCustomer, LoyaltyTier: "gold"},
	}}

	carts := newFakeCartStore()
	engine := pricing.NewEngine(pricing.DefaultRules(october), zerolog.Nop())
	svc, err := NewService(ServiceConfig{Carts: carts, Plants: plants, Users: users, Engine: engine})
	require.NoError(t, err)

	return &fixture{svc: svc, carts: carts, plants: plants, users: users, plantIDs: ids, userID: userOID.Hex()}
}

func TestGetEmptyCart(t *testing.T) {
	fx := newFixture(t)
	view, err := fx.svc.Get(context.Background(), fx.userID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Equal(t, "0.00", view.Subtotal)
}

func TestReplaceValidatesAndMerges(t *testing.T) {
	fx := newFixture(t)

	view, err := fx.svc.Replace(context.Background(), fx.userID, []ItemInput{
		{PlantID: fx.plantIDs[0], Qty: 1},
		{PlantID: fx.plantIDs[0], Qty: 1},
		{PlantID: fx.plantIDs[1], Qty: 1},
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.EqualValues(t, 2, view.Items[0].Qty)
	require.EqualValues(t, 7000, view.SubtotalInCents)
	require.Equal(t, "70.00", view.Subtotal)
}

func TestReplaceRejectsUnknownPlant(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Replace(context.Background(), fx.userID, []ItemInput{
		{PlantID: primitive.NewObjectID().Hex(), Qty: 1},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestReplaceRejectsOversell(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Replace(context.Background(), fx.userID, []ItemInput{
		{PlantID: fx.plantIDs[1], Qty: 21},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "in stock")
}

func TestReplaceRejectsNonPositiveQty(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Replace(context.Background(), fx.userID, []ItemInput{
		{PlantID: fx.plantIDs[0], Qty: 0},
	})
	require.Error(t, err)
}

func TestQuoteAppliesDiscountsAndFees(t *testing.T) {
	fx := newFixture(t)

	// 2 outdoor at 20.00 + 1 indoor at 30.00: subtotal 70.00. Gold loyalty
	// takes 10% (7.00) and the spring promotion 15% of the outdoor lines
	// (6.00).
	_, err := fx.svc.Replace(context.Background(), fx.userID, []ItemInput{
		{PlantID: fx.plantIDs[0], Qty: 2},
		{PlantID: fx.plantIDs[1], Qty: 1},
	})
	require.NoError(t, err)

	quote, err := fx.svc.Quote(context.Background(), fx.userID, true, 1000, 500)
	require.NoError(t, err)
	require.EqualValues(t, 7000, quote.SubtotalCents)
	require.EqualValues(t, 1300, quote.TotalDiscountCents)
	require.EqualValues(t, 5700, quote.TotalCents)
	require.EqualValues(t, 1000, quote.DeliveryFeeInCents)
	require.EqualValues(t, 500, quote.GiftWrapFeeInCents)
	require.EqualValues(t, 7200, quote.GrandTotalInCents)
	require.Equal(t, "72.00", quote.GrandTotal)
}

func TestQuoteEmptyCartSkipsFees(t *testing.T) {
	fx := newFixture(t)
	quote, err := fx.svc.Quote(context.Background(), fx.userID, true, 1000, 500)
	require.NoError(t, err)
	require.EqualValues(t, 0, quote.GrandTotalInCents)
	require.EqualValues(t, 0, quote.DeliveryFeeInCents)
	require.EqualValues(t, 0, quote.GiftWrapFeeInCents)
}

func TestQuoteAnonymousShopperGetsNoLoyalty(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Replace(context.Background(), "guest", []ItemInput{
		{PlantID: fx.plantIDs[1], Qty: 1},
	})
	require.NoError(t, err)

	quote, err := fx.svc.Quote(context.Background(), "guest", false, 1000, 500)
	require.NoError(t, err)
	require.EqualValues(t, 3000, quote.SubtotalCents)
	require.EqualValues(t, 0, quote.TotalDiscountCents)
	require.EqualValues(t, 4000, quote.GrandTotalInCents)
}
