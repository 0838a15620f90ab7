package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/backend-nursery/internal/loyalty"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

type fakeUserStore struct {
	byEmail map[string]repo.User
	byID    map[string]repo.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]repo.User{}, byID: map[string]repo.User{}}
}

func (f *fakeUserStore) Insert(_ context.Context, u repo.User) (repo.User, error) {
	if _, exists := f.byEmail[u.Email]; exists {
		return repo.User{}, repo.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	f.byEmail[u.Email] = u
	f.byID[u.ID.Hex()] = u
	return u, nil
}

func (f *fakeUserStore) ByEmail(_ context.Context, email string) (repo.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ByID(_ context.Context, id string) (repo.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Users:          store,
		Secret:         "test-secret-not-for-production",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesGreenCustomer(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "Flora Gardener", "flora@example.com", "sup3rsecret", "12 Fern St")
	require.NoError(t, err)
	require.Equal(t, repo.RoleCustomer, user.Role)
	require.Equal(t, loyalty.TierGreen, user.LoyaltyTier)
	require.NotNil(t, user.Loyalty)
	require.Equal(t, "silver", user.Loyalty.NextTier)

	stored := store.byEmail["flora@example.com"]
	require.NotEqual(t, "sup3rsecret", stored.PasswordHash)
	require.True(t, stored.IsActive)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Flora", "flora@example.com", "sup3rsecret", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Flora Again", "Flora@Example.com", "sup3rsecret", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())

	_, err := svc.Register(context.Background(), "", "flora@example.com", "sup3rsecret", "")
	require.Error(t, err)

	_, err = svc.Register(context.Background(), "Flora", "", "sup3rsecret", "")
	require.Error(t, err)

	_, err = svc.Register(context.Background(), "Flora", "flora@example.com", "short", "")
	require.Error(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Flora", "flora@example.com", "sup3rsecret", "")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "flora@example.com", "sup3rsecret")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	userID, role, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, userID)
	require.Equal(t, repo.RoleCustomer, role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Flora", "flora@example.com", "sup3rsecret", "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "flora@example.com", "wrongpassword")
	require.Error(t, err)

	_, err = svc.Login(context.Background(), "nobody@example.com", "sup3rsecret")
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Flora", "flora@example.com", "sup3rsecret", "")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "flora@example.com", "sup3rsecret")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, _, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestRegisterEmployeeRequiresKnownRole(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())

	_, err := svc.RegisterEmployee(context.Background(), "Sam Staff", "sam@example.com", "sup3rsecret", "customer", "EMP-1")
	require.Error(t, err)

	user, err := svc.RegisterEmployee(context.Background(), "Sam Staff", "sam@example.com", "sup3rsecret", "staff", "EMP-1")
	require.NoError(t, err)
	require.Equal(t, repo.RoleStaff, user.Role)
	require.Nil(t, user.Loyalty)
}
