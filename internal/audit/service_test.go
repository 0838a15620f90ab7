package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

type fakeStore struct {
	entries []repo.AuditLog
}

func (f *fakeStore) Insert(_ context.Context, entry repo.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]repo.AuditLog, error) {
	if offset >= len(f.entries) {
		return []repo.AuditLog{}, nil
	}
	end := offset + limit
	if end > len(f.entries) {
		end = len(f.entries)
	}
	return f.entries[offset:end], nil
}

func TestRecordSkipsWhenDisabled(t *testing.T) {
	store := &fakeStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/plants/123", nil)
	require.NoError(t, svc.Record(context.Background(), Actor{Kind: ActorKindUser, UserID: "u1"}, "", "", req, http.StatusNoContent, nil))
	require.Empty(t, store.entries)
}

func TestRecordDerivesActionAndResource(t *testing.T) {
	store := &fakeStore{}
	svc := Service{Store: store, Enabled: true}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/plants/123", nil)

	err := svc.Record(context.Background(), Actor{Kind: ActorKindUser, UserID: "u1", Role: "staff"}, "", "", req, http.StatusNoContent, bson.M{"id": "123"})
	require.NoError(t, err)
	require.Len(t, store.entries, 1)

	entry := store.entries[0]
	require.Equal(t, "DELETE /api/v1/plants/123", entry.Action)
	require.Equal(t, "plants.123", entry.Resource)
	require.Equal(t, "user", entry.ActorKind)
	require.Equal(t, "staff", entry.ActorRole)
	require.Equal(t, http.StatusNoContent, entry.Status)
}

func TestMiddlewareRecordsAfterHandler(t *testing.T) {
	store := &fakeStore{}
	rec := HTTPRecorder{Service: Service{Store: store, Enabled: true}}

	handler := rec.Middleware(HTTPConfig{Action: "plant.delete", Resource: "plant"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/plants/123", nil)
	req = req.WithContext(common.WithRole(common.WithUserID(req.Context(), "u1"), "admin"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, store.entries, 1)
	require.Equal(t, "plant.delete", store.entries[0].Action)
	require.Equal(t, "admin", store.entries[0].ActorRole)
	require.Equal(t, "u1", store.entries[0].ActorID)
}

func TestMiddlewareAnonymousActor(t *testing.T) {
	store := &fakeStore{}
	rec := HTTPRecorder{Service: Service{Store: store, Enabled: true}}

	handler := rec.Middleware(HTTPConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

	require.Len(t, store.entries, 1)
	require.Equal(t, "anonymous", store.entries[0].ActorKind)
}
