package catalog

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/backend-nursery/internal/repo"
)

type fakePlantStore struct {
	plants    map[string]repo.Plant
	listCalls int
}

func newFakePlantStore() *fakePlantStore {
	return &fakePlantStore{plants: map[string]repo.Plant{}}
}

func (f *fakePlantStore) Insert(_ context.Context, p repo.Plant) (repo.Plant, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	f.plants[p.ID.Hex()] = p
	return p, nil
}

func (f *fakePlantStore) ByID(_ context.Context, id string) (repo.Plant, error) {
	p, ok := f.plants[id]
	if !ok {
		return repo.Plant{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakePlantStore) List(_ context.Context, filter repo.PlantFilter) ([]repo.Plant, int64, error) {
	f.listCalls++
	var out []repo.Plant
	for _, p := range f.plants {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.MinPrice != nil && p.PriceCents < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.PriceCents > *filter.MaxPrice {
			continue
		}
		if filter.InStock != nil && *filter.InStock && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePlantStore) Update(_ context.Context, id string, u repo.PlantUpdate) (repo.Plant, error) {
	p, ok := f.plants[id]
	if !ok {
		return repo.Plant{}, repo.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.PriceCents != nil {
		p.PriceCents = *u.PriceCents
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	f.plants[id] = p
	return p, nil
}

func (f *fakePlantStore) Delete(_ context.Context, id string) error {
	if _, ok := f.plants[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.plants, id)
	return nil
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func newTestService(t *testing.T, store PlantStore, cache *Cache) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Plants: store, Cache: cache, DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	return svc
}

func TestParseListParams(t *testing.T) {
	svc := newTestService(t, newFakePlantStore(), nil)

	params, err := svc.ParseListParams(url.Values{
		"q":        []string{"monstera"},
		"category": []string{"Indoor"},
		"minPrice": []string{"1000"},
		"maxPrice": []string{"5000"},
		"inStock":  []string{"true"},
		"page":     []string{"2"},
		"limit":    []string{"10"},
	})
	require.NoError(t, err)
	require.Equal(t, "monstera", params.Query)
	require.Equal(t, "Indoor", params.Category)
	require.EqualValues(t, 1000, *params.MinPrice)
	require.EqualValues(t, 5000, *params.MaxPrice)
	require.True(t, *params.InStock)
	require.Equal(t, 2, params.Page)
	require.Equal(t, 10, params.Limit)
}

func TestParseListParamsRejectsBadInput(t *testing.T) {
	svc := newTestService(t, newFakePlantStore(), nil)

	_, err := svc.ParseListParams(url.Values{"page": []string{"0"}})
	require.Error(t, err)

	_, err = svc.ParseListParams(url.Values{"minPrice": []string{"-5"}})
	require.Error(t, err)

	_, err = svc.ParseListParams(url.Values{"minPrice": []string{"500"}, "maxPrice": []string{"100"}})
	require.Error(t, err)

	_, err = svc.ParseListParams(url.Values{"inStock": []string{"maybe"}})
	require.Error(t, err)
}

func TestParseListParamsCapsLimit(t *testing.T) {
	svc := newTestService(t, newFakePlantStore(), nil)
	params, err := svc.ParseListParams(url.Values{"limit": []string{"500"}})
	require.NoError(t, err)
	require.Equal(t, 100, params.Limit)
}

func TestListPlantsServesFromCache(t *testing.T) {
	store := newFakePlantStore()
	_, err := store.Insert(context.Background(), repo.Plant{Name: "Monstera", PriceCents: 2999, Stock: 4, Category: "Indoor"})
	require.NoError(t, err)

	svc := newTestService(t, store, testCache(t))
	params := ListParams{Page: 1, Limit: 20}

	first, err := svc.ListPlants(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.Equal(t, "29.99", first.Items[0].Price)

	second, err := svc.ListPlants(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, 1, store.listCalls)
}

func TestCreatePlantInvalidatesCache(t *testing.T) {
	store := newFakePlantStore()
	svc := newTestService(t, store, testCache(t))
	params := ListParams{Page: 1, Limit: 20}

	_, err := svc.ListPlants(context.Background(), params)
	require.NoError(t, err)

	_, err = svc.CreatePlant(context.Background(), PlantInput{Name: "Calathea", PriceInCents: 1500, Stock: 3}, "staff-1")
	require.NoError(t, err)

	result, err := svc.ListPlants(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, 2, store.listCalls)
}

func TestCreatePlantValidation(t *testing.T) {
	svc := newTestService(t, newFakePlantStore(), nil)

	_, err := svc.CreatePlant(context.Background(), PlantInput{Name: " ", PriceInCents: 100}, "")
	require.Error(t, err)

	_, err = svc.CreatePlant(context.Background(), PlantInput{Name: "Fern", PriceInCents: -1}, "")
	require.Error(t, err)

	_, err = svc.CreatePlant(context.Background(), PlantInput{Name: "Fern", PriceInCents: 100, Stock: -2}, "")
	require.Error(t, err)
}

func TestGetPlantNotFound(t *testing.T) {
	svc := newTestService(t, newFakePlantStore(), nil)
	_, err := svc.GetPlant(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, repo.ErrNotFound)
}
