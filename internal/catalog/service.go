package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// PlantStore is the subset of the plant repository the catalog needs.
type PlantStore interface {
	Insert(ctx context.Context, p repo.Plant) (repo.Plant, error)
	ByID(ctx context.Context, id string) (repo.Plant, error)
	List(ctx context.Context, f repo.PlantFilter) ([]repo.Plant, int64, error)
	Update(ctx context.Context, id string, u repo.PlantUpdate) (repo.Plant, error)
	Delete(ctx context.Context, id string) error
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	plants       PlantStore
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Plants       PlantStore
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Plants == nil {
		return nil, fmt.Errorf("catalog: plant store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		plants:       cfg.Plants,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListParams captures filters for plant listing.
type ListParams struct {
	Query    string
	Category string
	MinPrice *int64
	MaxPrice *int64
	InStock  *bool
	Page     int
	Limit    int
}

// Plant is the public catalog payload.
type Plant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	PriceInCents int64     `json:"priceInCents"`
	Price        string    `json:"price"`
	Stock        int64     `json:"stock"`
	InStock      bool      `json:"inStock"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Plant
	Total int64
	Page  int
	Limit int
}

type cachedList struct {
	Items []Plant `json:"items"`
	Total int64   `json:"total"`
}

// ParseListParams extracts plant list filters from query values.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Query:    strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
		Page:     1,
		Limit:    s.defaultLimit,
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ListParams{}, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ListParams{}, badRequest("limit", "limit must be a positive integer", err)
		}
		if limit > s.maxLimit {
			limit = s.maxLimit
		}
		params.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("minPrice")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return ListParams{}, badRequest("minPrice", "minPrice must be a non-negative integer of cents", err)
		}
		params.MinPrice = &v
	}
	if raw := strings.TrimSpace(values.Get("maxPrice")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return ListParams{}, badRequest("maxPrice", "maxPrice must be a non-negative integer of cents", err)
		}
		params.MaxPrice = &v
	}
	if raw := strings.TrimSpace(values.Get("inStock")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ListParams{}, badRequest("inStock", "inStock must be a boolean", err)
		}
		params.InStock = &v
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return ListParams{}, badRequest("minPrice", "minPrice cannot exceed maxPrice", nil)
	}
	return params, nil
}

// ListPlants returns a filtered page of the catalog, served from cache when possible.
func (s *Service) ListPlants(ctx context.Context, params ListParams) (ListResult, error) {
	key := listCacheKey(params)
	var cached cachedList
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
	}

	filter := repo.PlantFilter{
		Query:    params.Query,
		Category: params.Category,
		MinPrice: params.MinPrice,
		MaxPrice: params.MaxPrice,
		InStock:  params.InStock,
		Limit:    int64(params.Limit),
		Offset:   int64((params.Page - 1) * params.Limit),
	}
	rows, total, err := s.plants.List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list plants: %w", err)
	}
	items := make([]Plant, 0, len(rows))
	for _, row := range rows {
		items = append(items, convertPlant(row))
	}
	_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetPlant returns one plant by identifier.
func (s *Service) GetPlant(ctx context.Context, id string) (Plant, error) {
	key := detailCacheKey(id)
	var cached Plant
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.plants.ByID(ctx, id)
	if err != nil {
		return Plant{}, err
	}
	item := convertPlant(row)
	_ = s.cache.SetJSON(ctx, key, item)
	return item, nil
}

// PlantInput carries the staff-supplied fields for create and update.
type PlantInput struct {
	Name         string `json:"name" validate:"required"`
	Image        string `json:"image"`
	PriceInCents int64  `json:"priceInCents" validate:"gte=0"`
	Stock        int64  `json:"stock" validate:"gte=0"`
	Description  string `json:"description"`
	Category     string `json:"category"`
}

// CreatePlant adds a plant to the catalog.
func (s *Service) CreatePlant(ctx context.Context, in PlantInput, createdBy string) (Plant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Plant{}, badRequest("name", "name is required", nil)
	}
	if in.PriceInCents < 0 {
		return Plant{}, badRequest("priceInCents", "price cannot be negative", nil)
	}
	if in.Stock < 0 {
		return Plant{}, badRequest("stock", "stock cannot be negative", nil)
	}
	created, err := s.plants.Insert(ctx, repo.Plant{
		Name:        strings.TrimSpace(in.Name),
		Image:       strings.TrimSpace(in.Image),
		PriceCents:  in.PriceInCents,
		Stock:       in.Stock,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		CreatedBy:   createdBy,
	})
	if err != nil {
		return Plant{}, err
	}
	_ = s.cache.Invalidate(ctx)
	return convertPlant(created), nil
}

// UpdatePlant applies a partial update to a plant.
func (s *Service) UpdatePlant(ctx context.Context, id string, u repo.PlantUpdate) (Plant, error) {
	if u.PriceCents != nil && *u.PriceCents < 0 {
		return Plant{}, badRequest("priceInCents", "price cannot be negative", nil)
	}
	if u.Stock != nil && *u.Stock < 0 {
		return Plant{}, badRequest("stock", "stock cannot be negative", nil)
	}
	updated, err := s.plants.Update(ctx, id, u)
	if err != nil {
		return Plant{}, err
	}
	_ = s.cache.Invalidate(ctx)
	return convertPlant(updated), nil
}

// DeletePlant removes a plant from the catalog.
func (s *Service) DeletePlant(ctx context.Context, id string) error {
	if err := s.plants.Delete(ctx, id); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx)
}

func convertPlant(p repo.Plant) Plant {
	return Plant{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Image:        p.Image,
		PriceInCents: p.PriceCents,
		Price:        pricing.Money(p.PriceCents).Display(),
		Stock:        p.Stock,
		InStock:      p.Stock > 0,
		Description:  p.Description,
		Category:     p.Category,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func listCacheKey(params ListParams) string {
	var b strings.Builder
	b.WriteString("plants:")
	b.WriteString(url.QueryEscape(strings.ToLower(params.Query)))
	b.WriteString(":")
	b.WriteString(url.QueryEscape(strings.ToLower(params.Category)))
	b.WriteString(":")
	if params.MinPrice != nil {
		b.WriteString(strconv.FormatInt(*params.MinPrice, 10))
	}
	b.WriteString(":")
	if params.MaxPrice != nil {
		b.WriteString(strconv.FormatInt(*params.MaxPrice, 10))
	}
	b.WriteString(":")
	if params.InStock != nil {
		b.WriteString(strconv.FormatBool(*params.InStock))
	}
	b.WriteString(":")
	b.WriteString(strconv.Itoa(params.Page))
	b.WriteString(":")
	b.WriteString(strconv.Itoa(params.Limit))
	return b.String()
}

func detailCacheKey(id string) string {
	return "plant:" + id
}

func badRequest(field, message string, err error) *common.AppError {
	appErr := common.NewAppError("VALIDATION_ERROR", message, http.StatusBadRequest, err)
	appErr.Details = map[string]any{"field": field}
	return appErr
}
