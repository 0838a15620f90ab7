package community

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/notify"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// Cities the nursery runs community events in.
var allowedCities = []string{"Sydney", "Melbourne", "Brisbane"}

const defaultCategory = "Community"

// EventStore is the subset of the event repository the service needs.
type EventStore interface {
	Insert(ctx context.Context, e repo.Event) (repo.Event, error)
	ByID(ctx context.Context, id string) (repo.Event, error)
	List(ctx context.Context, city string) ([]repo.Event, error)
	Update(ctx context.Context, id string, set bson.M) (repo.Event, error)
	Delete(ctx context.Context, id string) error
	AddAttendee(ctx context.Context, id, userID string) (repo.Event, error)
	RemoveAttendee(ctx context.Context, id, userID string) (repo.Event, error)
}

// Service manages community events and RSVPs.
type Service struct {
	events   EventStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewService constructs a Service.
func NewService(events EventStore, notifier notify.Notifier, logger zerolog.Logger) (*Service, error) {
	if events == nil {
		return nil, errors.New("community: event store is required")
	}
	return &Service{events: events, notifier: notifier, logger: logger}, nil
}

// EventInput carries the creator-supplied event fields.
type EventInput struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	City         string    `json:"city" validate:"required"`
	Location     string    `json:"location" validate:"required"`
	StartAt      time.Time `json:"startAt" validate:"required"`
	EndAt        time.Time `json:"endAt" validate:"required"`
	Capacity     int64     `json:"capacity" validate:"gte=0"`
	IsOnline     bool      `json:"isOnline"`
	PriceInCents int64     `json:"priceInCents" validate:"gte=0"`
	Tags         []string  `json:"tags"`
}

// View is the event payload returned to clients.
type View struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	City         string    `json:"city"`
	Location     string    `json:"location"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	Capacity     int64     `json:"capacity"`
	IsOnline     bool      `json:"isOnline"`
	PriceInCents int64     `json:"priceInCents"`
	Free         bool      `json:"free"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	Attendees    int       `json:"attendees"`
	SpotsLeft    *int64    `json:"spotsLeft,omitempty"`
}

// Create stores a new event owned by the given user.
func (s *Service) Create(ctx context.Context, in EventInput, userID string) (View, error) {
	if err := validateInput(in); err != nil {
		return View{}, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}
	created, err := s.events.Insert(ctx, repo.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    category,
		City:        canonicalCity(in.City),
		Location:    strings.TrimSpace(in.Location),
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Capacity:    in.Capacity,
		IsOnline:    in.IsOnline,
		PriceCents:  in.PriceInCents,
		Tags:        in.Tags,
		CreatedBy:   userID,
	})
	if err != nil {
		return View{}, err
	}
	return convertEvent(created), nil
}

// Update applies creator-only changes to an event.
func (s *Service) Update(ctx context.Context, id, userID string, in EventInput) (View, error) {
	existing, err := s.events.ByID(ctx, id)
	if err != nil {
		return View{}, notFoundOr(err)
	}
	if existing.CreatedBy != userID {
		return View{}, common.Forbidden("only the creator can update this event")
	}
	if err := validateInput(in); err != nil {
		return View{}, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}
	updated, err := s.events.Update(ctx, id, bson.M{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"category":    category,
		"city":        canonicalCity(in.City),
		"location":    strings.TrimSpace(in.Location),
		"start_at":    in.StartAt,
		"end_at":      in.EndAt,
		"capacity":    in.Capacity,
		"is_online":   in.IsOnline,
		"price_cents": in.PriceInCents,
		"tags":        in.Tags,
	})
	if err != nil {
		return View{}, notFoundOr(err)
	}
	return convertEvent(updated), nil
}

// Delete removes an event. Only the creator may delete it.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	existing, err := s.events.ByID(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if existing.CreatedBy != userID {
		return common.Forbidden("only the creator can delete this event")
	}
	return s.events.Delete(ctx, id)
}

// List returns upcoming events, optionally filtered by city.
func (s *Service) List(ctx context.Context, city string) ([]View, error) {
	if city != "" {
		if !validCity(city) {
			return nil, badCityErr(city)
		}
		city = canonicalCity(city)
	}
	rows, err := s.events.List(ctx, city)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, convertEvent(row))
	}
	return views, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	row, err := s.events.ByID(ctx, id)
	if err != nil {
		return View{}, notFoundOr(err)
	}
	return convertEvent(row), nil
}

// Attend registers the user for an event. Joining twice is a no-op; a full
// event is a conflict.
func (s *Service) Attend(ctx context.Context, id, userID string) (View, error) {
	existing, err := s.events.ByID(ctx, id)
	if err != nil {
		return View{}, notFoundOr(err)
	}
	for _, attendee := range existing.Attendees {
		if attendee == userID {
			return convertEvent(existing), nil
		}
	}
	updated, err := s.events.AddAttendee(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			s.countRegistration("full")
			return View{}, common.Conflict("event is full")
		}
		return View{}, err
	}
	s.countRegistration("ok")
	if updated.Capacity > 0 && int64(len(updated.Attendees)) >= updated.Capacity {
		s.notifyCapacityReached(ctx, updated)
	}
	return convertEvent(updated), nil
}

// Unattend removes the user's RSVP.
func (s *Service) Unattend(ctx context.Context, id, userID string) (View, error) {
	updated, err := s.events.RemoveAttendee(ctx, id, userID)
	if err != nil {
		return View{}, notFoundOr(err)
	}
	return convertEvent(updated), nil
}

func (s *Service) countRegistration(result string) {
	if obs.EventRegistrationsTotal != nil {
		obs.EventRegistrationsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) notifyCapacityReached(ctx context.Context, e repo.Event) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.Notification{
		Kind:      notify.KindEventSignup,
		Recipient: e.CreatedBy,
		Subject:   fmt.Sprintf("Event full: %s", e.Title),
		Body:      fmt.Sprintf("%s has reached its capacity of %d", e.Title, e.Capacity),
		Meta:      map[string]any{"event_id": e.ID.Hex()},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event_id", e.ID.Hex()).Msg("capacity notification failed")
	}
}

func validateInput(in EventInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return common.BadRequest("title is required", "title")
	}
	if strings.TrimSpace(in.Location) == "" {
		return common.BadRequest("location is required", "location")
	}
	if !validCity(in.City) {
		return badCityErr(in.City)
	}
	if in.StartAt.IsZero() || in.EndAt.IsZero() {
		return common.BadRequest("startAt and endAt are required", "startAt")
	}
	if !in.EndAt.After(in.StartAt) {
		return common.BadRequest("endAt must be after startAt", "endAt")
	}
	if in.Capacity < 0 {
		return common.BadRequest("capacity cannot be negative", "capacity")
	}
	if in.PriceInCents < 0 {
		return common.BadRequest("price cannot be negative", "priceInCents")
	}
	return nil
}

func validCity(city string) bool {
	for _, allowed := range allowedCities {
		if strings.EqualFold(strings.TrimSpace(city), allowed) {
			return true
		}
	}
	return false
}

func canonicalCity(city string) string {
	for _, allowed := range allowedCities {
		if strings.EqualFold(strings.TrimSpace(city), allowed) {
			return allowed
		}
	}
	return strings.TrimSpace(city)
}

func badCityErr(city string) *common.AppError {
	return common.NewAppError("VALIDATION_ERROR",
		fmt.Sprintf("city %q is not supported; choose one of %s", city, strings.Join(allowedCities, ", ")),
		http.StatusBadRequest, nil)
}

func notFoundOr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return common.NotFound("event not found")
	}
	return err
}

func convertEvent(e repo.Event) View {
	view := View{
		ID:           e.ID.Hex(),
		Title:        e.Title,
		Description:  e.Description,
		Category:     e.Category,
		City:         e.City,
		Location:     e.Location,
		StartAt:      e.StartAt,
		EndAt:        e.EndAt,
		Capacity:     e.Capacity,
		IsOnline:     e.IsOnline,
		PriceInCents: e.PriceCents,
		Free:         e.PriceCents == 0,
		Tags:         e.Tags,
		CreatedBy:    e.CreatedBy,
		Attendees:    len(e.Attendees),
	}
	if e.Capacity > 0 {
		left := e.Capacity - int64(len(e.Attendees))
		if left < 0 {
			left = 0
		}
		view.SpotsLeft = &left
	}
	return view
}
