package community

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/backend-nursery/internal/notify"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

type fakeEventStore struct {
	events map[string]repo.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]repo.Event{}}
}

func (f *fakeEventStore) Insert(_ context.Context, e repo.Event) (repo.Event, error) {
	e.ID = primitive.NewObjectID()
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	f.events[e.ID.Hex()] = e
	return e, nil
}

func (f *fakeEventStore) ByID(_ context.Context, id string) (repo.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return repo.Event{}, repo.ErrNotFound
	}
	return e, nil
}

func (f *fakeEventStore) List(_ context.Context, city string) ([]repo.Event, error) {
	var out []repo.Event
	for _, e := range f.events {
		if city == "" || e.City == city {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) Update(_ context.Context, id string, set bson.M) (repo.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return repo.Event{}, repo.ErrNotFound
	}
	if title, ok := set["title"].(string); ok {
		e.Title = title
	}
	if city, ok := set["city"].(string); ok {
		e.City = city
	}
	if capacity, ok := set["capacity"].(int64); ok {
		e.Capacity = capacity
	}
	f.events[id] = e
	return e, nil
}

func (f *fakeEventStore) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) AddAttendee(_ context.Context, id, userID string) (repo.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return repo.Event{}, repo.ErrNotFound
	}
	for _, attendee := range e.Attendees {
		if attendee == userID {
			return repo.Event{}, repo.ErrConflict
		}
	}
	if e.Capacity > 0 && int64(len(e.Attendees)) >= e.Capacity {
		return repo.Event{}, repo.ErrConflict
	}
	e.Attendees = append(e.Attendees, userID)
	f.events[id] = e
	return e, nil
}

func (f *fakeEventStore) RemoveAttendee(_ context.Context, id, userID string) (repo.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return repo.Event{}, repo.ErrNotFound
	}
	kept := e.Attendees[:0]
	for _, attendee := range e.Attendees {
		if attendee != userID {
			kept = append(kept, attendee)
		}
	}
	e.Attendees = kept
	f.events[id] = e
	return e, nil
}

type capturingNotifier struct {
	notifications []notify.Notification
}

func (c *capturingNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.notifications = append(c.notifications, n)
	return nil
}

func validInput() EventInput {
	start := time.Now().Add(24 * time.Hour)
	return EventInput{
		Title:    "Propagation Workshop",
		City:     "Sydney",
		Location: "Royal Botanic Garden",
		StartAt:  start,
		EndAt:    start.Add(2 * time.Hour),
		Capacity: 2,
	}
}

func newTestService(t *testing.T, store EventStore, notifier notify.Notifier) *Service {
	t.Helper()
	svc, err := NewService(store, notifier, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestCreateEventDefaultsCategory(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)

	view, err := svc.Create(context.Background(), validInput(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "Community", view.Category)
	require.Equal(t, "Sydney", view.City)
	require.True(t, view.Free)
	require.EqualValues(t, 2, *view.SpotsLeft)
}

func TestCreateEventCanonicalisesCity(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	in := validInput()
	in.City = "melbourne"
	view, err := svc.Create(context.Background(), in, "user-1")
	require.NoError(t, err)
	require.Equal(t, "Melbourne", view.City)
}

func TestCreateEventRejectsUnknownCity(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	in := validInput()
	in.City = "Perth"
	_, err := svc.Create(context.Background(), in, "user-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not supported")
}

func TestCreateEventRejectsInvertedTimes(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	in := validInput()
	in.EndAt = in.StartAt.Add(-time.Hour)
	_, err := svc.Create(context.Background(), in, "user-1")
	require.Error(t, err)
}

func TestUpdateAndDeleteAreCreatorOnly(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	created, err := svc.Create(context.Background(), validInput(), "owner")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, "intruder", validInput())
	require.Error(t, err)
	require.Contains(t, err.Error(), "creator")

	err = svc.Delete(context.Background(), created.ID, "intruder")
	require.Error(t, err)

	err = svc.Delete(context.Background(), created.ID, "owner")
	require.NoError(t, err)
}

func TestAttendIsIdempotent(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	created, err := svc.Create(context.Background(), validInput(), "owner")
	require.NoError(t, err)

	first, err := svc.Attend(context.Background(), created.ID, "guest")
	require.NoError(t, err)
	require.Equal(t, 1, first.Attendees)

	second, err := svc.Attend(context.Background(), created.ID, "guest")
	require.NoError(t, err)
	require.Equal(t, 1, second.Attendees)
}

func TestAttendEnforcesCapacity(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := newTestService(t, newFakeEventStore(), notifier)
	created, err := svc.Create(context.Background(), validInput(), "owner")
	require.NoError(t, err)

	_, err = svc.Attend(context.Background(), created.ID, "guest-1")
	require.NoError(t, err)
	full, err := svc.Attend(context.Background(), created.ID, "guest-2")
	require.NoError(t, err)
	require.EqualValues(t, 0, *full.SpotsLeft)

	_, err = svc.Attend(context.Background(), created.ID, "guest-3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "full")

	// The creator was told the event filled up.
	require.Len(t, notifier.notifications, 1)
	require.Equal(t, notify.KindEventSignup, notifier.notifications[0].Kind)
	require.Equal(t, "owner", notifier.notifications[0].Recipient)
}

func TestUnattendFreesASpot(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	created, err := svc.Create(context.Background(), validInput(), "owner")
	require.NoError(t, err)

	_, err = svc.Attend(context.Background(), created.ID, "guest-1")
	require.NoError(t, err)
	view, err := svc.Unattend(context.Background(), created.ID, "guest-1")
	require.NoError(t, err)
	require.Equal(t, 0, view.Attendees)
	require.EqualValues(t, 2, *view.SpotsLeft)
}

func TestListFiltersByCity(t *testing.T) {
	svc := newTestService(t, newFakeEventStore(), nil)
	_, err := svc.Create(context.Background(), validInput(), "owner")
	require.NoError(t, err)
	in := validInput()
	in.City = "Brisbane"
	_, err = svc.Create(context.Background(), in, "owner")
	require.NoError(t, err)

	views, err := svc.List(context.Background(), "brisbane")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Brisbane", views[0].City)

	_, err = svc.List(context.Background(), "Adelaide")
	require.Error(t, err)
}
