package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const eventsCollection = "events"

// Event is a community event document. Capacity zero means unlimited.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Category    string             `bson:"category"`
	City        string             `bson:"city"`
	Location    string             `bson:"location"`
	StartAt     time.Time          `bson:"start_at"`
	EndAt       time.Time          `bson:"end_at"`
	Capacity    int64              `bson:"capacity"`
	IsOnline    bool               `bson:"is_online"`
	PriceCents  int64              `bson:"price_cents"`
	Tags        []string           `bson:"tags,omitempty"`
	CreatedBy   string             `bson:"created_by"`
	Attendees   []string           `bson:"attendees"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// Events persists community events.
type Events struct {
	col *mongo.Collection
}

// NewEvents builds the events repository.
func NewEvents(db *mongo.Database) *Events {
	return &Events{col: db.Collection(eventsCollection)}
}

// Insert stores a new event.
func (r *Events) Insert(ctx context.Context, e Event) (Event, error) {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return Event{}, translateWriteErr(err)
	}
	e.ID = res.InsertedID.(primitive.ObjectID)
	return e, nil
}

// ByID fetches one event.
func (r *Events) ByID(ctx context.Context, id string) (Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Event{}, ErrNotFound
	}
	var e Event
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&e); err != nil {
		return Event{}, translateFindErr(err)
	}
	return e, nil
}

// List returns events sorted by start time. An empty city matches all.
func (r *Events) List(ctx context.Context, city string) ([]Event, error) {
	filter := bson.M{}
	if city != "" {
		filter["city"] = city
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update replaces the mutable fields of an event.
func (r *Events) Update(ctx context.Context, id string, set bson.M) (Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Event{}, ErrNotFound
	}
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e Event
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&e); err != nil {
		return Event{}, translateFindErr(err)
	}
	return e, nil
}

// Delete removes an event.
func (r *Events) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddAttendee registers a user once, enforcing capacity atomically when the
// event has one.
func (r *Events) AddAttendee(ctx context.Context, id, userID string) (Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Event{}, ErrNotFound
	}
	filter := bson.M{
		"_id":       oid,
		"attendees": bson.M{"$ne": userID},
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$lte": bson.A{"$capacity", 0}},
			bson.M{"$lt": bson.A{bson.M{"$size": "$attendees"}, "$capacity"}},
		}},
	}
	update := bson.M{
		"$addToSet": bson.M{"attendees": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e Event
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e); err != nil {
		if translateFindErr(err) == ErrNotFound {
			return Event{}, ErrConflict
		}
		return Event{}, err
	}
	return e, nil
}

// RemoveAttendee deregisters a user.
func (r *Events) RemoveAttendee(ctx context.Context, id, userID string) (Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Event{}, ErrNotFound
	}
	update := bson.M{
		"$pull": bson.M{"attendees": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e Event
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&e); err != nil {
		return Event{}, translateFindErr(err)
	}
	return e, nil
}
