package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const plantsCollection = "plants"

// Plant is the catalog document. Prices are stored in minor units.
type Plant struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Image       string             `bson:"image"`
	PriceCents  int64              `bson:"price_cents"`
	Stock       int64              `bson:"stock"`
	Description string             `bson:"description,omitempty"`
	Category    string             `bson:"category,omitempty"`
	CreatedBy   string             `bson:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// PlantFilter narrows List queries.
type PlantFilter struct {
	Query    string
	Category string
	MinPrice *int64
	MaxPrice *int64
	InStock  *bool
	Limit    int64
	Offset   int64
}

// PlantUpdate carries the mutable plant fields; nil pointers are left
// untouched.
type PlantUpdate struct {
	Name        *string
	Image       *string
	PriceCents  *int64
	Stock       *int64
	Description *string
	Category    *string
}

// Plants persists the plant catalog.
type Plants struct {
	col *mongo.Collection
}

// NewPlants builds the plants repository.
func NewPlants(db *mongo.Database) *Plants {
	return &Plants{col: db.Collection(plantsCollection)}
}

// Insert stores a new plant and returns it with its generated identifier.
func (r *Plants) Insert(ctx context.Context, p Plant) (Plant, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Image == "" {
		p.Image = "placeholder.jpg"
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return Plant{}, translateWriteErr(err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return p, nil
}

// ByID fetches one plant by its hex identifier.
func (r *Plants) ByID(ctx context.Context, id string) (Plant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Plant{}, ErrNotFound
	}
	var p Plant
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return Plant{}, translateFindErr(err)
	}
	return p, nil
}

// ByIDs fetches all plants matching the given hex identifiers. Unknown ids
// are simply absent from the result; the caller decides whether that is an
// error.
func (r *Plants) ByIDs(ctx context.Context, ids []string) ([]Plant, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var plants []Plant
	if err := cur.All(ctx, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// List returns plants matching the filter together with the total count.
func (r *Plants) List(ctx context.Context, f PlantFilter) ([]Plant, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = bson.M{"$regex": f.Category, "$options": "i"}
	}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": f.Query, "$options": "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	if f.InStock != nil {
		if *f.InStock {
			filter["stock"] = bson.M{"$gt": 0}
		} else {
			filter["stock"] = bson.M{"$lte": 0}
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit).SetSkip(f.Offset)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var plants []Plant
	if err := cur.All(ctx, &plants); err != nil {
		return nil, 0, err
	}
	return plants, total, nil
}

// Update applies the non-nil fields and returns the updated document.
func (r *Plants) Update(ctx context.Context, id string, u PlantUpdate) (Plant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Plant{}, ErrNotFound
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	if u.PriceCents != nil {
		set["price_cents"] = *u.PriceCents
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Plant
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return Plant{}, translateFindErr(err)
	}
	return p, nil
}

// Delete removes a plant.
func (r *Plants) Delete(ctx context.Context, id string) error {
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

// AdjustStock atomically changes a plant's stock by delta. Negative deltas
// carry a stock >= -delta guard so the document can never go below zero.
func (r *Plants) AdjustStock(ctx context.Context, id string, delta int64) (Plant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Plant{}, ErrNotFound
	}
	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Plant
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		if translateFindErr(err) == ErrNotFound {
			return Plant{}, ErrInsufficientStock
		}
		return Plant{}, err
	}
	return p, nil
}

// ListLowStock returns plants at or below the threshold.
func (r *Plants) ListLowStock(ctx context.Context, threshold int64) ([]Plant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "stock", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"stock": bson.M{"$lte": threshold}}, opts)
	if err != nil {
		return nil, err
	}
	var plants []Plant
	if err := cur.All(ctx, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}
