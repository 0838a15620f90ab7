package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

// CartItem references a plant by id with the desired quantity. Prices are
// not stored on the cart; they are resolved to snapshots at quote and
// checkout time.
type CartItem struct {
	PlantID string `bson:"plant_id"`
	Qty     int64  `bson:"qty"`
}

// Cart is the persistent cart document, one per user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []CartItem         `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// Carts persists per-user carts.
type Carts struct {
	col *mongo.Collection
}

// NewCarts builds the carts repository.
func NewCarts(db *mongo.Database) *Carts {
	return &Carts{col: db.Collection(cartsCollection)}
}

func uniqueCartUserIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// ByUser fetches the user's cart.
func (r *Carts) ByUser(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		return Cart{}, translateFindErr(err)
	}
	return c, nil
}

// Replace upserts the user's cart with the given items.
func (r *Carts) Replace(ctx context.Context, userID string, items []CartItem) (Cart, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"items": items, "updated_at": now},
		"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var c Cart
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&c); err != nil {
		return Cart{}, translateWriteErr(err)
	}
	return c, nil
}

// Clear removes the user's cart. Clearing an absent cart is not an error.
func (r *Carts) Clear(ctx context.Context, userID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
