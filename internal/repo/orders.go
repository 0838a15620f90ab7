package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

// Order status values. Customers move pending -> paid or
// pending -> cancelled; staff may set any status via Patch.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

// OrderItem is a line snapshot taken at checkout time: the name and unit
// price are frozen so later catalog edits do not rewrite history.
type OrderItem struct {
	PlantID        string `bson:"plant_id"`
	Name           string `bson:"name"`
	UnitPriceCents int64  `bson:"unit_price_cents"`
	Category       string `bson:"category,omitempty"`
	Qty            int64  `bson:"qty"`
}

// OrderDiscount records one applied discount on the order document.
type OrderDiscount struct {
	Name        string `bson:"name"`
	AmountCents int64  `bson:"amount_cents"`
	Description string `bson:"description"`
}

// Order is the order document. All money fields are minor units.
type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Number             int64              `bson:"number"`
	Items              []OrderItem        `bson:"items"`
	Discounts          []OrderDiscount    `bson:"discounts,omitempty"`
	SubtotalCents      int64              `bson:"subtotal_cents"`
	TotalDiscountCents int64              `bson:"total_discount_cents"`
	DeliveryFeeCents   int64              `bson:"delivery_fee_cents"`
	GiftWrap           bool               `bson:"gift_wrap"`
	GiftWrapFeeCents   int64              `bson:"gift_wrap_fee_cents"`
	TotalCents         int64              `bson:"total_cents"`
	Status             string             `bson:"status"`
	Provider           string             `bson:"provider,omitempty"`
	ReceiptID          string             `bson:"receipt_id,omitempty"`
	CreatedBy          string             `bson:"created_by"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

// Orders persists orders.
type Orders struct {
	col *mongo.Collection
}

// NewOrders builds the orders repository.
func NewOrders(db *mongo.Database) *Orders {
	return &Orders{col: db.Collection(ordersCollection)}
}

func orderListingIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
	}
}

// Insert stores a new order.
func (r *Orders) Insert(ctx context.Context, o Order) (Order, error) {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = OrderPending
	}
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		return Order{}, translateWriteErr(err)
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return o, nil
}

// ByID fetches one order.
func (r *Orders) ByID(ctx context.Context, id string) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, ErrNotFound
	}
	var o Order
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&o); err != nil {
		return Order{}, translateFindErr(err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Orders) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"created_by": userID}, opts)
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Transition moves an order from one status to another atomically. A raced
// or invalid transition yields ErrConflict.
func (r *Orders) Transition(ctx context.Context, id, from, to string) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, ErrNotFound
	}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o Order
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, update, opts).Decode(&o)
	if err != nil {
		if translateFindErr(err) == ErrNotFound {
			return Order{}, ErrConflict
		}
		return Order{}, err
	}
	return o, nil
}

// OrderPatch is the set of fields staff may change on an existing order.
// Nil fields are left untouched.
type OrderPatch struct {
	Status           *string
	DeliveryFeeCents *int64
	TotalCents       *int64
}

// Patch applies a staff update to the order document and returns the
// updated state.
func (r *Orders) Patch(ctx context.Context, id string, p OrderPatch) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, ErrNotFound
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.DeliveryFeeCents != nil {
		set["delivery_fee_cents"] = *p.DeliveryFeeCents
	}
	if p.TotalCents != nil {
		set["total_cents"] = *p.TotalCents
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o Order
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&o); err != nil {
		return Order{}, translateFindErr(err)
	}
	return o, nil
}

// MarkPaid records the payment receipt while transitioning the order from
// pending to paid.
func (r *Orders) MarkPaid(ctx context.Context, id, provider, receiptID string) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"status":     OrderPaid,
		"provider":   provider,
		"receipt_id": receiptID,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o Order
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": OrderPending}, update, opts).Decode(&o)
	if err != nil {
		if translateFindErr(err) == ErrNotFound {
			return Order{}, ErrConflict
		}
		return Order{}, err
	}
	return o, nil
}
