package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// Roles known to the application.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User is the account document. Customers carry loyalty state; staff carry
// an employee identifier. Monetary fields are minor units.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Name               string             `bson:"name"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"password_hash"`
	Role               string             `bson:"role"`
	Address            string             `bson:"address,omitempty"`
	LoyaltyTier        string             `bson:"loyalty_tier,omitempty"`
	TotalSpentCents    int64              `bson:"total_spent_cents"`
	LoyaltyCreditCents int64              `bson:"loyalty_credit_cents"`
	LoyaltyPoints      int64              `bson:"loyalty_points"`
	EmployeeID         string             `bson:"employee_id,omitempty"`
	IsActive           bool               `bson:"is_active"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

// IsCustomer reports whether the user participates in the loyalty program.
func (u User) IsCustomer() bool { return u.Role == RoleCustomer }

// CanManagePlants reports whether the user may mutate the catalog.
func (u User) CanManagePlants() bool { return u.Role == RoleStaff || u.Role == RoleAdmin }

// Users persists accounts.
type Users struct {
	col *mongo.Collection
}

// NewUsers builds the users repository.
func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection(usersCollection)}
}

func uniqueEmailIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// Insert stores a new user; a duplicate email yields ErrDuplicate.
func (r *Users) Insert(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return User{}, translateWriteErr(err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

// ByEmail fetches a user by email.
func (r *Users) ByEmail(ctx context.Context, email string) (User, error) {
	var u User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return User{}, translateFindErr(err)
	}
	return u, nil
}

// ByID fetches a user by hex identifier.
func (r *Users) ByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	var u User
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return User{}, translateFindErr(err)
	}
	return u, nil
}

// LoyaltyAccrual is the delta recorded against a customer after a paid
// order.
type LoyaltyAccrual struct {
	SpentCents  int64
	CreditCents int64
	Points      int64
	Tier        string
}

// RecordPurchase increments the loyalty counters and sets the (possibly
// unchanged) tier in one update.
func (r *Users) RecordPurchase(ctx context.Context, id string, a LoyaltyAccrual) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	update := bson.M{
		"$inc": bson.M{
			"total_spent_cents":    a.SpentCents,
			"loyalty_credit_cents": a.CreditCents,
			"loyalty_points":       a.Points,
		},
		"$set": bson.M{
			"loyalty_tier": a.Tier,
			"updated_at":   time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&u); err != nil {
		return User{}, translateFindErr(err)
	}
	return u, nil
}
