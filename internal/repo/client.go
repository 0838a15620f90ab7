package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client wraps the MongoDB database handle shared by all repositories.
type Client struct {
	DB *mongo.Database
}

// NewClient connects to MongoDB and selects the given database.
func NewClient(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

// Ping verifies the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the application relies on: unique user
// emails, one cart per user, and the order listing sort.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.DB.Collection(usersCollection).Indexes().CreateOne(ctx, uniqueEmailIndex())
	if err != nil {
		return err
	}
	_, err = c.DB.Collection(cartsCollection).Indexes().CreateOne(ctx, uniqueCartUserIndex())
	if err != nil {
		return err
	}
	_, err = c.DB.Collection(ordersCollection).Indexes().CreateOne(ctx, orderListingIndex())
	return err
}
