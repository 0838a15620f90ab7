package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "audit_logs"

// AuditLog records a single staff or admin action.
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorKind string             `bson:"actor_kind" json:"actorKind"`
	ActorID   string             `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	ActorRole string             `bson:"actor_role,omitempty" json:"actorRole,omitempty"`
	Action    string             `bson:"action" json:"action"`
	Resource  string             `bson:"resource" json:"resource"`
	Method    string             `bson:"method" json:"method"`
	Path      string             `bson:"path" json:"path"`
	Status    int                `bson:"status" json:"status"`
	IP        string             `bson:"ip,omitempty" json:"ip,omitempty"`
	RequestID string             `bson:"request_id,omitempty" json:"requestId,omitempty"`
	Metadata  bson.M             `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// AuditLogs persists the audit trail.
type AuditLogs struct {
	col *mongo.Collection
}

// NewAuditLogs builds the audit log repository.
func NewAuditLogs(db *mongo.Database) *AuditLogs {
	return &AuditLogs{col: db.Collection(auditCollection)}
}

// Insert appends an entry to the trail.
func (r *AuditLogs) Insert(ctx context.Context, entry AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, entry)
	return err
}

// List returns the newest entries first.
func (r *AuditLogs) List(ctx context.Context, limit, offset int) ([]AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	logs := []AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
