package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindUser represents an authenticated user.
	ActorKindUser ActorKind = "user"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents unauthenticated actors.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind   ActorKind
	UserID string
	Role   string
}

// Store defines the persistence operations required for auditing.
type Store interface {
	Insert(ctx context.Context, entry repo.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]repo.AuditLog, error)
}

// Service persists an audit trail of staff and admin actions.
type Service struct {
	Store   Store
	Enabled bool
}

// Record persists one audit entry when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resource string, req *http.Request, status int, metadata bson.M) error {
	if !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RoutePatternFromContext(req.Context())
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	if status == 0 {
		status = http.StatusOK
	}

	return s.Store.Insert(ctx, repo.AuditLog{
		ActorKind: string(normalizeActorKind(actor.Kind)),
		ActorID:   strings.TrimSpace(actor.UserID),
		ActorRole: strings.TrimSpace(actor.Role),
		Action:    buildAction(action, req.Method, route),
		Resource:  buildResource(resource, route),
		Method:    req.Method,
		Path:      req.URL.Path,
		Status:    status,
		IP:        common.ClientIP(req),
		RequestID: strings.TrimSpace(req.Header.Get("X-Request-ID")),
		Metadata:  metadata,
	})
}

func buildAction(action, method, route string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed != "" {
		return trimmed
	}
	target := route
	if target == "" {
		target = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + target
}

func buildResource(resource, route string) string {
	trimmed := strings.TrimSpace(resource)
	if trimmed != "" {
		return trimmed
	}
	route = strings.Trim(route, " ")
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		return strings.Join(segments[2:], ".")
	}
	return strings.ReplaceAll(strings.Trim(route, "/"), "/", ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindUser, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}
