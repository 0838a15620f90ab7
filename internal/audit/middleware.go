package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// HTTPRecorder records HTTP requests after they have been handled.
type HTTPRecorder struct {
	Service Service
	OnError func(error)
}

// HTTPConfig customises how the audit entry is produced for a route.
type HTTPConfig struct {
	Action          string
	Resource        string
	ResourceIDParam string
}

// Middleware returns a chi-compatible middleware that records audit entries.
func (rec HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !rec.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, req)

			var metadata bson.M
			if cfg.ResourceIDParam != "" {
				if id := chi.URLParam(req, cfg.ResourceIDParam); id != "" {
					metadata = bson.M{cfg.ResourceIDParam: id}
				}
			}

			err := rec.Service.Record(req.Context(), actorFrom(req), cfg.Action, cfg.Resource, req, recorder.Status(), metadata)
			if err != nil && rec.OnError != nil {
				rec.OnError(err)
			}
		})
	}
}

func actorFrom(req *http.Request) Actor {
	userID, ok := common.UserID(req.Context())
	if !ok || userID == "" {
		return Actor{Kind: ActorKindAnonymous}
	}
	role, _ := common.Role(req.Context())
	return Actor{Kind: ActorKindUser, UserID: userID, Role: role}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
