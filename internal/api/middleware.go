package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// The gateway (or whatever sits in front) authenticates the caller and
// forwards the verified identity in these headers. The services trust
// them blindly; they are never reachable without the gateway in between.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
	HeaderRequestID = "X-Request-Id"

	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type Principal struct {
	Email string
	Role  string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type contextKey int

const (
	principalKey contextKey = iota
	requestIDKey
)

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequireUser rejects requests without a forwarded identity.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get(HeaderUserEmail)
		if email == "" {
			writeErrorEnvelope(w, r, http.StatusUnauthorized, "missing authenticated principal", nil)
			return
		}

		p := Principal{Email: email, Role: r.Header.Get(HeaderUserRole)}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	}
}

// RequireAdmin additionally demands the admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		if !p.IsAdmin() {
			writeErrorEnvelope(w, r, http.StatusForbidden, "admin role required", nil)
			return
		}
		next(w, r)
	})
}

// RequestID tags every request with an id, reusing the inbound header when
// the gateway already assigned one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// LogRequests emits one line per request with method, path, and duration.
func LogRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
