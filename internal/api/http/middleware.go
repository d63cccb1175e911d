package http

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

type principalKey struct{}

// PrincipalFrom returns the authenticated caller stored by the auth middleware.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogging tags each request with an id and logs its outcome. Panics
// are turned into 500s.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithContext(r.Context(), "request_id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(ctx, "Handler panicked", "panic", p, "path", r.URL.Path)
				writeJSON(rec, http.StatusInternalServerError, errorBody(CodeInternal, "internal error"))
			}
			logger.FromContext(ctx).Info("HTTP request",
				"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// Authenticator checks the bearer token and the caller's role against the
// matched route's entry in config.EndpointRoles.
type Authenticator struct {
	tokens security.TokenManager
	roles  map[string][]domain.Role
}

func NewAuthenticator(tokens security.TokenManager) *Authenticator {
	return &Authenticator{tokens: tokens, roles: config.EndpointRoles}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var name string
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		allowed, protected := a.roles[name]
		if !protected {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody(CodeUnauthenticated, "authorization token is not provided"))
			return
		}
		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody(CodeUnauthenticated, err.Error()))
			return
		}
		p := claims.Principal()
		if !slices.Contains(allowed, p.Role) {
			writeJSON(w, http.StatusForbidden, errorBody(CodeForbidden, "role "+string(p.Role)+" may not call "+name))
			return
		}

		ctx := withPrincipal(r.Context(), p)
		ctx = logger.WithContext(ctx, "user_id", p.UserID, "scope", p.Scope().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:]), true
	}
	return "", false
}
