package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/text2sql/text2sql/internal/observability"
)

type contextKey string

const identityKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware admits a request when its API key, sent as X-API-Key or as a
// bearer token, resolves to an identity, which it stores in the request
// context. Anything else gets a 401 with a WWW-Authenticate challenge.
func Middleware(logger *slog.Logger, validator APIKeyValidator) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := credentialFrom(r)
			if cred.key == "" {
				writeUnauthorized(w, r, "missing API key")
				return
			}

			identity, ok := validator.Validate(r.Context(), cred.key)
			if !ok {
				logger.WarnContext(r.Context(), "api key rejected",
					slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
					slog.String("source", cred.source),
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w, r, "invalid API key")
				return
			}
			logger.DebugContext(r.Context(), "api key accepted",
				slog.String("principal", identity.Principal),
				slog.String("source", cred.source),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole passes requests through when no identity is attached, which
// is the case when auth is disabled.
func RequireRole(r *http.Request, role string) error {
	identity, ok := IdentityFromContext(r.Context())
	if !ok || identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("principal %q is missing required role %q", identity.Principal, role)
}

type credential struct {
	key    string
	source string
}

// credentialFrom prefers X-API-Key over the Authorization header. The
// bearer scheme name is matched case-insensitively.
func credentialFrom(r *http.Request) credential {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return credential{key: key, source: "x-api-key"}
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return credential{}
	}
	return credential{key: strings.TrimSpace(token), source: "bearer"}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="text2sql"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": "UNAUTHORIZED",
		"message":    message,
		"retryable":  false,
		"trace_id":   observability.TraceIDFromContext(r.Context()),
	})
}
