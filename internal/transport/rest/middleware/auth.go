package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"livepoll/internal/model"
)

type contextKey string

const (
	StaffKey       contextKey = "staff"
	ParticipantKey contextKey = "participant"
)

// AnonymousTokenHeader carries the opaque participant token on REST calls
const AnonymousTokenHeader = "X-Anonymous-Token"

// StaffAuthenticator validates staff bearer tokens
type StaffAuthenticator interface {
	ValidateStaffToken(ctx context.Context, token string) (*model.StaffClaims, error)
}

// TokenResolver resolves anonymous participant tokens
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.Participant, bool, error)
}

// AuthMiddleware provides staff and anonymous authentication middleware
type AuthMiddleware struct {
	auth   StaffAuthenticator
	tokens TokenResolver
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth StaffAuthenticator, tokens TokenResolver) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, tokens: tokens}
}

// RequireStaff validates the staff JWT from the Authorization header
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := m.auth.ValidateStaffToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), StaffKey, claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects staff whose role is not listed. It must run after RequireStaff.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetStaff(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// RequireAnonymous resolves the participant token and requires an active session
func (m *AuthMiddleware) RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AnonymousTokenHeader)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "anonymous token required")
			return
		}

		p, _, err := m.tokens.Resolve(r.Context(), token)
		if err != nil {
			slog.Error("anonymous token lookup failed", "err", err)
			writeError(w, http.StatusUnauthorized, "authentication error")
			return
		}
		if p == nil {
			writeError(w, http.StatusUnauthorized, "invalid anonymous token")
			return
		}
		if !p.SessionActive {
			writeError(w, http.StatusForbidden, "session is no longer active")
			return
		}

		ctx := context.WithValue(r.Context(), ParticipantKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetStaff extracts the staff identity from context
func GetStaff(ctx context.Context) (model.StaffIdentity, bool) {
	id, ok := ctx.Value(StaffKey).(model.StaffIdentity)
	return id, ok
}

// GetParticipant extracts the anonymous participant from context
func GetParticipant(ctx context.Context) *model.Participant {
	if v, ok := ctx.Value(ParticipantKey).(*model.Participant); ok {
		return v
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
