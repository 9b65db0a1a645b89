package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	"allowance-app-go/internal/sessiontoken"
	"allowance-app-go/pkg/logger"
)

type contextKey int

const (
	identityKey contextKey = iota
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	ID      string
	Name    string
	Email   string
	Role    accountsdomain.Role
	ChildID int64
}

func (i Identity) IsParent() bool {
	return i.Role == accountsdomain.RoleParent
}

type TokenParser interface {
	Parse(raw string) (*sessiontoken.Claims, error)
}

type SessionSource interface {
	CurrentSession(ctx context.Context) (*accountsdomain.Session, error)
}

// SessionAuth accepts a bearer token only while it belongs to the stored
// current session, so logging out or logging in as someone else revokes it.
type SessionAuth struct {
	tokens   TokenParser
	sessions SessionSource
	log      logger.Logger
}

func NewSessionAuth(tokens TokenParser, sessions SessionSource, log logger.Logger) *SessionAuth {
	return &SessionAuth{
		tokens:   tokens,
		sessions: sessions,
		log:      log,
	}
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			a.log.BusinessError("auth: token rejected", err)
			unauthorized(w)
			return
		}

		session, err := a.sessions.CurrentSession(r.Context())
		if err != nil {
			if errors.Is(err, accountsdomain.ErrNoSession) {
				a.log.BusinessError("auth: no active session", err, "subject", claims.Subject)
				unauthorized(w)
				return
			}
			a.log.InternalError("auth: load session failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if !claims.Matches(*session) {
			a.log.BusinessError("auth: token does not match current session", errStaleToken, "subject", claims.Subject)
			unauthorized(w)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{
			ID:      session.ID,
			Name:    session.Name,
			Email:   session.Email,
			Role:    session.Role,
			ChildID: session.ChildID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errStaleToken = errors.New("stale session token")

// RequireRole rejects authenticated callers whose role is not role.
func RequireRole(role accountsdomain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if identity.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, false
	}
	return identity, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
