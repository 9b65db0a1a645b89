package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	"allowance-app-go/internal/sessiontoken"
	"allowance-app-go/pkg/logger"
)

type fakeSessions struct {
	session *accountsdomain.Session
	err     error
}

func (f fakeSessions) CurrentSession(ctx context.Context) (*accountsdomain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, accountsdomain.ErrNoSession
	}
	session := *f.session
	return &session, nil
}

func newIssuer(t *testing.T) *sessiontoken.Issuer {
	t.Helper()
	issuer, err := sessiontoken.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func issue(t *testing.T, issuer *sessiontoken.Issuer, session accountsdomain.Session) string {
	t.Helper()
	token, err := issuer.Issue(session)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func serve(handler http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth(t *testing.T) {
	issuer := newIssuer(t)
	log := logger.New(io.Discard, slog.LevelError, "text")
	now := time.Now().UTC().Truncate(time.Second)

	parent := accountsdomain.Session{ID: "acc-1", Name: "Maria", Role: accountsdomain.RoleParent, Email: "a@b.com", CreatedAt: now}
	child := accountsdomain.Session{ID: "4", Name: "Ana", Role: accountsdomain.RoleChild, ChildID: 4, CreatedAt: now}
	parentToken := issue(t, issuer, parent)

	tests := []struct {
		name       string
		sessions   fakeSessions
		header     string
		wantStatus int
	}{
		{name: "valid", sessions: fakeSessions{session: &parent}, header: "Bearer " + parentToken, wantStatus: http.StatusOK},
		{name: "lowercase scheme", sessions: fakeSessions{session: &parent}, header: "bearer " + parentToken, wantStatus: http.StatusOK},
		{name: "missing header", sessions: fakeSessions{session: &parent}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", sessions: fakeSessions{session: &parent}, header: "Basic " + parentToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", sessions: fakeSessions{session: &parent}, header: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "signed out", sessions: fakeSessions{}, header: "Bearer " + parentToken, wantStatus: http.StatusUnauthorized},
		{name: "replaced session", sessions: fakeSessions{session: &child}, header: "Bearer " + parentToken, wantStatus: http.StatusUnauthorized},
		{name: "store failure", sessions: fakeSessions{err: errors.New("disk")}, header: "Bearer " + parentToken, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			auth := NewSessionAuth(issuer, tt.sessions, log)

			rec := serve(auth.Middleware(next), tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && (got.ID != "acc-1" || !got.IsParent() || got.Email != "a@b.com") {
				t.Fatalf("unexpected identity %+v", got)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireRole(accountsdomain.RoleParent)(next)

	rec := serve(guarded, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}

	for role, want := range map[accountsdomain.Role]int{
		accountsdomain.RoleParent: http.StatusOK,
		accountsdomain.RoleChild:  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), Identity{ID: "x", Role: role}))
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("role %s: expected %d, got %d", role, want, rec.Code)
		}
	}
}
