//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"allowance-app-go/internal/app"
	"allowance-app-go/internal/config"
	"allowance-app-go/internal/db"
	"allowance-app-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	server *httptest.Server
	app    *app.App
	cfg    config.Config
	log    logger.Logger
}

// testConfig runs against Postgres when E2E_DB_DSN is set and against a
// throwaway SQLite file otherwise.
func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.TokenSecret = "e2e-secret"
	cfg.Auth.PasswordCost = 4
	cfg.Metrics.Enabled = true

	if dsn := os.Getenv("E2E_DB_DSN"); dsn != "" {
		cfg.Store.Driver = config.StorePostgres
		cfg.DB = config.DBConfig{DSN: dsn}
		return cfg
	}
	cfg.Store.Driver = config.StoreSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "allowance.db")
	return cfg
}

func setupE2E(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	log := logger.New(io.Discard, slog.LevelError, "text")
	if cfg.Store.Driver == config.StorePostgres {
		cleanDB(t, cfg, log)
	}

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("app init: %v", err)
	}

	return &testEnv{
		server: httptest.NewServer(application.Handler()),
		app:    application,
		cfg:    cfg,
		log:    log,
	}
}

func (e *testEnv) Close() {
	e.server.Close()
	_ = e.app.Close()
}

func cleanDB(t *testing.T, cfg config.Config, log logger.Logger) {
	t.Helper()

	dbConn, err := db.NewPostgres(context.Background(), cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := db.Migrate(context.Background(), dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := dbConn.Exec("TRUNCATE TABLE kv_entries").Error; err != nil {
		t.Fatalf("clean db: %v", err)
	}
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, string(body))
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, string(body))
	}
	return out
}

type loginResponse struct {
	Token string `json:"token"`
}

type childResponse struct {
	ID              int64           `json:"id"`
	Balance         decimal.Decimal `json:"balance"`
	TasksCompleted  int             `json:"tasks_completed"`
	PendingRequests int             `json:"pending_requests"`
}

type statusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func login(t *testing.T, client *http.Client, baseURL string, payload map[string]string) string {
	t.Helper()
	resp, body := requestJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", "", payload)
	expectStatus(t, resp, body, http.StatusOK)
	return decode[loginResponse](t, body).Token
}

func parentLogin(t *testing.T, client *http.Client, baseURL string) string {
	return login(t, client, baseURL, map[string]string{
		"identifier": "maria@example.com", "password": "secret", "role": "parent",
	})
}

func TestE2EHealthAndMetrics(t *testing.T) {
	env := setupE2E(t, testConfig(t))
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health", "", nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/metrics", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("expected runtime collectors in metrics output")
	}
}

func TestE2EAllowanceFlow(t *testing.T) {
	env := setupE2E(t, testConfig(t))
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL

	resp, body := requestJSON(t, client, http.MethodPost, base+"/api/accounts", "", map[string]string{
		"name": "Maria", "email": "maria@example.com", "password": "secret", "confirm_password": "secret",
	})
	expectStatus(t, resp, body, http.StatusCreated)

	parent := parentLogin(t, client, base)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/children", parent, map[string]string{
		"first_name": "Ana", "last_name": "Silva", "ticket_number": "T1",
		"birth_date": "2015-03-01", "password": "ana123", "monthly_allowance": "20",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	if child := decode[childResponse](t, body); child.ID != 1 {
		t.Fatalf("expected first child id 1, got %d", child.ID)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/children/1/allowance/release", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/children/1/tasks", parent, map[string]string{
		"title": "Dishes", "reward": "2.50",
	})
	expectStatus(t, resp, body, http.StatusCreated)

	kid := login(t, client, base, map[string]string{
		"identifier": "Ana Silva", "ticket_number": "T1", "password": "ana123", "role": "child",
	})

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/tasks/1/complete", kid, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/children/1/money-requests", kid, map[string]string{
		"amount": "12.25", "description": "Comic",
	})
	expectStatus(t, resp, body, http.StatusCreated)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/money-requests/1/messages", kid, map[string]string{
		"text": "It's for school",
	})
	expectStatus(t, resp, body, http.StatusCreated)

	parent = parentLogin(t, client, base)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/money-requests/1/messages", parent, map[string]string{
		"text": "OK",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	if !strings.Contains(string(body), `"sender":"parent"`) {
		t.Fatalf("expected parent sender, got %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/tasks/1/approve", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/money-requests/1/approve", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if decided := decode[statusResponse](t, body); decided.Status != "approved" {
		t.Fatalf("expected approved, got %+v", decided)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/children/1", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)
	child := decode[childResponse](t, body)
	if !child.Balance.Equal(decimal.RequireFromString("10.25")) || child.TasksCompleted != 1 || child.PendingRequests != 0 {
		t.Fatalf("unexpected child %+v", child)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/children/1/money-requests", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)
	requests := decode[[]struct {
		Messages []struct {
			Sender string `json:"sender"`
		} `json:"messages"`
	}](t, body)
	if len(requests) != 1 || len(requests[0].Messages) != 2 {
		t.Fatalf("expected one request with two messages, got %+v", requests)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/children/1/transactions?format=csv", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and three rows, got %q", string(body))
	}
	if !strings.HasSuffix(lines[3], ",-12.25,10.25") {
		t.Fatalf("unexpected spending row %q", lines[3])
	}
}

func TestE2EDataSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	env := setupE2E(t, cfg)

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/accounts", "", map[string]string{
		"name": "Maria", "email": "maria@example.com", "password": "secret", "confirm_password": "secret",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	parent := parentLogin(t, client, env.server.URL)

	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/children", parent, map[string]string{
		"first_name": "Ana", "ticket_number": "T1", "birth_date": "2015-03-01", "password": "ana123",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/children/1/balance", parent, map[string]string{
		"amount": "3.10",
	})
	expectStatus(t, resp, body, http.StatusOK)
	env.Close()

	application, err := app.New(context.Background(), cfg, env.log)
	if err != nil {
		t.Fatalf("reopen app: %v", err)
	}
	defer application.Close()
	server := httptest.NewServer(application.Handler())
	defer server.Close()

	// The stored session and its token survive the restart.
	resp, body = requestJSON(t, client, http.MethodGet, server.URL+"/api/children/1", parent, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if child := decode[childResponse](t, body); !child.Balance.Equal(decimal.RequireFromString("3.10")) {
		t.Fatalf("expected persisted balance, got %s", child.Balance)
	}
}
