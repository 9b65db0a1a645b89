package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperationOutcomes(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveOperation("approve_money_request", nil)
	metrics.ObserveOperation("approve_money_request", fmt.Errorf("approve: %w", ledgerdomain.ErrInsufficientBalance))
	metrics.ObserveOperation("add_child", fmt.Errorf("%w: first name is required", ledgerdomain.ErrValidation))
	metrics.ObserveOperation("add_child", errors.New("disk full"))

	tests := []struct {
		operation string
		outcome   string
		want      float64
	}{
		{"approve_money_request", "ok", 1},
		{"approve_money_request", "rejected", 1},
		{"add_child", "invalid", 1},
		{"add_child", "error", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(metrics.operations.WithLabelValues(tt.operation, tt.outcome))
		if got != tt.want {
			t.Fatalf("%s/%s: expected %v, got %v", tt.operation, tt.outcome, tt.want, got)
		}
	}
}

func TestObserveBalanceChangeUsesAbsoluteAmount(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveBalanceChange("spending", -12.5)
	metrics.ObserveBalanceChange("spending", -2.5)
	metrics.ObserveBalanceChange("deposit", 10)

	if got := testutil.ToFloat64(metrics.balanceAmount.WithLabelValues("spending")); got != 15 {
		t.Fatalf("expected 15 spent, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.balanceMoves.WithLabelValues("spending")); got != 2 {
		t.Fatalf("expected 2 spending moves, got %v", got)
	}
}

func TestObserveLogin(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveLogin("child", accountsdomain.ErrInvalidCredentials)
	metrics.ObserveLogin("parent", nil)

	if got := testutil.ToFloat64(metrics.logins.WithLabelValues("child", "denied")); got != 1 {
		t.Fatalf("expected one denied child login, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.logins.WithLabelValues("parent", "ok")); got != 1 {
		t.Fatalf("expected one parent login, got %v", got)
	}
}

func TestMiddlewareLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/api/children/{child_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/children/42", nil))

	if got := testutil.CollectAndCount(metrics.requestDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() != "allowance_http_request_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["route"] == "/api/children/{child_id}" && labels["status"] == "404" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected series labelled with route pattern")
	}
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{ServiceName: "allowance"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected noop shutdown, got %v", err)
	}
}
