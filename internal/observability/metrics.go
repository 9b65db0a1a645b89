package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "allowance"

// Metrics satisfies both the ledger and accounts recorders and exposes HTTP
// request instrumentation.
type Metrics struct {
	operations      *prometheus.CounterVec
	balanceMoves    *prometheus.CounterVec
	balanceAmount   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger write operations by outcome.",
		}, []string{"operation", "outcome"}),
		balanceMoves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "balance_changes_total",
			Help:      "Committed balance movements by kind.",
		}, []string{"kind"}),
		balanceAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "balance_change_amount_total",
			Help:      "Absolute money moved by kind.",
		}, []string{"kind"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounts",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveOperation(operation string, err error) {
	m.operations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveBalanceChange(kind string, amount float64) {
	if amount < 0 {
		amount = -amount
	}
	m.balanceMoves.WithLabelValues(kind).Inc()
	m.balanceAmount.WithLabelValues(kind).Add(amount)
}

func (m *Metrics) ObserveLogin(role string, err error) {
	m.logins.WithLabelValues(role, outcome(err)).Inc()
}

// Middleware records request latency labelled with the matched chi route
// pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledgerdomain.ErrValidation), errors.Is(err, accountsdomain.ErrValidation):
		return "invalid"
	case errors.Is(err, ledgerdomain.ErrInvalidState), errors.Is(err, ledgerdomain.ErrInsufficientBalance):
		return "rejected"
	case errors.Is(err, accountsdomain.ErrInvalidCredentials):
		return "denied"
	default:
		return "error"
	}
}
