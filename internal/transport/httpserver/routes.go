package httpserver

import (
	"net/http"
	"time"

	"allowance-app-go/internal/config"
	accountsdomain "allowance-app-go/internal/domain/accounts"
	"allowance-app-go/internal/observability"
	"allowance-app-go/internal/transport/httpserver/handler"
	authmw "allowance-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Handlers *handler.Handlers
	Auth     *authmw.SessionAuth
	// Metrics and Gatherer are optional; /metrics is mounted only when both
	// are set.
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg config.Config, deps RouterDeps) http.Handler {
	handlers := deps.Handlers

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	if deps.Metrics != nil && deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Post("/accounts", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Middleware)

			r.Post("/auth/logout", handlers.Logout)
			r.Get("/auth/session", handlers.CurrentSession)

			r.Get("/children/{child_id}", handlers.GetChild)
			r.Get("/children/{child_id}/tasks", handlers.ListTasks)
			r.Get("/children/{child_id}/money-requests", handlers.ListMoneyRequests)
			r.Post("/children/{child_id}/money-requests", handlers.CreateMoneyRequest)
			r.Get("/children/{child_id}/transactions", handlers.ListTransactions)

			r.Post("/tasks/{task_id}/complete", handlers.CompleteTask)
			r.Patch("/tasks/{task_id}", handlers.UpdateTask)

			r.Patch("/money-requests/{request_id}", handlers.UpdateMoneyRequest)
			r.Post("/money-requests/{request_id}/messages", handlers.AddRequestMessage)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(accountsdomain.RoleParent))

				r.Get("/overview", handlers.Overview)
				r.Get("/children", handlers.ListChildren)
				r.Post("/children", handlers.CreateChild)
				r.Patch("/children/{child_id}", handlers.UpdateChild)
				r.Post("/children/{child_id}/balance", handlers.AddBalance)
				r.Post("/children/{child_id}/allowance/release", handlers.ReleaseAllowance)
				r.Post("/children/{child_id}/tasks", handlers.CreateTask)

				r.Post("/tasks/{task_id}/approve", handlers.ApproveTask)

				r.Post("/money-requests/{request_id}/approve", handlers.ApproveMoneyRequest)
				r.Post("/money-requests/{request_id}/reject", handlers.RejectMoneyRequest)
			})
		})
	})

	return r
}
