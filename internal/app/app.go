package app

import (
	"context"
	"fmt"
	"net/http"

	"allowance-app-go/internal/config"
	"allowance-app-go/internal/db"
	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/internal/kvstore"
	"allowance-app-go/internal/observability"
	"allowance-app-go/internal/repository/inmemory"
	"allowance-app-go/internal/repository/localstore"
	postgreskv "allowance-app-go/internal/repository/postgres/kv"
	sqlitekv "allowance-app-go/internal/repository/sqlite/kv"
	"allowance-app-go/internal/sessiontoken"
	"allowance-app-go/internal/transport/httpserver"
	"allowance-app-go/internal/transport/httpserver/handler"
	authmw "allowance-app-go/internal/transport/httpserver/middleware"
	"allowance-app-go/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	store      kvstore.Store
	accounts   *accountsdomain.Service
	ledger     *ledgerdomain.Service
	router     http.Handler
	httpServer *http.Server
}

// New opens the configured store and wires the application on top of it.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	log.Info("app: opening store", "driver", cfg.Store.Driver)
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	application, err := NewWithStore(cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return application, nil
}

// NewWithStore wires services, router and server over an already open store.
// The App takes ownership of the store and closes it in Close.
func NewWithStore(cfg config.Config, store kvstore.Store, log logger.Logger) (*App, error) {
	var (
		metrics  *observability.Metrics
		gatherer prometheus.Gatherer
	)
	ledgerOpts := []ledgerdomain.Option{ledgerdomain.WithPasswordCost(cfg.Auth.PasswordCost)}
	accountsOpts := []accountsdomain.Option{accountsdomain.WithPasswordCost(cfg.Auth.PasswordCost)}
	if cfg.Metrics.Enabled {
		log.Info("app: initializing metrics")
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
		gatherer = registry
		ledgerOpts = append(ledgerOpts, ledgerdomain.WithRecorder(metrics))
		accountsOpts = append(accountsOpts, accountsdomain.WithRecorder(metrics))
	}

	log.Info("app: initializing services")
	ledgerService := ledgerdomain.NewService(localstore.NewLedgerRepository(store, log), ledgerOpts...)
	accountsService := accountsdomain.NewService(localstore.NewAccountsRepository(store, log), ledgerService, accountsOpts...)

	tokens, err := sessiontoken.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, httpserver.RouterDeps{
		Handlers: handler.New(accountsService, ledgerService, tokens, log),
		Auth:     authmw.NewSessionAuth(tokens, accountsService, log),
		Metrics:  metrics,
		Gatherer: gatherer,
	})

	log.Info("app: initializing http server", "port", cfg.HTTPPort)
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		accounts:   accountsService,
		ledger:     ledgerService,
		router:     router,
		httpServer: srv,
	}, nil
}

// OpenStore returns the key-value store selected by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg config.Config, log logger.Logger) (kvstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Warn("app: using in-memory store, data is lost on exit")
		return inmemory.NewKVStore(), nil
	case config.StoreSQLite:
		store, err := sqlitekv.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("app: sqlite store ready", "path", cfg.Store.SQLitePath)
		return store, nil
	case config.StorePostgres:
		gormDB, err := db.NewPostgres(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		store := postgreskv.NewPostgres(gormDB)
		log.Info("app: running migrations")
		if err := db.Migrate(ctx, gormDB, log); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Ledger() *ledgerdomain.Service {
	return a.ledger
}

func (a *App) Accounts() *accountsdomain.Service {
	return a.accounts
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
