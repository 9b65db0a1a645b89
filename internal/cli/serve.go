package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"allowance-app-go/internal/app"
	"allowance-app-go/internal/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	log := opts.log
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return err
	}

	srv := application.HTTPServer()
	log.Info("http: listening", "addr", srv.Addr)

	serverErrCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	var errs []error
	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			errs = append(errs, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		errs = append(errs, err)
	}

	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
		errs = append(errs, err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing: shutdown failed", "err", err)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		log.Info("app: stopped")
	}
	return errors.Join(errs...)
}
