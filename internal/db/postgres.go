package db

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"allowance-app-go/internal/config"
	"allowance-app-go/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

func poolFor(cfg config.DBConfig) poolSettings {
	return poolSettings{
		maxOpen:     cmp.Or(cfg.MaxOpenConns, 10),
		maxIdle:     cmp.Or(cfg.MaxIdleConns, 5),
		maxLifetime: cmp.Or(cfg.ConnMaxLifetime, 30*time.Minute),
	}
}

// NewPostgres opens a pooled gorm connection and verifies it with a ping
// before returning.
func NewPostgres(ctx context.Context, cfg config.DBConfig, log logger.Logger) (*gorm.DB, error) {
	target := []any{"host", cfg.Host, "port", cfg.Port, "dbname", cfg.Name}
	if cfg.DSN != "" {
		target = []any{"source", "dsn"}
	}
	log.Info("db: opening postgres", target...)

	conn, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}

	pool := poolFor(cfg)
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxLifetime(pool.maxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info("db: postgres ready", "max_open_conns", pool.maxOpen)
	return conn, nil
}
