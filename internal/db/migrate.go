package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"allowance-app-go/pkg/logger"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDirName = "migrations"

type schemaMigration struct {
	Filename  string    `gorm:"column:filename;primaryKey"`
	AppliedAt time.Time `gorm:"column:applied_at;not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in filename order. Each file runs in its own
// transaction together with its bookkeeping row.
func Migrate(ctx context.Context, db *gorm.DB, log logger.Logger) error {
	applied, err := migrate(db.WithContext(ctx), migrationsFS, migrationsDirName)
	if err != nil {
		return err
	}
	for _, name := range applied {
		log.Info("db: migration applied", "file", name)
	}
	return nil
}

func migrate(db *gorm.DB, source fs.FS, dir string) ([]string, error) {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		filename   TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`).Error; err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var done []schemaMigration
	if err := db.Find(&done).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	seen := make(map[string]bool, len(done))
	for _, m := range done {
		seen[m.Filename] = true
	}

	files, err := migrationFiles(source, dir)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		if seen[name] {
			continue
		}
		contents, err := fs.ReadFile(source, path.Join(dir, name))
		if err != nil {
			return applied, err
		}
		statement := strings.TrimSpace(string(contents))
		if statement == "" {
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			return tx.Create(&schemaMigration{Filename: name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}
	return applied, nil
}

func migrationFiles(source fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(source, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}
