package kv

import (
	"context"
	"errors"
	"time"

	"allowance-app-go/internal/kvstore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const writerLockName = "allowance-kv-writer"

type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, s.db, key)
}

func (s *PostgresStore) Update(ctx context.Context, fn func(kvstore.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", writerLockName).Error; err != nil {
			return err
		}
		return fn(&postgresTx{db: tx})
	})
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type postgresTx struct {
	db *gorm.DB
}

func (t *postgresTx) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, t.db, key)
}

func (t *postgresTx) Put(ctx context.Context, key string, value []byte) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (t *postgresTx) Delete(ctx context.Context, key string) error {
	return t.db.WithContext(ctx).Delete(&Entry{}, "entry_key = ?", key).Error
}

func getEntry(ctx context.Context, db *gorm.DB, key string) ([]byte, error) {
	var entry Entry
	if err := db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kvstore.ErrNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}
