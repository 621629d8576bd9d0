package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type slotModel struct {
	bun.BaseModel `bun:"table:session_slots"`

	Slot      string    `bun:"slot,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLKV stores session slots as rows of the session_slots table.
type SQLKV struct {
	db *bun.DB
}

// NewSQLKV wraps db and creates the session_slots table if it does not exist.
func NewSQLKV(ctx context.Context, db *bun.DB) (*SQLKV, error) {
	if db == nil {
		return nil, errors.New("bun db required")
	}
	_, err := db.NewCreateTable().
		Model((*slotModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, kvError("SESSION_KV_MIGRATE", "create table for", "session_slots", err)
	}
	return &SQLKV{db: db}, nil
}

// OpenSQLite opens dsn through the sqlite shim driver and returns a ready SQLKV.
// The pool is limited to one connection so ":memory:" databases stay shared.
func OpenSQLite(ctx context.Context, dsn string) (*SQLKV, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, kvError("SESSION_KV_OPEN", "open", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)

	kv, err := NewSQLKV(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return kv, nil
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var row slotModel
	err := s.db.NewSelect().
		Model(&row).
		Where("slot = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, kvError("SESSION_KV_GET", "get", key, err)
	}
	return row.Value, true, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	row := &slotModel{
		Slot:      key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (slot) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return kvError("SESSION_KV_SET", "set", key, err)
	}
	return nil
}

func (s *SQLKV) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*slotModel)(nil)).
		Where("slot = ?", key).
		Exec(ctx)
	if err != nil {
		return kvError("SESSION_KV_REMOVE", "remove", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
