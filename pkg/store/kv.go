// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/fxamacker/cbor/v2"
)

// Keys of the values the application persists
const (
	KeySettings = "irrigation_settings"
	KeyForecast = "forecast"
)

const (
	upsertSQL = `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectSQL = `SELECT value FROM kv WHERE key=?`
)

// Times keep their offset so forecast dates round-trip unchanged
var encMode = mustEncMode(cbor.EncOptions{Time: cbor.TimeRFC3339Nano})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// SQLiteStore keeps CBOR blobs in the kv table
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an initialized database
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Put encodes v and upserts it under key
func (s *SQLiteStore) Put(ctx context.Context, key string, v any) error {
	blob, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, blob, s.now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Get decodes the value stored under key into v.
// It reports false, without error, when the key is absent.
func (s *SQLiteStore) Get(ctx context.Context, key string, v any) (bool, error) {
	var blob []byte
	if err := s.db.QueryRowContext(ctx, selectSQL, key).Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := cbor.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// LoadSettings returns the saved settings, reporting false if none were saved
func (s *SQLiteStore) LoadSettings(ctx context.Context) (irrigation.Settings, bool, error) {
	var settings irrigation.Settings
	ok, err := s.Get(ctx, KeySettings, &settings)
	if err != nil || !ok {
		return irrigation.Settings{}, false, err
	}
	return settings, true, nil
}

// SaveSettings replaces the saved settings
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings irrigation.Settings) error {
	return s.Put(ctx, KeySettings, settings)
}

// LoadForecast returns the last fetched forecast, reporting false if none was saved
func (s *SQLiteStore) LoadForecast(ctx context.Context) ([]weather.ForecastDay, bool, error) {
	var days []weather.ForecastDay
	ok, err := s.Get(ctx, KeyForecast, &days)
	if err != nil || !ok {
		return nil, false, err
	}
	return days, true, nil
}

// SaveForecast replaces the cached forecast
func (s *SQLiteStore) SaveForecast(ctx context.Context, days []weather.ForecastDay) error {
	return s.Put(ctx, KeyForecast, days)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
