// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/fxamacker/cbor/v2"
)

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool { return f(v) }

func sampleSettings() irrigation.Settings {
	return irrigation.Settings{
		CropName:          "Domates",
		FrequencyDays:     1,
		WateringTime:      "21:00",
		DurationSeconds:   45,
		HumidityThreshold: 550,
		UserOverridden:    true,
	}
}

func TestSaveSettings_UpsertsCBORBlob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("TRT", 3*3600))
	s := NewSQLiteStore(db)
	s.now = func() time.Time { return fixed }

	want := sampleSettings()
	decodesToSettings := sqlmockArgumentFunc(func(v driver.Value) bool {
		blob, ok := v.([]byte)
		if !ok {
			return false
		}
		var got irrigation.Settings
		return cbor.Unmarshal(blob, &got) == nil && got == want
	})
	isUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Equal(fixed) && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs(KeySettings, decodesToSettings, isUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SaveSettings(context.Background(), want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveSettings_PropagatesExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).WillReturnError(errors.New("disk full"))

	err = NewSQLiteStore(db).SaveSettings(context.Background(), sampleSettings())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("SaveSettings() error = %v, want disk full", err)
	}
}

func TestLoadSettings(t *testing.T) {
	blob, err := cbor.Marshal(sampleSettings())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		queryErr error
		wantOK   bool
		wantErr  string
	}{
		{
			name:   "found",
			rows:   sqlmock.NewRows([]string{"value"}).AddRow(blob),
			wantOK: true,
		},
		{
			name:   "absent",
			rows:   sqlmock.NewRows([]string{"value"}),
			wantOK: false,
		},
		{
			name:    "corrupt blob",
			rows:    sqlmock.NewRows([]string{"value"}).AddRow([]byte{0xff, 0x00}),
			wantErr: "decode " + KeySettings,
		},
		{
			name:     "query failure",
			queryErr: errors.New("database is locked"),
			wantErr:  "database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New(): %v", err)
			}
			defer db.Close()

			exp := mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv")).WithArgs(KeySettings)
			if tt.queryErr != nil {
				exp.WillReturnError(tt.queryErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, ok, err := NewSQLiteStore(db).LoadSettings(context.Background())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadSettings() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadSettings() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("LoadSettings() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != sampleSettings() {
				t.Errorf("LoadSettings() = %+v", got)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSQLiteStore_FileRoundTrip(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "irrigator.db"))
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	s := NewSQLiteStore(db)
	defer s.Close()
	ctx := context.Background()

	if _, ok, err := s.LoadSettings(ctx); err != nil || ok {
		t.Fatalf("empty store LoadSettings() = %v, %v", ok, err)
	}

	if err := s.SaveSettings(ctx, sampleSettings()); err != nil {
		t.Fatal(err)
	}
	updated := sampleSettings()
	updated.FrequencyDays = 3
	if err := s.SaveSettings(ctx, updated); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.LoadSettings(ctx)
	if err != nil || !ok || got != updated {
		t.Errorf("LoadSettings() = %+v, %v, %v", got, ok, err)
	}

	ist := time.FixedZone("+03", 3*3600)
	forecast := []weather.ForecastDay{
		{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, ist), TempMaxC: 30.5, TempMinC: 15, RainProbability: 10, RainMm: 0.2},
		{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, ist), TempMaxC: 28, TempMinC: 14.5, RainProbability: 70, RainMm: 6},
	}
	if err := s.SaveForecast(ctx, forecast); err != nil {
		t.Fatal(err)
	}
	days, ok, err := s.LoadForecast(ctx)
	if err != nil || !ok || len(days) != 2 {
		t.Fatalf("LoadForecast() = %v, %v, %v", days, ok, err)
	}
	for i := range days {
		if !days[i].Date.Equal(forecast[i].Date) {
			t.Errorf("day %d date = %v, want %v", i, days[i].Date, forecast[i].Date)
		}
		days[i].Date = forecast[i].Date
	}
	if !reflect.DeepEqual(days, forecast) {
		t.Errorf("LoadForecast() = %+v, want %+v", days, forecast)
	}
}
