// Package sqlite implements weather.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/weather"
)

const (
	insertObservationSQL = `
INSERT INTO weather (id, city, temperature, temp_max, temp_min, humidity, wind_speed, weather_condition, raw_condition, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectObservationsSQL = `
SELECT id, city, temperature, temp_max, temp_min, humidity, wind_speed, weather_condition, raw_condition, timestamp
FROM weather
WHERE city = ?
ORDER BY rowid ASC`

	selectLatestObservationSQL = `
SELECT id, city, temperature, temp_max, temp_min, humidity, wind_speed, weather_condition, raw_condition, timestamp
FROM weather
WHERE city = ?
ORDER BY rowid DESC
LIMIT 1`

	upsertSummarySQL = `
INSERT INTO daily_summary (city, date, avg_temp, max_temp, min_temp, dominant_condition, samples, computed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (city, date) DO UPDATE SET
	avg_temp = excluded.avg_temp,
	max_temp = excluded.max_temp,
	min_temp = excluded.min_temp,
	dominant_condition = excluded.dominant_condition,
	samples = excluded.samples,
	computed_at = excluded.computed_at`

	selectLatestSummarySQL = `
SELECT city, date, avg_temp, max_temp, min_temp, dominant_condition, samples, computed_at
FROM daily_summary
WHERE city = ?
ORDER BY date DESC
LIMIT 1`
)

// Store is a weather.Store backed by database/sql and the sqlite3 driver.
type Store struct {
	db *sql.DB
}

// New wraps an already opened and migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the database at path, applies migrations and returns a Store.
// path may be a plain file path, a "file:" URI or ":memory:".
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

func (s *Store) InsertObservation(ctx context.Context, obs weather.Observation) error {
	_, err := s.db.ExecContext(ctx, insertObservationSQL,
		obs.ID,
		obs.Location,
		obs.Temperature,
		obs.TempMax,
		obs.TempMin,
		obs.Humidity,
		obs.WindSpeed,
		string(obs.Condition),
		obs.RawCondition,
		obs.CapturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert observation: %w", err)
	}
	return nil
}

func (s *Store) ListObservations(ctx context.Context, location string) ([]weather.Observation, error) {
	rows, err := s.db.QueryContext(ctx, selectObservationsSQL, location)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query observations: %w", err)
	}
	defer rows.Close()

	var out []weather.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (s *Store) LatestObservation(ctx context.Context, location string) (weather.Observation, error) {
	obs, err := scanObservation(s.db.QueryRowContext(ctx, selectLatestObservationSQL, location))
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Observation{}, store.ErrNotFound
	}
	return obs, err
}

func (s *Store) UpsertDailySummary(ctx context.Context, sum weather.DailySummary) error {
	_, err := s.db.ExecContext(ctx, upsertSummarySQL,
		sum.Location,
		sum.Date,
		sum.AvgTemp,
		sum.MaxTemp,
		sum.MinTemp,
		string(sum.DominantCondition),
		sum.Samples,
		sum.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert daily summary: %w", err)
	}
	return nil
}

func (s *Store) LatestDailySummary(ctx context.Context, location string) (weather.DailySummary, error) {
	var (
		sum        weather.DailySummary
		cond       string
		computedAt string
	)
	err := s.db.QueryRowContext(ctx, selectLatestSummarySQL, location).Scan(
		&sum.Location, &sum.Date, &sum.AvgTemp, &sum.MaxTemp, &sum.MinTemp, &cond, &sum.Samples, &computedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.DailySummary{}, store.ErrNotFound
	}
	if err != nil {
		return weather.DailySummary{}, fmt.Errorf("sqlite: query daily summary: %w", err)
	}
	sum.DominantCondition = weather.Condition(cond)
	if sum.ComputedAt, err = parseTimestamp(computedAt); err != nil {
		return weather.DailySummary{}, err
	}
	return sum, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (weather.Observation, error) {
	var (
		obs  weather.Observation
		cond string
		ts   string
	)
	if err := row.Scan(
		&obs.ID, &obs.Location, &obs.Temperature, &obs.TempMax, &obs.TempMin,
		&obs.Humidity, &obs.WindSpeed, &cond, &obs.RawCondition, &ts,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weather.Observation{}, err
		}
		return weather.Observation{}, fmt.Errorf("sqlite: scan observation: %w", err)
	}
	obs.Condition = weather.Condition(cond)

	t, err := parseTimestamp(ts)
	if err != nil {
		return weather.Observation{}, err
	}
	obs.CapturedAt = t
	return obs, nil
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t.UTC(), nil
}
