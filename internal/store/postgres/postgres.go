// Package postgres implements weather.Store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/weather"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS weather (
	seq               BIGSERIAL PRIMARY KEY,
	id                TEXT             NOT NULL UNIQUE,
	city              TEXT             NOT NULL,
	temperature       DOUBLE PRECISION NOT NULL,
	temp_max          DOUBLE PRECISION NOT NULL,
	temp_min          DOUBLE PRECISION NOT NULL,
	humidity          DOUBLE PRECISION NOT NULL,
	wind_speed        DOUBLE PRECISION NOT NULL,
	weather_condition TEXT             NOT NULL,
	raw_condition     TEXT             NOT NULL DEFAULT '',
	captured_at       TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_weather_city_seq ON weather (city, seq);

CREATE TABLE IF NOT EXISTS daily_summary (
	city               TEXT             NOT NULL,
	date               TEXT             NOT NULL,
	avg_temp           DOUBLE PRECISION NOT NULL,
	max_temp           DOUBLE PRECISION NOT NULL,
	min_temp           DOUBLE PRECISION NOT NULL,
	dominant_condition TEXT             NOT NULL,
	samples            INTEGER          NOT NULL,
	computed_at        TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (city, date)
);`

const observationColumns = `id, city, temperature, temp_max, temp_min, humidity, wind_speed, weather_condition, raw_condition, captured_at`

// Repository implements weather.Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository on an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool for databaseURL and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	r := NewRepository(pool)
	if err := r.Health(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the tables if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: failed to ensure schema: %w", err)
	}
	return nil
}

// Health checks database connectivity.
func (r *Repository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) InsertObservation(ctx context.Context, obs weather.Observation) error {
	query := `
		INSERT INTO weather (` + observationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		obs.ID, obs.Location, obs.Temperature, obs.TempMax, obs.TempMin,
		obs.Humidity, obs.WindSpeed, string(obs.Condition), obs.RawCondition, obs.CapturedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save observation: %w", err)
	}
	return nil
}

func (r *Repository) ListObservations(ctx context.Context, location string) ([]weather.Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM weather WHERE city = $1 ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query, location)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query observations: %w", err)
	}
	defer rows.Close()

	var results []weather.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate observations: %w", err)
	}
	return results, nil
}

func (r *Repository) LatestObservation(ctx context.Context, location string) (weather.Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM weather WHERE city = $1 ORDER BY seq DESC LIMIT 1`

	obs, err := scanObservation(r.pool.QueryRow(ctx, query, location))
	if errors.Is(err, pgx.ErrNoRows) {
		return weather.Observation{}, store.ErrNotFound
	}
	return obs, err
}

func (r *Repository) UpsertDailySummary(ctx context.Context, sum weather.DailySummary) error {
	query := `
		INSERT INTO daily_summary (city, date, avg_temp, max_temp, min_temp, dominant_condition, samples, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (city, date)
		DO UPDATE SET
			avg_temp = EXCLUDED.avg_temp,
			max_temp = EXCLUDED.max_temp,
			min_temp = EXCLUDED.min_temp,
			dominant_condition = EXCLUDED.dominant_condition,
			samples = EXCLUDED.samples,
			computed_at = EXCLUDED.computed_at
	`
	_, err := r.pool.Exec(ctx, query,
		sum.Location, sum.Date, sum.AvgTemp, sum.MaxTemp, sum.MinTemp,
		string(sum.DominantCondition), sum.Samples, sum.ComputedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert daily summary: %w", err)
	}
	return nil
}

func (r *Repository) LatestDailySummary(ctx context.Context, location string) (weather.DailySummary, error) {
	query := `
		SELECT city, date, avg_temp, max_temp, min_temp, dominant_condition, samples, computed_at
		FROM daily_summary
		WHERE city = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var (
		sum  weather.DailySummary
		cond string
	)
	err := r.pool.QueryRow(ctx, query, location).Scan(
		&sum.Location, &sum.Date, &sum.AvgTemp, &sum.MaxTemp, &sum.MinTemp, &cond, &sum.Samples, &sum.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return weather.DailySummary{}, store.ErrNotFound
	}
	if err != nil {
		return weather.DailySummary{}, fmt.Errorf("postgres: failed to query daily summary: %w", err)
	}
	sum.DominantCondition = weather.Condition(cond)
	sum.ComputedAt = sum.ComputedAt.UTC()
	return sum, nil
}

func scanObservation(row pgx.Row) (weather.Observation, error) {
	var (
		obs  weather.Observation
		cond string
	)
	err := row.Scan(
		&obs.ID, &obs.Location, &obs.Temperature, &obs.TempMax, &obs.TempMin,
		&obs.Humidity, &obs.WindSpeed, &cond, &obs.RawCondition, &obs.CapturedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return weather.Observation{}, err
	}
	if err != nil {
		return weather.Observation{}, fmt.Errorf("postgres: failed to scan observation: %w", err)
	}
	obs.Condition = weather.Condition(cond)
	obs.CapturedAt = obs.CapturedAt.UTC()
	return obs, nil
}
