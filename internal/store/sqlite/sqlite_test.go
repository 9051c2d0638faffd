package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-monitor/internal/store/storetest"
	"github.com/i474232898/weather-monitor/internal/weather"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) weather.Store {
		return openMemory(t)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openMemory(t)
	if err := Migrate(s.db, nil); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied migration, got %d", n)
	}
}

func TestOpenFileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "weather.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.InsertObservation(ctx, storetest.Observation("Delhi", 31, time.Now().UTC())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	obs, err := s.LatestObservation(ctx, "Delhi")
	if err != nil || obs.Temperature != 31 {
		t.Fatalf("unexpected observation %+v, %v", obs, err)
	}
}

func TestBuildDSN(t *testing.T) {
	if dsn, _ := buildDSN(":memory:"); dsn != ":memory:" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	dsn, err := buildDSN("file:test.db?cache=shared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:test.db?cache=shared&") || !strings.Contains(dsn, "_busy_timeout=5000") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}
