package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/i474232898/weather-monitor/internal/weather"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.ObservePoll("Delhi", weather.PollOK)
	r.ObservePoll("Mumbai", weather.PollOK)
	r.ObservePoll("Atlantis", weather.PollNotFound)
	r.ObserveTemperature("Delhi", 36.5)
	r.Notify(context.Background(), weather.Alert{Location: "Delhi"})
	r.ObserveTick(150 * time.Millisecond)

	if got := testutil.ToFloat64(r.polls.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok polls, got %v", got)
	}
	if got := testutil.ToFloat64(r.polls.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("expected 1 not_found poll, got %v", got)
	}
	if got := testutil.ToFloat64(r.temperature.WithLabelValues("Delhi")); got != 36.5 {
		t.Fatalf("expected 36.5, got %v", got)
	}
	if got := testutil.ToFloat64(r.alerts.WithLabelValues("Delhi")); got != 1 {
		t.Fatalf("expected 1 alert, got %v", got)
	}
	if got := testutil.CollectAndCount(r.tickDuration); got != 1 {
		t.Fatalf("expected tick histogram to be collected, got %d", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObservePoll("Delhi", weather.PollTransient)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Result().Body)
	out := string(body)
	for _, name := range []string{`weather_polls_total{result="transient"} 1`, "weather_tick_duration_seconds", "go_goroutines"} {
		if !strings.Contains(out, name) {
			t.Fatalf("metrics output missing %q", name)
		}
	}
}
