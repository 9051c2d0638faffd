package weather

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (s *recordingSink) Notify(_ context.Context, a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func feed(d *Detector, loc string, cfg Thresholds, temps ...float64) []int {
	counts := make([]int, 0, len(temps))
	for _, temp := range temps {
		counts = append(counts, d.Evaluate(context.Background(), loc, temp, cfg).Count)
	}
	return counts
}

func TestDetector(t *testing.T) {
	cfg := Thresholds{TempThreshold: 35, AlertConsecutive: 2}

	convey.Convey("Given a breach detector", t, func() {
		sink := &recordingSink{}
		d := NewDetector(sink)

		convey.Convey("An interrupted run resets the counter and never alerts", func() {
			counts := feed(d, "Delhi", cfg, 36, 37, 34, 36, 38)
			convey.So(counts, convey.ShouldResemble, []int{0, 1, 0, 0, 1})
			convey.So(sink.Len(), convey.ShouldEqual, 0)
		})

		convey.Convey("Three readings above the threshold alert once", func() {
			counts := feed(d, "Delhi", cfg, 36, 37, 38)
			convey.So(counts, convey.ShouldResemble, []int{0, 1, 2})
			convey.So(sink.Len(), convey.ShouldEqual, 1)
			convey.So(sink.alerts[0].Location, convey.ShouldEqual, "Delhi")
			convey.So(sink.alerts[0].Count, convey.ShouldEqual, 2)
			convey.So(sink.alerts[0].Temperature, convey.ShouldEqual, 38.0)
		})

		convey.Convey("Alerts repeat while the breach continues", func() {
			feed(d, "Delhi", cfg, 36, 37, 38, 39)
			convey.So(sink.Len(), convey.ShouldEqual, 2)
			convey.So(d.Count("Delhi"), convey.ShouldEqual, 3)
		})

		convey.Convey("A reading equal to the threshold is not a breach", func() {
			counts := feed(d, "Delhi", cfg, 35, 35, 36, 35)
			convey.So(counts, convey.ShouldResemble, []int{0, 0, 0, 0})
		})

		convey.Convey("The first reading of a location never counts", func() {
			ev := d.Evaluate(context.Background(), "Mumbai", 50, cfg)
			convey.So(ev.Breached, convey.ShouldBeFalse)
			convey.So(ev.Count, convey.ShouldEqual, 0)
		})

		convey.Convey("Locations are tracked independently", func() {
			feed(d, "Delhi", cfg, 36, 37)
			feed(d, "Chennai", cfg, 20)
			convey.So(d.Count("Delhi"), convey.ShouldEqual, 1)
			convey.So(d.Count("Chennai"), convey.ShouldEqual, 0)
			convey.So(d.Count("Unknown"), convey.ShouldEqual, 0)
		})

		convey.Convey("A config change applies from the next evaluation", func() {
			feed(d, "Delhi", cfg, 36, 37)
			raised := Thresholds{TempThreshold: 35, AlertConsecutive: 5}
			ev := d.Evaluate(context.Background(), "Delhi", 38, raised)
			convey.So(ev.Count, convey.ShouldEqual, 2)
			convey.So(ev.Alert, convey.ShouldBeFalse)
			convey.So(sink.Len(), convey.ShouldEqual, 0)
		})

		convey.Convey("Alerts are stamped with the detector clock", func() {
			at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			d.WithClock(fixedClock{t: at})
			feed(d, "Delhi", Thresholds{TempThreshold: 35, AlertConsecutive: 1}, 36, 37)
			convey.So(sink.Len(), convey.ShouldEqual, 1)
			convey.So(sink.alerts[0].TriggeredAt.Equal(at), convey.ShouldBeTrue)
			convey.So(sink.alerts[0].Required, convey.ShouldEqual, 1)
		})
	})
}

func TestDetectorNilSink(t *testing.T) {
	d := NewDetector(nil)
	cfg := Thresholds{TempThreshold: 10, AlertConsecutive: 1}
	d.Evaluate(context.Background(), "Delhi", 11, cfg)
	ev := d.Evaluate(context.Background(), "Delhi", 12, cfg)
	if !ev.Alert {
		t.Fatalf("expected alert flag without a sink")
	}
}

func TestDetectorConcurrentLocations(t *testing.T) {
	d := NewDetector(nil)
	cfg := Thresholds{TempThreshold: 35, AlertConsecutive: 2}
	locations := []string{"Delhi", "Mumbai", "Chennai", "Bangalore", "Kolkata", "Hyderabad"}

	var wg sync.WaitGroup
	for _, loc := range locations {
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				d.Evaluate(context.Background(), loc, 40, cfg)
			}
		}(loc)
	}
	wg.Wait()

	for _, loc := range locations {
		if got := d.Count(loc); got != 9 {
			t.Fatalf("%s: expected count 9, got %d", loc, got)
		}
	}
}
