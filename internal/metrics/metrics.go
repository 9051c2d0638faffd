// Package metrics provides Prometheus metrics for the weather monitor.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-monitor/internal/weather"
)

const namespace = "weather"

// Recorder implements weather.Recorder and weather.AlertSink on Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	temperature  *prometheus.GaugeVec
	tickDuration prometheus.Histogram
}

// NewRecorder creates a Recorder on its own registry, including Go and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Location poll pipelines by result",
			},
			[]string{"result"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Threshold alerts emitted by location",
			},
			[]string{"location"},
		),
		temperature: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "temperature_celsius",
				Help:      "Last polled temperature by location",
			},
			[]string{"location"},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time of a full poll tick",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		r.polls,
		r.alerts,
		r.temperature,
		r.tickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObservePoll counts one pipeline outcome.
func (r *Recorder) ObservePoll(_ string, result weather.PollResult) {
	r.polls.WithLabelValues(string(result)).Inc()
}

// ObserveTemperature records the last temperature for location.
func (r *Recorder) ObserveTemperature(location string, celsius float64) {
	r.temperature.WithLabelValues(location).Set(celsius)
}

// ObserveTick records how long a tick took to settle.
func (r *Recorder) ObserveTick(d time.Duration) {
	r.tickDuration.Observe(d.Seconds())
}

// Notify counts an alert.
func (r *Recorder) Notify(_ context.Context, a weather.Alert) {
	r.alerts.WithLabelValues(a.Location).Inc()
}

// Registry exposes the underlying registry (tests, extra collectors).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
