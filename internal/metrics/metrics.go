// Package metrics exposes controller counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/screen-remote/internal/receiver"
)

const namespace = "screen_remote"

// Metrics holds the controller's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	actions       *prometheus.CounterVec // recognized IR actions, by action
	commands      *prometheus.CounterVec // MQTT commands, by command
	transmissions *prometheus.CounterVec // RF transmissions, by result
	publishErrors prometheus.Counter
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		actions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Recognized remote control actions.",
			},
			[]string{"action"},
		),
		commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands received over MQTT.",
			},
			[]string{"command"},
		),
		transmissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rf_transmissions_total",
				Help:      "RF transmissions attempted, by result.",
			},
			[]string{"result"},
		),
		publishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_errors_total",
			Help:      "MQTT publishes that failed or were buffered.",
		}),
	}
}

// WatchReceiver exposes the receiver pipeline counters. counts is called
// on every scrape.
func (m *Metrics) WatchReceiver(counts func() receiver.Counts) {
	f := promauto.With(m.reg)
	counter := func(name, help string, get func(receiver.Counts) uint64) {
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ir",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(get(counts()))
		})
	}
	counter("edges_total", "Edges seen on the IR line.", func(c receiver.Counts) uint64 { return c.Edges })
	counter("glitches_total", "Edges rejected by the glitch filter.", func(c receiver.Counts) uint64 { return c.Glitches })
	counter("noise_frames_total", "Frames too short to fingerprint.", func(c receiver.Counts) uint64 { return c.Noise })
	counter("frames_total", "Frames fingerprinted.", func(c receiver.Counts) uint64 { return c.Frames })
	counter("suppressed_total", "Repeat frames suppressed by debounce.", func(c receiver.Counts) uint64 { return c.Suppressed })
	counter("surfaced_total", "Fingerprints delivered to the poll loop.", func(c receiver.Counts) uint64 { return c.Surfaced })
	counter("overwritten_total", "Fingerprints replaced before being read.", func(c receiver.Counts) uint64 { return c.Overwritten })
	counter("unrecognized_total", "Fingerprints with no learned action.", func(c receiver.Counts) uint64 { return c.Unrecognized })
}

// Action counts a recognized action.
func (m *Metrics) Action(action string) {
	m.actions.WithLabelValues(action).Inc()
}

// Command counts a received command.
func (m *Metrics) Command(command string) {
	m.commands.WithLabelValues(command).Inc()
}

// Transmission counts one RF transmission attempt.
func (m *Metrics) Transmission(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transmissions.WithLabelValues(result).Inc()
}

// PublishError counts a failed publish.
func (m *Metrics) PublishError() {
	m.publishErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
