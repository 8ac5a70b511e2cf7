// Package metrics exposes the control loop to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "thermostat"
	subsystem = "relay"
)

// Metrics holds the collectors updated by the controller.
type Metrics struct {
	Cycles      prometheus.Counter
	CycleErrors *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	HeaterOn    prometheus.Gauge
	TempF       prometheus.Gauge
	GoalTempF   prometheus.Gauge
	Publishes   *prometheus.CounterVec

	configRequests *prometheus.CounterVec
	configDuration *prometheus.SummaryVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "total number of schedule cycles run",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_errors_total",
			Help:      "schedule cycles that failed, by stage",
		}, []string{"stage"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transitions_total",
			Help:      "relay transitions, by new position",
		}, []string{"state"}),
		HeaterOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "heater_on",
			Help:      "1 while the heater relay is closed",
		}),
		TempF: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "temperature_fahrenheit",
			Help:      "latest room temperature reading",
		}),
		GoalTempF: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goal_temperature_fahrenheit",
			Help:      "goal temperature of the latest cycle, 0 when there is none",
		}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_publishes_total",
			Help:      "status publishes, by result",
		}, []string{"result"}),
		configRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "http_requests_total",
			Help:      "total number of config fetch requests",
		}, []string{"code", "method"}),
		configDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "http_request_duration_seconds",
			Help:      "duration of config fetch requests",
		}, []string{"code", "method"}),
	}
	reg.MustRegister(
		m.Cycles, m.CycleErrors, m.Transitions,
		m.HeaterOn, m.TempF, m.GoalTempF, m.Publishes,
		m.configRequests, m.configDuration,
	)
	return m
}

// InstrumentClient returns a copy of c whose requests are counted and timed.
func (m *Metrics) InstrumentClient(c *http.Client) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rt := promhttp.InstrumentRoundTripperCounter(m.configRequests,
		promhttp.InstrumentRoundTripperDuration(m.configDuration, base),
	)
	out := *c
	out.Transport = rt
	return &out
}

// ObserveCycle records the outcome of one successful cycle.
func (m *Metrics) ObserveCycle(heaterOn, changed bool, tempF float64, goalF *float64) {
	m.Cycles.Inc()
	m.TempF.Set(tempF)
	if goalF != nil {
		m.GoalTempF.Set(*goalF)
	} else {
		m.GoalTempF.Set(0)
	}
	if heaterOn {
		m.HeaterOn.Set(1)
	} else {
		m.HeaterOn.Set(0)
	}
	if changed {
		m.Transitions.WithLabelValues(onOff(heaterOn)).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
