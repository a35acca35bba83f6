// Package metrics expone contadores Prometheus del API y del alta de empresa.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
)

const namespace = "wasper"

// Metrics agrupa los colectores registrados en un registry propio.
type Metrics struct {
	reg *prometheus.Registry

	BootstrapSteps   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RateLimitRejects *prometheus.CounterVec
}

var _ bootstrap.StepObserver = (*Metrics)(nil)

// New crea un registry nuevo con los colectores del proceso y de Go.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		BootstrapSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_steps_total",
			Help:      "Pasos del alta de empresa por resultado",
		}, []string{"step", "outcome"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Peticiones rechazadas por el limitador",
		}, []string{"route"}),
	}
}

// ObserveStep cuenta el resultado de un paso del alta.
func (m *Metrics) ObserveStep(step string, outcome bootstrap.Outcome) {
	m.BootstrapSteps.WithLabelValues(step, string(outcome)).Inc()
}

// ObserveRequest registra una petición ya respondida.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRateLimited cuenta un rechazo del limitador.
func (m *Metrics) ObserveRateLimited(route string) {
	m.RateLimitRejects.WithLabelValues(route).Inc()
}

// Registry para tests y colectores adicionales.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler sirve el formato de exposición de Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
