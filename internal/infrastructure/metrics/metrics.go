// Package metrics exposes engine counters and gauges to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

const namespace = "legis"

// Prometheus implements ports.Metrics on its own registry.
type Prometheus struct {
	registry  *prometheus.Registry
	renders   *prometheus.CounterVec
	verified  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	overdue   *prometheus.GaugeVec
	dueSoon   *prometheus.GaugeVec
}

var _ ports.Metrics = (*Prometheus)(nil)

// New creates the collectors and registers them with Go runtime and process collectors.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Template renders by outcome.",
		}, []string{"outcome"}),
		verified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_verified_total",
			Help:      "Update point verifications by criticality.",
		}, []string{"criticality"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_conflicts_total",
			Help:      "Optimistic concurrency conflicts by operation.",
		}, []string{"operation"}),
		overdue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points_overdue",
			Help:      "Active update points past their verification deadline.",
		}, []string{"criticality"}),
		dueSoon: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points_due_soon",
			Help:      "Active update points due within seven days.",
		}, []string{"criticality"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.renders, p.verified, p.conflicts, p.overdue, p.dueSoon,
	)
	return p
}

// Registry returns the registry the collectors are registered with.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) RenderCompleted(outcome string) {
	p.renders.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) PointVerified(criticality entities.Criticality) {
	p.verified.WithLabelValues(string(criticality)).Inc()
}

func (p *Prometheus) ConflictDetected(operation string) {
	p.conflicts.WithLabelValues(operation).Inc()
}

func (p *Prometheus) SetPointStatus(criticality entities.Criticality, overdue, dueSoon int) {
	p.overdue.WithLabelValues(string(criticality)).Set(float64(overdue))
	p.dueSoon.WithLabelValues(string(criticality)).Set(float64(dueSoon))
}
