// ABOUTME: Prometheus collectors for the HTTP layer, registered on a per-server registry.
// ABOUTME: chwone_access_decisions_total counts every tool decision by tool and result.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

type serverMetrics struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
}

func newServerMetrics() (*serverMetrics, error) {
	reg := prometheus.NewRegistry()
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chwone_access_decisions_total",
		Help: "Tool access decisions made by the HTTP layer, by tool and result.",
	}, []string{"tool", "result"})

	for _, c := range []prometheus.Collector{
		decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &serverMetrics{registry: reg, decisions: decisions}, nil
}

func (m *serverMetrics) observe(tool access.Tool, granted bool) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	m.decisions.WithLabelValues(tool.String(), result).Inc()
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
