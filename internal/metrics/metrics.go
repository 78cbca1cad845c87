// Package metrics exposes the advisor's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeLLMError = "llm_error"
	OutcomePanic    = "panic"
)

// Metrics holds the custom collectors.
type Metrics struct {
	Turns          *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	QuickActions   *prometheus.CounterVec
	StorageErrors  prometheus.Counter
	SearchDuration prometheus.Histogram
	SearchResults  prometheus.Histogram
	LLMDuration    prometheus.Histogram
	TurnDuration   prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finadvisor_turns_total",
			Help: "Conversation turns by outcome",
		}, []string{"outcome"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finadvisor_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}), // hit or miss

		QuickActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finadvisor_quick_actions_total",
			Help: "Quick action button presses",
		}, []string{"action"}),

		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "finadvisor_storage_errors_total",
			Help: "Failed writes to the user memory backend",
		}),

		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finadvisor_search_duration_seconds",
			Help:    "Web search latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finadvisor_search_results",
			Help:    "Usable results per web search",
			Buckets: []float64{0, 1, 2, 3, 5},
		}),

		LLMDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finadvisor_llm_duration_seconds",
			Help:    "LLM generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),

		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finadvisor_turn_duration_seconds",
			Help:    "End to end turn latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveSearch records one web search. It matches search.Options.Observe.
func (m *Metrics) ObserveSearch(d time.Duration, results int) {
	m.SearchDuration.Observe(d.Seconds())
	m.SearchResults.Observe(float64(results))
}
