// Package metrics exposes Prometheus instruments for reconciliation cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"topowatch/internal/domain"
)

var (
	// CyclesTotal counts cycles by source and outcome
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topowatch_cycles_total",
			Help: "Total number of reconciliation cycles by outcome",
		},
		[]string{"source", "outcome"},
	)

	// DroppedRecordsTotal counts malformed snapshot records
	DroppedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topowatch_dropped_records_total",
			Help: "Total number of malformed snapshot records dropped",
		},
		[]string{"source"},
	)

	// GraphElements tracks the size of the latest publication
	GraphElements = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topowatch_graph_elements",
			Help: "Number of nodes, edges and shortcuts in the latest publication",
		},
		[]string{"kind"},
	)

	// CycleDuration observes fetch plus reconcile time
	CycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topowatch_cycle_duration_seconds",
			Help:    "Duration of reconciliation cycles",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(DroppedRecordsTotal)
	prometheus.MustRegister(GraphElements)
	prometheus.MustRegister(CycleDuration)
}

// ObserveCycle records one journal entry in every instrument
func ObserveCycle(rec domain.CycleRecord) {
	CyclesTotal.WithLabelValues(rec.Source, string(rec.Outcome)).Inc()
	CycleDuration.WithLabelValues(rec.Source).Observe(rec.Duration.Seconds())
	if rec.Dropped > 0 {
		DroppedRecordsTotal.WithLabelValues(rec.Source).Add(float64(rec.Dropped))
	}
	if rec.Outcome == domain.CycleReconciled {
		GraphElements.WithLabelValues("nodes").Set(float64(rec.Nodes))
		GraphElements.WithLabelValues("edges").Set(float64(rec.Edges))
		GraphElements.WithLabelValues("shortcuts").Set(float64(rec.Shortcuts))
	}
}
