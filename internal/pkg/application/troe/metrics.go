package troe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// retrievalTotal counts temporal retrievals by representation and result
	retrievalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "troe_temporal_retrievals_total",
		Help: "Total temporal entity retrievals by representation and result",
	}, []string{"representation", "result"})

	retrievalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "troe_temporal_retrieval_duration_seconds",
		Help:    "Temporal entity retrieval duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"representation"})

	attributeSearches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "troe_attribute_searches_per_retrieval",
		Help:    "Number of attribute searches per temporal retrieval",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	paginatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "troe_paginated_results_total",
		Help: "Total temporal results that were cut short by the instance limit",
	})

	aggregationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "troe_aggregation_failures_total",
		Help: "Total buckets where an aggregation method could not be computed",
	}, []string{"method"})

	deletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "troe_history_deletions_total",
		Help: "Total deletions of history by scope",
	}, []string{"scope"})
)

var ingestedInstancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "troe_ingested_instances_total",
	Help: "Total attribute instances appended to the history by attribute type",
}, []string{"type"})
