package rag

import "github.com/prometheus/client_golang/prometheus"

var (
	retrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamp_retrievals_total",
			Help: "Similar-case retrievals by outcome.",
		},
		[]string{"status"},
	)
	retrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lamp_retrieval_duration_seconds",
			Help:    "Embedding plus vector search latency for successful retrievals.",
			Buckets: prometheus.DefBuckets,
		},
	)
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamp_completions_total",
			Help: "Successful completions by mode.",
		},
		[]string{"mode"},
	)
	completionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lamp_completion_failures_total",
			Help: "Completion calls answered with the fallback message, by mode.",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(retrievalsTotal)
	prometheus.MustRegister(retrievalDuration)
	prometheus.MustRegister(completionsTotal)
	prometheus.MustRegister(completionFailures)
}
