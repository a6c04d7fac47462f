// Copyright 2025 Certen Protocol
//
// Package metrics exposes the validator's block-processing counters and
// gauges over Prometheus's standard /metrics endpoint.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups every metric this node publishes.
type Registry struct {
	TxDelivered *prometheus.CounterVec
	Height      prometheus.Gauge
	Validators  prometheus.Gauge
	FeePot      prometheus.Gauge
}

// NewRegistry constructs and registers all metrics against a fresh
// prometheus.Registry, so that multiple nodes in the same test process
// never collide on the default global registry.
func NewRegistry() (*Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		TxDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validatord",
			Name:      "transactions_total",
			Help:      "Transactions delivered during FinalizeBlock, partitioned by outcome.",
		}, []string{"outcome"}),
		Height: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "validatord",
			Name:      "height",
			Help:      "Last height this node committed.",
		}),
		Validators: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "validatord",
			Name:      "validators",
			Help:      "Number of validators currently in the active set.",
		}),
		FeePot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "validatord",
			Name:      "fee_pot_credits",
			Help:      "Credits collected this block, awaiting distribution at Commit.",
		}),
	}
	return r, reg
}

// ObserveTx records a delivered transaction's outcome: "accepted" or
// "rejected".
func (r *Registry) ObserveTx(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	r.TxDelivered.WithLabelValues(outcome).Inc()
}

// Handler returns the http.Handler to mount at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
