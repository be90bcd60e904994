// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for a generation call.
const (
	OutcomeParsed   = "parsed"
	OutcomeFallback = "fallback"
)

// Collector owns a private registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	vaultOps           *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewCollector creates and registers all collectors under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nickname_generations_total",
				Help:      "Nickname generation calls by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "nickname_generation_duration_seconds",
				Help:      "Wall time of nickname generation calls",
				Buckets:   prometheus.DefBuckets,
			},
		),
		vaultOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vault_operations_total",
				Help:      "Vault backend operations by kind and status",
			},
			[]string{"op", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.generations,
		c.generationDuration,
		c.vaultOps,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// ObserveGeneration records one finished generation call.
func (c *Collector) ObserveGeneration(outcome string, d time.Duration) {
	c.generations.WithLabelValues(outcome).Inc()
	c.generationDuration.Observe(d.Seconds())
}

// ObserveVaultOp records one backend operation ("load", "insert", "delete").
func (c *Collector) ObserveVaultOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.vaultOps.WithLabelValues(op, status).Inc()
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
