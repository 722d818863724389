/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the HTTP API and the
// ONU simulator. The metrics listener binds separately from the API so
// the scrape endpoint stays off the public interface.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, route, and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netflex_api_requests_total",
			Help: "Total HTTP API requests.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration tracks HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netflex_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netflex_api_active_connections",
			Help: "Number of in-flight HTTP API requests.",
		},
	)

	// OnuLookupsTotal counts simulator lookups by outcome.
	OnuLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netflex_onu_lookups_total",
			Help: "Total ONU simulator lookups by result.",
		},
		[]string{"result"},
	)

	// AuthLoginsTotal counts login attempts by outcome.
	AuthLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netflex_auth_logins_total",
			Help: "Total login attempts by result.",
		},
		[]string{"result"},
	)
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
