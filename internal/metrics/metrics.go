/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package metrics registers the process-wide Prometheus collectors used by
// every subsystem: HTTP, query, WAL, cache, and compaction.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeppelin_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zeppelin_query_duration_seconds",
			Help:    "Query duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"namespace"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeppelin_queries_total",
			Help: "Total queries",
		},
		[]string{"namespace"},
	)

	WALAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeppelin_wal_appends_total",
			Help: "WAL appends",
		},
		[]string{"namespace"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeppelin_cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"result"},
	)

	CompactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeppelin_compactions_total",
			Help: "Compactions",
		},
		[]string{"namespace", "status"},
	)
)

// Register attaches every collector to the given registerer. Passing
// prometheus.DefaultRegisterer wires metrics into the default /metrics
// handler; a fresh prometheus.NewRegistry() is used by tests that want
// isolation.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		HTTPRequestsTotal,
		QueryDuration,
		QueriesTotal,
		WALAppendsTotal,
		CacheHitsTotal,
		CompactionsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

var registerDefaultOnce sync.Once

// RegisterDefault attaches every collector to prometheus.DefaultRegisterer
// exactly once per process, so the /metrics endpoint's promhttp.Handler()
// (which gathers from the default registry) exposes them. Safe to call
// from every place that builds an HTTP server, including repeatedly across
// a test binary's test functions.
func RegisterDefault() {
	registerDefaultOnce.Do(func() {
		_ = Register(prometheus.DefaultRegisterer)
	})
}
