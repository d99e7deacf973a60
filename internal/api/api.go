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

// Package api exposes Zeppelin over HTTP: namespace/vector/query handlers,
// health/readiness/metrics, and a namespace event feed, wired up with
// gin-gonic/gin.
package api

import (
	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/namespace"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/query"
	"github.com/launix-de/zeppelin/internal/wal"
)

// Server holds every dependency a handler needs. Constructed once at
// startup and shared read-only across requests; its own fields (registry,
// writer, planner, events) are already safe for concurrent use.
type Server struct {
	store    objectstore.Store
	cache    *diskcache.Cache
	registry *namespace.Registry
	writer   *wal.Writer
	planner  *query.Planner
	cfg      config.Config
	events   *eventHub
}

// NewServer wires a Server from its subsystems. cfg supplies the request
// limits (server.max_batch_size, server.max_top_k) and query defaults
// (indexing.default_nprobe, indexing.max_nprobe) every handler enforces.
// cache is the same disk cache the planner reads segment artifacts
// through; deleteNamespace invalidates it so a re-created namespace never
// serves a stale segment cached under its old name.
func NewServer(store objectstore.Store, cache *diskcache.Cache, registry *namespace.Registry, writer *wal.Writer, planner *query.Planner, cfg config.Config) *Server {
	metrics.RegisterDefault()
	return &Server{
		store:    store,
		cache:    cache,
		registry: registry,
		writer:   writer,
		planner:  planner,
		cfg:      cfg,
		events:   newEventHub(),
	}
}
