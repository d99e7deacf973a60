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

package main

import (
	"context"

	"github.com/launix-de/zeppelin/internal/compaction"
	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/ivf"
	"github.com/launix-de/zeppelin/internal/namespace"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/query"
	"github.com/launix-de/zeppelin/internal/wal"
)

// app bundles every subsystem a subcommand needs. Built once from a loaded
// Config; cobra commands reach into whichever fields they use.
type app struct {
	cfg       config.Config
	store     objectstore.Store
	cache     *diskcache.Cache
	registry  *namespace.Registry
	writer    *wal.Writer
	planner   *query.Planner
	compactor *compaction.Compactor
}

// newApp wires every subsystem from cfg: object store backend, disk cache,
// namespace registry (which scans the store for existing metadata), WAL
// writer, query planner, and compactor. Shared by serve, console, and
// compact so the three subcommands never wire a dependency differently.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, err := objectstore.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	maxBytes, err := cfg.Cache.MaxBytesParsed()
	if err != nil {
		return nil, err
	}
	cache, err := diskcache.New(cfg.Cache.Directory, maxBytes)
	if err != nil {
		return nil, err
	}

	registry, err := namespace.NewRegistry(ctx, store)
	if err != nil {
		return nil, err
	}

	writer := wal.NewWriter(store)
	planner := query.NewPlanner(store, cache)
	compactor := compaction.NewCompactor(store, cache, compaction.Config{
		MinFragmentsToCompact: cfg.Compaction.MinFragmentsToCompact,
		GCDelay:               compaction.DefaultConfig().GCDelay,
	})

	return &app{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		registry:  registry,
		writer:    writer,
		planner:   planner,
		compactor: compactor,
	}, nil
}

// indexingConfig adapts config.IndexingConfig for ivf.Build/Compact, which
// take their own IndexingConfig to stay free of a dependency on config.
func indexingConfig(c config.IndexingConfig) ivf.IndexingConfig {
	return ivf.IndexingConfig{
		DefaultNumCentroids:      c.DefaultNumCentroids,
		KMeansMaxIterations:      c.KMeansMaxIterations,
		KMeansConvergenceEpsilon: c.KMeansConvergenceEpsilon,
		SampleSize:               c.SampleSize,
		DefaultNProbe:            c.DefaultNProbe,
		MaxNProbe:                c.MaxNProbe,
		OversampleFactor:         c.OversampleFactor,
		Quantization:             c.Quantization,
		PQSubquantizers:          c.PQSubquantizers,
	}
}
