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
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/launix-de/zeppelin/internal/api"
	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/wal"
	"github.com/launix-de/zeppelin/internal/zlog"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API and background compaction loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("host", "", "override server.host")
	cmd.Flags().Int("port", 0, "override server.port")
	cmd.Flags().String("storage-backend", "", "override storage.backend")
	cmd.Flags().String("cache-directory", "", "override cache.directory")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	stopCompaction := make(chan struct{})
	go runCompactionLoop(a, stopCompaction)
	defer close(stopCompaction)

	server := api.NewServer(a.store, a.cache, a.registry, a.writer, a.planner, a.cfg)
	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        server.Router(),
		ReadTimeout:    time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log := zlog.WithComponent("serve")
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// runCompactionLoop ticks every namespace at cfg.Compaction.CompactionIntervalSecs
// and forces a compaction pass on any namespace whose manifest has at least
// cfg.Compaction.MaxWALFragmentsBeforeCompact pending fragments. Compact
// itself is a no-op below MinFragmentsToCompact, so a short tick interval
// is safe to use even when there's nothing to do.
func runCompactionLoop(a *app, stop <-chan struct{}) {
	log := zlog.WithComponent("compaction_loop")
	interval := time.Duration(a.cfg.Compaction.CompactionIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, meta := range a.registry.List() {
				manifest, err := wal.ReadManifest(context.Background(), a.store, meta.Name)
				if err != nil {
					log.Warn().Err(err).Str("namespace", meta.Name).Msg("failed to read manifest for compaction check")
					continue
				}
				if len(manifest.Fragments) < a.cfg.Compaction.MaxWALFragmentsBeforeCompact {
					continue
				}
				result, err := a.compactor.Compact(context.Background(), meta.Name, meta.Dimensions, meta.DistanceMetric, indexingConfig(a.cfg.Indexing))
				if err != nil {
					log.Warn().Err(err).Str("namespace", meta.Name).Msg("compaction pass failed")
					continue
				}
				if result.Ran {
					log.Info().Str("namespace", meta.Name).Str("segment", result.NewSegmentID).Int("vectors", result.VectorCount).Msg("background compaction committed")
				}
			}
		}
	}
}
