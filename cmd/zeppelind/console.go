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
	"io"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/launix-de/zeppelin/internal/compaction"
	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/namespace"
	"github.com/launix-de/zeppelin/internal/query"
	"github.com/launix-de/zeppelin/internal/types"
)

const (
	consolePrompt     = "\033[32mzeppelin>\033[0m "
	consoleResultMark = "\033[31m=\033[0m "
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "interactive admin shell over the in-process managers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runConsole(a)
		},
	}
}

// runConsole is a readline shell over the same managers `serve` builds: it
// talks to the registry/writer/planner/compactor directly, in-process,
// rather than through the HTTP API.
func runConsole(a *app) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            consolePrompt,
		HistoryFile:       ".zeppelind-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	fmt.Println(`Zeppelin admin console. Type "help" for commands, "exit" to quit.`)

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r, string(debug.Stack()))
				}
			}()
			runConsoleCommand(a, line)
		}()
	}
}

func runConsoleCommand(a *app, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	ctx := context.Background()

	switch cmd {
	case "help":
		fmt.Println(`commands:
  list                                       list namespaces
  get <ns>                                   show namespace metadata
  create <ns> <dimensions> [metric]          create a namespace (metric defaults to cosine)
  delete <ns>                                delete a namespace
  compact <ns> [--force]                     run a compaction pass
  query <ns> <v1,v2,...> [top_k]             run a strong-consistency query
  exit                                       leave the console`)

	case "list":
		for _, m := range a.registry.List() {
			fmt.Printf("%s  dims=%d  metric=%s  vectors=%d\n", m.Name, m.Dimensions, m.DistanceMetric, m.VectorCount)
		}

	case "get":
		if len(args) < 1 {
			fmt.Println("usage: get <ns>")
			return
		}
		meta, err := a.registry.Get(args[0])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%+v\n", meta)

	case "create":
		if len(args) < 2 {
			fmt.Println("usage: create <ns> <dimensions> [metric]")
			return
		}
		dims, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("error: dimensions must be an integer")
			return
		}
		metric := types.Cosine
		if len(args) >= 3 {
			metric = types.DistanceMetric(args[2])
		}
		meta, err := a.registry.Create(ctx, args[0], dims, metric, nil)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%s %s\n", consoleResultMark, meta.Name)

	case "delete":
		if len(args) < 1 {
			fmt.Println("usage: delete <ns>")
			return
		}
		if err := a.registry.Delete(ctx, args[0]); err != nil {
			fmt.Println("error:", err)
			return
		}
		if _, err := a.store.DeletePrefix(ctx, args[0]+"/"); err != nil {
			fmt.Println("error:", err)
			return
		}
		a.cache.InvalidatePrefix(args[0] + "/")
		fmt.Println(consoleResultMark, "deleted")

	case "compact":
		if len(args) < 1 {
			fmt.Println("usage: compact <ns> [--force]")
			return
		}
		meta, err := a.registry.Get(args[0])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		compactor := a.compactor
		if len(args) >= 2 && args[1] == "--force" {
			compactor = compaction.NewCompactor(a.store, a.cache, compaction.Config{
				MinFragmentsToCompact: 0,
				GCDelay:               compaction.DefaultConfig().GCDelay,
			})
		}
		result, err := compactor.Compact(ctx, meta.Name, meta.Dimensions, meta.DistanceMetric, indexingConfig(a.cfg.Indexing))
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%s ran=%v segment=%s vectors=%d\n", consoleResultMark, result.Ran, result.NewSegmentID, result.VectorCount)

	case "query":
		if len(args) < 2 {
			fmt.Println("usage: query <ns> <v1,v2,...> [top_k]")
			return
		}
		meta, err := a.registry.Get(args[0])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		vec, err := parseVector(args[1])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		topK := 10
		if len(args) >= 3 {
			if n, err := strconv.Atoi(args[2]); err == nil {
				topK = n
			}
		}
		resp, err := a.planner.Run(ctx, queryParams(meta, vec, topK, a.cfg))
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		for _, r := range resp.Results {
			fmt.Printf("%s  score=%.6f\n", r.ID, r.Score)
		}
		fmt.Printf("scanned_fragments=%d scanned_segments=%d\n", resp.ScannedFragments, resp.ScannedSegments)

	default:
		fmt.Printf("unknown command %q, type \"help\"\n", cmd)
	}
}

// queryParams builds a strong-consistency query.Params from console
// arguments, using the namespace's own metric and the config's default
// nprobe/oversample knobs — the same defaults the HTTP query handler
// applies when a caller omits them.
func queryParams(meta *namespace.Metadata, vec []float32, topK int, cfg config.Config) query.Params {
	return query.Params{
		Namespace:        meta.Name,
		Query:            vec,
		TopK:             topK,
		NProbe:           cfg.Indexing.DefaultNProbe,
		Consistency:      types.Strong,
		Metric:           meta.DistanceMetric,
		OversampleFactor: cfg.Indexing.OversampleFactor,
	}
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
