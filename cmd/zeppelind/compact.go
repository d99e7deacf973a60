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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/launix-de/zeppelin/internal/compaction"
)

func newCompactCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "compact <namespace>",
		Short: "force a single compaction pass on a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			meta, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}

			if force {
				a.compactor = compaction.NewCompactor(a.store, a.cache, compaction.Config{
					MinFragmentsToCompact: 0,
					GCDelay:               compaction.DefaultConfig().GCDelay,
				})
			}

			result, err := a.compactor.Compact(ctx, meta.Name, meta.Dimensions, meta.DistanceMetric, indexingConfig(a.cfg.Indexing))
			if err != nil {
				return err
			}
			if !result.Ran {
				fmt.Printf("no-op: fewer than min_fragments_to_compact pending fragments for %q\n", args[0])
				return nil
			}
			fmt.Printf("compacted %q: segment=%s vectors=%d fragments_consumed=%d\n", args[0], result.NewSegmentID, result.VectorCount, result.FragmentCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "compact even if fewer than min_fragments_to_compact fragments are pending")
	return cmd
}
