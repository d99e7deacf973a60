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

// Package query plans and executes searches: the eventual-consistency path
// goes straight to the IVF segment, the strong-consistency path also
// replays the WAL and merges, since the WAL is authoritative for any id it
// mentions.
package query

import (
	"context"
	"sort"

	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/filter"
	"github.com/launix-de/zeppelin/internal/ivf"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/wal"
)

// Params bundles a query's inputs, per spec.md §4.8. Quantization is not
// here: it is a property of whichever segment is active, recorded in its
// SegmentRef, and the planner looks it up rather than trusting the caller
// to know what a segment it hasn't read yet was built with.
type Params struct {
	Namespace        string
	Query            []float32
	TopK             int
	NProbe           int
	Filter           *filter.Filter
	Consistency      types.ConsistencyLevel
	Metric           types.DistanceMetric
	OversampleFactor int
}

// Response carries results plus the scan accounting spec.md requires for
// observability.
type Response struct {
	Results          []types.SearchResult
	ScannedFragments int
	ScannedSegments  int
}

// Planner executes queries against a namespace's manifest, object store,
// and disk cache.
type Planner struct {
	store objectstore.Store
	cache *diskcache.Cache
}

func NewPlanner(store objectstore.Store, cache *diskcache.Cache) *Planner {
	return &Planner{store: store, cache: cache}
}

// Run reads the manifest once, then dispatches to the eventual or strong
// path. The manifest read is the query's consistency snapshot: a fragment
// appended after this read is not visible even under strong consistency.
func (p *Planner) Run(ctx context.Context, params Params) (*Response, error) {
	manifest, err := wal.ReadManifest(ctx, p.store, params.Namespace)
	if err != nil {
		return nil, err
	}

	if params.Consistency == types.Strong {
		return p.runStrong(ctx, params, manifest)
	}
	return p.runEventual(ctx, params, manifest)
}

func (p *Planner) runEventual(ctx context.Context, params Params, manifest *wal.Manifest) (*Response, error) {
	if manifest.ActiveSegment == "" {
		return &Response{Results: nil, ScannedFragments: 0, ScannedSegments: 0}, nil
	}

	results, err := p.searchSegment(ctx, params, manifest, manifest.ActiveSegment)
	if err != nil {
		return nil, err
	}
	return &Response{Results: truncate(results, params.TopK), ScannedFragments: 0, ScannedSegments: 1}, nil
}

func (p *Planner) runStrong(ctx context.Context, params Params, manifest *wal.Manifest) (*Response, error) {
	// read exactly the fragments this query's manifest snapshot references
	reader := wal.NewReader(p.store)
	var err error
	fragments := make([]*wal.Fragment, 0, len(manifest.Fragments))
	for _, ref := range manifest.Fragments {
		f, err := reader.ReadFragment(ctx, params.Namespace, ref.ID)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].ID < fragments[j].ID })

	walResults, tombstones := walScan(fragments, params)

	scannedSegments := 0
	var segmentResults []types.SearchResult
	if manifest.ActiveSegment != "" {
		scannedSegments = 1
		segmentResults, err = p.searchSegment(ctx, params, manifest, manifest.ActiveSegment)
		if err != nil {
			return nil, err
		}
	}

	merged := mergeWalAuthoritative(walResults, segmentResults, tombstones)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Score < merged[j].Score })

	return &Response{
		Results:          truncate(merged, params.TopK),
		ScannedFragments: len(fragments),
		ScannedSegments:  scannedSegments,
	}, nil
}

func (p *Planner) searchSegment(ctx context.Context, params Params, manifest *wal.Manifest, segmentID string) ([]types.SearchResult, error) {
	return ivf.Search(ctx, p.store, p.cache, params.Namespace, segmentID, params.Query, ivf.SearchParams{
		TopK:             params.TopK,
		NProbe:           params.NProbe,
		Filter:           params.Filter,
		Metric:           params.Metric,
		OversampleFactor: params.OversampleFactor,
		Quantization:     segmentQuantization(manifest, segmentID),
	})
}

// segmentQuantization looks up the quantization scheme a given segment was
// built with, so the search path decodes its artifacts correctly even if
// the namespace's default quantization configuration has since changed.
func segmentQuantization(manifest *wal.Manifest, segmentID string) types.Quantization {
	for _, seg := range manifest.Segments {
		if seg.ID == segmentID {
			return seg.Quantization
		}
	}
	return types.QuantizationNone
}

// walScan replays fragments in ID order into id -> latest(values,
// attributes), maintaining a tombstone set, then filters and scores every
// surviving vector. The tombstone set is returned alongside the live
// results so callers can drop ids the WAL has deleted from any other
// source they merge in, not just from live.
func walScan(fragments []*wal.Fragment, params Params) ([]types.SearchResult, map[string]struct{}) {
	live := make(map[string]types.VectorEntry)
	tombstones := make(map[string]struct{})

	for _, f := range fragments {
		for _, id := range f.Deletes {
			delete(live, id)
			tombstones[id] = struct{}{}
		}
		for _, v := range f.Vectors {
			delete(tombstones, v.ID)
			live[v.ID] = v
		}
	}

	out := make([]types.SearchResult, 0, len(live))
	for _, v := range live {
		if params.Filter != nil && !filter.Evaluate(params.Filter, v.Attributes) {
			continue
		}
		out = append(out, types.SearchResult{
			ID:         v.ID,
			Score:      ivf.Distance(params.Metric, params.Query, v.Values),
			Attributes: v.Attributes,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, tombstones
}

// mergeWalAuthoritative drops any segment result whose id the WAL scan
// already covers or has tombstoned, then concatenates: the WAL is
// authoritative for any id it mentions, since those mutations postdate the
// segment's build, and a delete recorded there must hide a stale segment
// hit even though the segment itself has no idea the id was ever removed.
func mergeWalAuthoritative(walResults, segmentResults []types.SearchResult, tombstones map[string]struct{}) []types.SearchResult {
	seen := make(map[string]struct{}, len(walResults))
	for _, r := range walResults {
		seen[r.ID] = struct{}{}
	}

	out := make([]types.SearchResult, 0, len(walResults)+len(segmentResults))
	out = append(out, walResults...)
	for _, r := range segmentResults {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		if _, ok := tombstones[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func truncate(results []types.SearchResult, topK int) []types.SearchResult {
	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}
