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

package ivf

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/filter"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// SearchParams bundles the query-time knobs of spec.md §4.7.
type SearchParams struct {
	TopK             int
	NProbe           int
	Filter           *filter.Filter
	Metric           types.DistanceMetric
	OversampleFactor int
	Quantization     types.Quantization
}

type candidate struct {
	id         string
	values     []float32
	dist       float32
	clusterIdx int
}

// Search probes the NProbe clusters nearest the query and returns the TopK
// best-scoring, filter-satisfying vectors. All artifact fetches go through
// the disk cache; centroids are pinned on first fetch since every query
// touches them.
func Search(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, query []float32, params SearchParams) ([]types.SearchResult, error) {
	log := zlog.WithSegment(zlog.WithNamespace("ivf_search", namespace), segmentID)

	centroids, err := fetchCentroids(ctx, store, cache, namespace, segmentID)
	if err != nil {
		return nil, err
	}
	if len(centroids) == 0 {
		return nil, nil
	}
	if len(query) != len(centroids[0]) {
		return nil, zerr.DimensionMismatch(len(centroids[0]), len(query))
	}

	nprobe := params.NProbe
	if nprobe <= 0 || nprobe > len(centroids) {
		nprobe = len(centroids)
	}
	probed := nearestClusters(query, centroids, params.Metric, nprobe)

	fetchK := params.TopK
	if params.Filter != nil && params.OversampleFactor > 1 {
		fetchK = params.TopK * params.OversampleFactor
	}

	var candidates []candidate
	switch params.Quantization {
	case types.QuantizationScalar:
		candidates, err = searchQuantizedSQ8(ctx, store, cache, namespace, segmentID, query, probed, params.Metric, fetchK)
	case types.QuantizationPQ:
		candidates, err = searchQuantizedPQ(ctx, store, cache, namespace, segmentID, query, probed, params.Metric, fetchK)
	default:
		candidates, err = searchUnquantized(ctx, store, cache, namespace, segmentID, query, probed, params.Metric)
	}
	if err != nil {
		return nil, err
	}

	results, err := applyFilterAndRank(ctx, store, cache, namespace, segmentID, candidates, probed, params.Filter, params.TopK)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("nprobe", nprobe).Int("candidates", len(candidates)).Int("results", len(results)).Msg("ivf search complete")
	return results, nil
}

func fetchCentroids(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string) ([][]float32, error) {
	key := centroidsKey(namespace, segmentID)
	data, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return store.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	cache.Pin(key)
	var art centroidsArtifact
	if err := decodeArtifact(data, &art); err != nil {
		return nil, err
	}
	return art.Centroids, nil
}

func nearestClusters(query []float32, centroids [][]float32, metric types.DistanceMetric, nprobe int) []int {
	type scored struct {
		idx  int
		dist float32
	}
	scoredCentroids := make([]scored, len(centroids))
	for i, c := range centroids {
		scoredCentroids[i] = scored{idx: i, dist: Distance(metric, query, c)}
	}
	sort.Slice(scoredCentroids, func(i, j int) bool {
		if scoredCentroids[i].dist != scoredCentroids[j].dist {
			return scoredCentroids[i].dist < scoredCentroids[j].dist
		}
		return scoredCentroids[i].idx < scoredCentroids[j].idx
	})
	out := make([]int, nprobe)
	for i := 0; i < nprobe; i++ {
		out[i] = scoredCentroids[i].idx
	}
	return out
}

func fetchCluster(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, i int) (*clusterArtifact, error) {
	key := clusterKey(namespace, segmentID, i)
	data, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return store.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	var art clusterArtifact
	if err := decodeArtifact(data, &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// searchUnquantized fetches every probed cluster concurrently — each is an
// independent object-store round trip (cache misses aside), so probing
// NProbe > 1 clusters sequentially would pay their latency back-to-back for
// no reason. A corrupt or unreadable cluster is logged and skipped rather
// than failing the whole search, so the group's own error return is never
// used for propagation, only for its context-cancellation plumbing.
func searchUnquantized(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, query []float32, probed []int, metric types.DistanceMetric) ([]candidate, error) {
	log := zlog.WithSegment(zlog.WithNamespace("ivf_search", namespace), segmentID)

	var mu sync.Mutex
	var out []candidate

	g, gctx := errgroup.WithContext(ctx)
	for _, i := range probed {
		i := i
		g.Go(func() error {
			art, err := fetchCluster(gctx, store, cache, namespace, segmentID, i)
			if err != nil {
				log.Warn().Err(err).Int("cluster", i).Msg("skipping unreadable cluster during search")
				return nil
			}
			cands := make([]candidate, len(art.IDs))
			for j, id := range art.IDs {
				cands[j] = candidate{id: id, values: art.Values[j], dist: Distance(metric, query, art.Values[j]), clusterIdx: i}
			}
			mu.Lock()
			out = append(out, cands...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func searchQuantizedSQ8(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, query []float32, probed []int, metric types.DistanceMetric, fetchK int) ([]candidate, error) {
	key := sqCalibrationKey(namespace, segmentID)
	data, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, key) })
	if err != nil {
		return nil, err
	}
	cache.Pin(key)
	var calArt sqCalibrationArtifact
	if err := decodeArtifact(data, &calArt); err != nil {
		return nil, err
	}
	cal := SQ8Calibration{Min: calArt.Min, Scale: calArt.Scale}

	var approxCandidates []approxCandidate
	log := zlog.WithSegment(zlog.WithNamespace("ivf_search", namespace), segmentID)
	for _, i := range probed {
		ckey := sqClusterKey(namespace, segmentID, i)
		data, err := cache.GetOrFetch(ctx, ckey, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, ckey) })
		if err != nil {
			log.Warn().Err(err).Int("cluster", i).Msg("skipping unreadable SQ8 cluster during search")
			continue
		}
		var art sqClusterArtifact
		if err := decodeArtifact(data, &art); err != nil {
			log.Warn().Err(err).Int("cluster", i).Msg("skipping corrupt SQ8 cluster during search")
			continue
		}
		for j, id := range art.IDs {
			approxCandidates = append(approxCandidates, approxCandidate{id: id, dist: ApproxDistanceSQ8(metric, query, art.Codes[j], cal), cl: i})
		}
	}

	keepN := fetchK * 4
	sort.Slice(approxCandidates, func(i, j int) bool { return approxCandidates[i].dist < approxCandidates[j].dist })
	if keepN > 0 && keepN < len(approxCandidates) {
		approxCandidates = approxCandidates[:keepN]
	}

	return rerankExact(ctx, store, cache, namespace, segmentID, query, approxCandidates, metric)
}

func searchQuantizedPQ(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, query []float32, probed []int, metric types.DistanceMetric, fetchK int) ([]candidate, error) {
	key := pqCodebookKey(namespace, segmentID)
	data, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, key) })
	if err != nil {
		return nil, err
	}
	cache.Pin(key)
	var cbArt pqCodebookArtifact
	if err := decodeArtifact(data, &cbArt); err != nil {
		return nil, err
	}
	cb := PQCodebook{M: cbArt.M, SubDim: cbArt.SubDim, Centroids: cbArt.Centroids}
	table := BuildPQLookupTable(query, cb, metric)

	var approxCandidates []approxCandidate
	log := zlog.WithSegment(zlog.WithNamespace("ivf_search", namespace), segmentID)
	for _, i := range probed {
		ckey := pqClusterKey(namespace, segmentID, i)
		data, err := cache.GetOrFetch(ctx, ckey, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, ckey) })
		if err != nil {
			log.Warn().Err(err).Int("cluster", i).Msg("skipping unreadable PQ cluster during search")
			continue
		}
		var art pqClusterArtifact
		if err := decodeArtifact(data, &art); err != nil {
			log.Warn().Err(err).Int("cluster", i).Msg("skipping corrupt PQ cluster during search")
			continue
		}
		for j, id := range art.IDs {
			approxCandidates = append(approxCandidates, approxCandidate{id: id, dist: ApproxDistancePQ(art.Codes[j], table), cl: i})
		}
	}

	keepN := fetchK * 4
	sort.Slice(approxCandidates, func(i, j int) bool { return approxCandidates[i].dist < approxCandidates[j].dist })
	if keepN > 0 && keepN < len(approxCandidates) {
		approxCandidates = approxCandidates[:keepN]
	}

	return rerankExact(ctx, store, cache, namespace, segmentID, query, approxCandidates, metric)
}

type approxCandidate struct {
	id   string
	dist float32
	cl   int
}

// rerankExact fetches full-precision vectors for the approximate
// candidates, grouped by cluster to amortize fetches, and recomputes exact
// distances.
func rerankExact(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, query []float32, approxCandidates []approxCandidate, metric types.DistanceMetric) ([]candidate, error) {
	byCluster := make(map[int][]approxCandidate)
	for _, c := range approxCandidates {
		byCluster[c.cl] = append(byCluster[c.cl], c)
	}

	var out []candidate
	for cl, members := range byCluster {
		art, err := fetchCluster(ctx, store, cache, namespace, segmentID, cl)
		if err != nil {
			continue
		}
		byID := make(map[string][]float32, len(art.IDs))
		for j, id := range art.IDs {
			byID[id] = art.Values[j]
		}
		for _, m := range members {
			values, ok := byID[m.id]
			if !ok {
				continue
			}
			out = append(out, candidate{id: m.id, values: values, dist: Distance(metric, query, values), clusterIdx: cl})
		}
	}
	return out, nil
}

func applyFilterAndRank(ctx context.Context, store objectstore.Store, cache *diskcache.Cache, namespace, segmentID string, candidates []candidate, probed []int, f *filter.Filter, topK int) ([]types.SearchResult, error) {
	var attrsByCluster map[int]*attrsArtifact
	var idIndexByCluster map[int]map[string]int
	if f != nil {
		attrsByCluster = make(map[int]*attrsArtifact)
		idIndexByCluster = make(map[int]map[string]int)
		log := zlog.WithNamespace("ivf_search", namespace)
		for _, i := range probed {
			key := attrsKey(namespace, segmentID, i)
			data, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, key) })
			if err != nil {
				log.Warn().Err(err).Int("cluster", i).Msg("skipping unreadable attrs during filtered search")
				continue
			}
			var art attrsArtifact
			if err := decodeArtifact(data, &art); err != nil {
				continue
			}
			attrsByCluster[i] = &art

			ckey := clusterKey(namespace, segmentID, i)
			cdata, err := cache.GetOrFetch(ctx, ckey, func(ctx context.Context) ([]byte, error) { return store.Get(ctx, ckey) })
			if err != nil {
				continue
			}
			var cart clusterArtifact
			if err := decodeArtifact(cdata, &cart); err != nil {
				continue
			}
			idx := make(map[string]int, len(cart.IDs))
			for j, id := range cart.IDs {
				idx[id] = j
			}
			idIndexByCluster[i] = idx
		}
	}

	results := make([]types.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		var attrs map[string]types.AttributeValue
		if f != nil {
			art, ok := attrsByCluster[c.clusterIdx]
			idx, hasIdx := idIndexByCluster[c.clusterIdx]
			if !ok || !hasIdx {
				continue
			}
			pos, ok := idx[c.id]
			if !ok || pos >= len(art.Records) {
				continue
			}
			attrs = art.Records[pos]
			if !filter.Evaluate(f, attrs) {
				continue
			}
		}
		results = append(results, types.SearchResult{ID: c.id, Score: c.dist, Attributes: attrs})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
