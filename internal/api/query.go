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

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/launix-de/zeppelin/internal/filter"
	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/query"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// queryRequest's vector field is the only supported ranking mode; there is
// no rank_by (BM25 lexical ranking) field. A namespace's full_text_search
// fields are accepted on creation as configuration but have no query-time
// execution path here.
type queryRequest struct {
	Vector      []float32              `json:"vector" binding:"required"`
	TopK        int                    `json:"top_k"`
	Filter      *filter.Filter         `json:"filter"`
	Consistency types.ConsistencyLevel `json:"consistency"`
	NProbe      *int                   `json:"nprobe"`
}

type queryResponse struct {
	Results          []types.SearchResult `json:"results"`
	ScannedFragments int                  `json:"scanned_fragments"`
	ScannedSegments  int                  `json:"scanned_segments"`
}

func (s *Server) queryNamespace(c *gin.Context) {
	ns := c.Param("ns")
	meta, err := s.registry.Get(ns)
	if err != nil {
		respondError(c, err)
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if req.TopK == 0 {
		req.TopK = 10
	}
	if req.TopK > s.cfg.Server.MaxTopK {
		validationError(c, fmt.Sprintf("top_k %d exceeds maximum of %d", req.TopK, s.cfg.Server.MaxTopK))
		return
	}
	if len(req.Vector) != meta.Dimensions {
		respondError(c, zerr.DimensionMismatch(meta.Dimensions, len(req.Vector)))
		return
	}
	if req.Consistency == "" {
		req.Consistency = types.Strong
	}

	nprobe := s.cfg.Indexing.DefaultNProbe
	if req.NProbe != nil {
		nprobe = *req.NProbe
	}
	if nprobe > s.cfg.Indexing.MaxNProbe {
		nprobe = s.cfg.Indexing.MaxNProbe
	}

	metrics.QueriesTotal.WithLabelValues(ns).Inc()
	start := time.Now()

	resp, err := s.planner.Run(c.Request.Context(), query.Params{
		Namespace:        ns,
		Query:            req.Vector,
		TopK:             req.TopK,
		NProbe:           nprobe,
		Filter:           req.Filter,
		Consistency:      req.Consistency,
		Metric:           meta.DistanceMetric,
		OversampleFactor: s.cfg.Indexing.OversampleFactor,
	})

	metrics.QueryDuration.WithLabelValues(ns).Observe(time.Since(start).Seconds())

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, queryResponse{
		Results:          resp.Results,
		ScannedFragments: resp.ScannedFragments,
		ScannedSegments:  resp.ScannedSegments,
	})
}
