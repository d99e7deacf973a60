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

	"github.com/gin-gonic/gin"

	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
)

type upsertVectorsRequest struct {
	Vectors []types.VectorEntry `json:"vectors"`
}

type upsertVectorsResponse struct {
	Upserted int `json:"upserted"`
}

type deleteVectorsRequest struct {
	IDs []types.VectorID `json:"ids"`
}

type deleteVectorsResponse struct {
	Deleted int `json:"deleted"`
}

func (s *Server) upsertVectors(c *gin.Context) {
	ns := c.Param("ns")
	meta, err := s.registry.Get(ns)
	if err != nil {
		respondError(c, err)
		return
	}

	var req upsertVectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}
	if len(req.Vectors) == 0 {
		validationError(c, "vectors must not be empty")
		return
	}
	if max := s.cfg.Server.MaxBatchSize; max > 0 && len(req.Vectors) > max {
		validationError(c, fmt.Sprintf("batch of %d vectors exceeds max_batch_size %d", len(req.Vectors), max))
		return
	}
	for _, v := range req.Vectors {
		if len(v.Values) != meta.Dimensions {
			respondError(c, zerr.DimensionMismatch(meta.Dimensions, len(v.Values)))
			return
		}
	}

	if _, err := s.writer.Append(c.Request.Context(), ns, req.Vectors, nil); err != nil {
		respondError(c, err)
		return
	}
	if err := s.registry.UpdateVectorCount(c.Request.Context(), ns, len(req.Vectors)); err != nil {
		respondError(c, err)
		return
	}

	s.events.publish(ns, event{Type: "vectors_upserted", Namespace: ns, Count: len(req.Vectors)})
	c.JSON(http.StatusOK, upsertVectorsResponse{Upserted: len(req.Vectors)})
}

func (s *Server) deleteVectors(c *gin.Context) {
	ns := c.Param("ns")
	if _, err := s.registry.Get(ns); err != nil {
		respondError(c, err)
		return
	}

	var req deleteVectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		validationError(c, "ids must not be empty")
		return
	}

	if _, err := s.writer.Append(c.Request.Context(), ns, nil, req.IDs); err != nil {
		respondError(c, err)
		return
	}
	if err := s.registry.UpdateVectorCount(c.Request.Context(), ns, -len(req.IDs)); err != nil {
		respondError(c, err)
		return
	}

	s.events.publish(ns, event{Type: "vectors_deleted", Namespace: ns, Count: len(req.IDs)})
	c.JSON(http.StatusOK, deleteVectorsResponse{Deleted: len(req.IDs)})
}
