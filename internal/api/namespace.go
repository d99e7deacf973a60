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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/namespace"
	"github.com/launix-de/zeppelin/internal/types"
)

type createNamespaceRequest struct {
	Name           string               `json:"name" binding:"required"`
	Dimensions     int                  `json:"dimensions" binding:"required"`
	DistanceMetric types.DistanceMetric `json:"distance_metric"`
	FullTextSearch *namespaceFTSRequest `json:"full_text_search"`
}

type namespaceFTSRequest struct {
	Fields []string `json:"fields"`
}

type namespaceResponse struct {
	Name           string               `json:"name"`
	Dimensions     int                  `json:"dimensions"`
	DistanceMetric types.DistanceMetric `json:"distance_metric"`
	VectorCount    int                  `json:"vector_count"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
	FTSConfig      *namespace.FTSConfig `json:"fts_config,omitempty"`
}

func namespaceToResponse(meta *namespace.Metadata) namespaceResponse {
	return namespaceResponse{
		Name:           meta.Name,
		Dimensions:     meta.Dimensions,
		DistanceMetric: meta.DistanceMetric,
		VectorCount:    meta.VectorCount,
		CreatedAt:      meta.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      meta.UpdatedAt.Format(time.RFC3339),
		FTSConfig:      meta.FTSConfig,
	}
}

func (s *Server) createNamespace(c *gin.Context) {
	var req createNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}
	if req.DistanceMetric == "" {
		req.DistanceMetric = types.Cosine
	}

	var fts *namespace.FTSConfig
	if req.FullTextSearch != nil {
		fts = &namespace.FTSConfig{Fields: config.NormalizeFTSFields(req.FullTextSearch.Fields)}
	}

	meta, err := s.registry.Create(c.Request.Context(), req.Name, req.Dimensions, req.DistanceMetric, fts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, namespaceToResponse(meta))
}

func (s *Server) listNamespaces(c *gin.Context) {
	metas := s.registry.List()
	out := make([]namespaceResponse, len(metas))
	for i, m := range metas {
		out[i] = namespaceToResponse(m)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getNamespace(c *gin.Context) {
	meta, err := s.registry.Get(c.Param("ns"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, namespaceToResponse(meta))
}

func (s *Server) deleteNamespace(c *gin.Context) {
	ns := c.Param("ns")
	if err := s.registry.Delete(c.Request.Context(), ns); err != nil {
		respondError(c, err)
		return
	}
	if _, err := s.store.DeletePrefix(c.Request.Context(), ns+"/"); err != nil {
		respondError(c, err)
		return
	}
	s.cache.InvalidatePrefix(ns + "/")
	c.Status(http.StatusNoContent)
}
