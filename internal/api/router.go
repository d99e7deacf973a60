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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// Router builds the gin engine for spec.md §6's HTTP surface: namespace
// CRUD, vector upsert/delete, the vector-search query path, and the
// health/readiness/metrics/events endpoints that sit alongside it.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestMetrics())

	r.GET("/healthz", s.healthCheck)
	r.GET("/readyz", s.readyCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1/namespaces")
	{
		v1.POST("", s.createNamespace)
		v1.GET("", s.listNamespaces)
		v1.GET("/:ns", s.getNamespace)
		v1.DELETE("/:ns", s.deleteNamespace)
		v1.POST("/:ns/vectors", s.upsertVectors)
		v1.POST("/:ns/vectors/delete", s.deleteVectors)
		v1.POST("/:ns/query", s.queryNamespace)
		v1.GET("/:ns/events", s.namespaceEvents)
	}

	return r
}

// requestLogger mirrors the teacher's structured-logging idiom (one
// zerolog event per request) rather than gin's default text logger.
func requestLogger() gin.HandlerFunc {
	log := zlog.WithComponent("api")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// requestMetrics increments zeppelin_http_requests_total per spec.md §10.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}
