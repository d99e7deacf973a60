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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/types"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, FileBasePath: t.TempDir()}
	cfg.Cache.Directory = t.TempDir()
	return cfg
}

func TestNewApp_WiresEverySubsystem(t *testing.T) {
	cfg := testConfig(t)

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, a.store)
	assert.NotNil(t, a.cache)
	assert.NotNil(t, a.registry)
	assert.NotNil(t, a.writer)
	assert.NotNil(t, a.planner)
	assert.NotNil(t, a.compactor)
	assert.Empty(t, a.registry.List())
}

func TestNewApp_SurvivesExistingNamespaces(t *testing.T) {
	cfg := testConfig(t)

	first, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	_, err = first.registry.Create(context.Background(), "orders", 8, types.Cosine, nil)
	require.NoError(t, err)

	second, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	metas := second.registry.List()
	require.Len(t, metas, 1)
	assert.Equal(t, "orders", metas[0].Name)
}

func TestNewApp_UnknownStorageBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = config.StorageBackend("bogus")

	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewApp_InvalidCacheSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.MaxBytes = "not-a-size"

	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestIndexingConfig_CopiesEveryField(t *testing.T) {
	c := config.IndexingConfig{
		DefaultNumCentroids:      128,
		KMeansMaxIterations:      10,
		KMeansConvergenceEpsilon: 1e-3,
		SampleSize:               5000,
		DefaultNProbe:            4,
		MaxNProbe:                32,
		OversampleFactor:         2,
		Quantization:             types.QuantizationScalar,
		PQSubquantizers:          16,
	}

	out := indexingConfig(c)

	assert.Equal(t, c.DefaultNumCentroids, out.DefaultNumCentroids)
	assert.Equal(t, c.KMeansMaxIterations, out.KMeansMaxIterations)
	assert.Equal(t, c.KMeansConvergenceEpsilon, out.KMeansConvergenceEpsilon)
	assert.Equal(t, c.SampleSize, out.SampleSize)
	assert.Equal(t, c.DefaultNProbe, out.DefaultNProbe)
	assert.Equal(t, c.MaxNProbe, out.MaxNProbe)
	assert.Equal(t, c.OversampleFactor, out.OversampleFactor)
	assert.Equal(t, c.Quantization, out.Quantization)
	assert.Equal(t, c.PQSubquantizers, out.PQSubquantizers)
}
