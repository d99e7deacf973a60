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

// Package config loads Zeppelin's configuration from a YAML file,
// ZEPPELIN_-prefixed environment variables, and CLI flags, in that order
// of increasing precedence, and watches the file for reloadable changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/launix-de/zeppelin/internal/types"
)

// StorageBackend selects which objectstore.Store implementation to build.
type StorageBackend string

const (
	StorageFile StorageBackend = "file"
	StorageS3   StorageBackend = "s3"
	StorageCeph StorageBackend = "ceph"
)

type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`

	FileBasePath string `yaml:"file_base_path"`

	S3Bucket         string `yaml:"s3_bucket"`
	S3Region         string `yaml:"s3_region"`
	S3Endpoint       string `yaml:"s3_endpoint"`
	S3AccessKeyID    string `yaml:"s3_access_key_id"`
	S3SecretKey      string `yaml:"s3_secret_access_key"`
	S3ForcePathStyle bool   `yaml:"s3_force_path_style"`

	CephUserName    string `yaml:"ceph_user_name"`
	CephClusterName string `yaml:"ceph_cluster_name"`
	CephConfFile    string `yaml:"ceph_conf_file"`
	CephPool        string `yaml:"ceph_pool"`
}

type IndexingConfig struct {
	DefaultNumCentroids      int                 `yaml:"default_num_centroids"`
	KMeansMaxIterations      int                 `yaml:"kmeans_max_iterations"`
	KMeansConvergenceEpsilon float64             `yaml:"kmeans_convergence_epsilon"`
	SampleSize               int                 `yaml:"sample_size"`
	DefaultNProbe            int                 `yaml:"default_nprobe"` // reloadable
	MaxNProbe                int                 `yaml:"max_nprobe"`     // reloadable
	OversampleFactor         int                 `yaml:"oversample_factor"`
	Quantization             types.Quantization  `yaml:"quantization"`
	PQSubquantizers          int                 `yaml:"pq_subquantizers"`
}

type CompactionConfig struct {
	MinFragmentsToCompact        int `yaml:"min_fragments_to_compact"`         // reloadable
	MaxWALFragmentsBeforeCompact int `yaml:"max_wal_fragments_before_compact"` // reloadable
	CompactionIntervalSecs       int `yaml:"compaction_interval_secs"`         // reloadable
}

type CacheConfig struct {
	Directory string `yaml:"directory"`
	MaxBytes  string `yaml:"max_bytes"`
}

// MaxBytesParsed parses the human-readable byte size ("2GiB", "512MB").
func (c CacheConfig) MaxBytesParsed() (int64, error) {
	if c.MaxBytes == "" {
		return 1 << 30, nil // 1GiB default
	}
	return units.RAMInBytes(c.MaxBytes)
}

type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	MaxBatchSize       int    `yaml:"max_batch_size"`
	MaxTopK            int    `yaml:"max_top_k"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"` // reloadable
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSONOutput bool   `yaml:"json_output"`
}

// Config is Zeppelin's full runtime configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Compaction CompactionConfig `yaml:"compaction"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Default returns Zeppelin's zero-config default, a local file-backed
// single-node setup.
func Default() Config {
	return Config{
		Storage: StorageConfig{Backend: StorageFile, FileBasePath: "./data"},
		Indexing: IndexingConfig{
			DefaultNumCentroids:      256,
			KMeansMaxIterations:      25,
			KMeansConvergenceEpsilon: 1e-4,
			SampleSize:               100_000,
			DefaultNProbe:            8,
			MaxNProbe:                64,
			OversampleFactor:         4,
			Quantization:             types.QuantizationNone,
			PQSubquantizers:          8,
		},
		Compaction: CompactionConfig{
			MinFragmentsToCompact:        4,
			MaxWALFragmentsBeforeCompact: 64,
			CompactionIntervalSecs:       30,
		},
		Cache: CacheConfig{Directory: "./cache", MaxBytes: "1GiB"},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			MaxBatchSize:       1000,
			MaxTopK:            1000,
			RequestTimeoutSecs: 30,
		},
		Logging: LoggingConfig{Level: "info", JSONOutput: true},
	}
}

// Load builds a Config by layering a YAML file, ZEPPELIN_-prefixed
// environment variables, and bound pflag flags, in that order. A missing
// file at path is not an error; Default() values are used instead.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %q: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	return cfg, nil
}

// applyEnv overrides fields whose ZEPPELIN_-prefixed environment variable
// is set, covering the subset of fields operators commonly override
// without a config file.
func applyEnv(cfg *Config) {
	if v, ok := lookupEnv("STORAGE_BACKEND"); ok {
		cfg.Storage.Backend = StorageBackend(v)
	}
	if v, ok := lookupEnv("STORAGE_FILE_BASE_PATH"); ok {
		cfg.Storage.FileBasePath = v
	}
	if v, ok := lookupEnv("STORAGE_S3_BUCKET"); ok {
		cfg.Storage.S3Bucket = v
	}
	if v, ok := lookupEnv("STORAGE_S3_REGION"); ok {
		cfg.Storage.S3Region = v
	}
	if v, ok := lookupEnv("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv("SERVER_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v, ok := lookupEnv("CACHE_DIRECTORY"); ok {
		cfg.Cache.Directory = v
	}
	if v, ok := lookupEnv("CACHE_MAX_BYTES"); ok {
		cfg.Cache.MaxBytes = v
	}
	if v, ok := lookupEnv("INDEXING_DEFAULT_NPROBE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexing.DefaultNProbe = n
		}
	}
	if v, ok := lookupEnv("LOGGING_LEVEL"); ok {
		cfg.Logging.Level = v
	}
}

const envPrefix = "ZEPPELIN_"

func lookupEnv(suffix string) (string, bool) {
	return os.LookupEnv(envPrefix + suffix)
}

// applyFlags overrides fields from pflag flags that were explicitly set on
// the command line, leaving unset flags to the file/env-derived values.
func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = f.Value.String()
		case "port":
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.Server.Port = n
			}
		case "storage-backend":
			cfg.Storage.Backend = StorageBackend(f.Value.String())
		case "cache-directory":
			cfg.Cache.Directory = f.Value.String()
		case "log-level":
			cfg.Logging.Level = f.Value.String()
		}
	})
}

// ApplyReloadable copies only the fields spec.md marks reloadable
// (indexing.default_nprobe, indexing.max_nprobe, compaction.*,
// server.request_timeout_secs) from fresh into cfg. Everything else —
// storage backend, listen address, dimensions — is fixed at startup and
// untouched even if the file on disk changed it.
func ApplyReloadable(cfg *Config, fresh Config) {
	cfg.Indexing.DefaultNProbe = fresh.Indexing.DefaultNProbe
	cfg.Indexing.MaxNProbe = fresh.Indexing.MaxNProbe
	cfg.Compaction.MinFragmentsToCompact = fresh.Compaction.MinFragmentsToCompact
	cfg.Compaction.MaxWALFragmentsBeforeCompact = fresh.Compaction.MaxWALFragmentsBeforeCompact
	cfg.Compaction.CompactionIntervalSecs = fresh.Compaction.CompactionIntervalSecs
	cfg.Server.RequestTimeoutSecs = fresh.Server.RequestTimeoutSecs
}

// NormalizeFTSFields trims and drops empty field names, used when parsing
// a namespace's full_text_search config list from request bodies.
func NormalizeFTSFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
