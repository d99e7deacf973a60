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

package objectstore

import (
	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// New builds the Store backend named by cfg.Backend. The ceph backend is
// only available in binaries built with `-tags ceph`; elsewhere it returns
// an error naming the missing build tag rather than panicking at runtime.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageFile:
		return NewFileStore(cfg.FileBasePath), nil
	case config.StorageS3:
		return NewS3Store(S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3Bucket,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		}), nil
	case config.StorageCeph:
		return newCephStore(cfg)
	default:
		return nil, zerr.Validation("unknown storage backend: " + string(cfg.Backend))
	}
}
