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
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/launix-de/zeppelin/internal/zerr"
)

// FileStore backs Store with a local directory tree, one file per key. It
// exists for local development and for tests that want real filesystem
// semantics without a network dependency.
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.basePath, filepath.FromSlash(key))
}

func (f *FileStore) Put(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return zerr.Storage(err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return zerr.Storage(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return zerr.Storage(err)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.NotFound(key)
		}
		return nil, zerr.Storage(err)
	}
	return data, nil
}

func (f *FileStore) Head(_ context.Context, key string) (int64, error) {
	fi, err := os.Stat(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, zerr.NotFound(key)
		}
		return 0, zerr.Storage(err)
	}
	return fi.Size(), nil
}

func (f *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := f.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if zerr.Is(err, zerr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func (f *FileStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.Walk(f.basePath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(f.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.Storage(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return zerr.Storage(err)
	}
	return nil
}

func (f *FileStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := f.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, k := range keys {
		if err := f.Delete(ctx, k); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
