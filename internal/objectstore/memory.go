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
	"sort"
	"strings"
	"sync"

	"github.com/launix-de/zeppelin/internal/zerr"
)

// MemoryStore is an in-process Store used by unit tests. No third-party
// library offers a meaningful wrapper around a plain guarded map; this is
// the one place in the package where the standard library is the right
// tool, not a gap.
type MemoryStore struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objs[key] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objs[key]
	if !ok {
		return nil, zerr.NotFound(key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objs[key]
	if !ok {
		return 0, zerr.NotFound(key)
	}
	return int64(len(data)), nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if zerr.Is(err, zerr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func (m *MemoryStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

func (m *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := m.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objs, k)
	}
	return len(keys), nil
}
