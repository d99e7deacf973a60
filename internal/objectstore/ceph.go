//go:build ceph

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
	"strings"
	"sync"

	"github.com/ceph/go-ceph/rados"

	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// CephConfig describes how to reach a RADOS pool directly (bypassing the S3
// gateway). Built only with `-tags ceph`, since librados is a cgo
// dependency operators may not want in every build.
type CephConfig struct {
	UserName    string // e.g. "client.zeppelin"
	ClusterName string // usually "ceph"
	ConfFile    string // optional ceph.conf path
	Pool        string
}

// CephStore stores every key as a RADOS object named by the key itself
// within the configured pool. Prefix listing is implemented by a full pool
// iteration with client-side filtering since librados has no native
// prefix-scan primitive; fine for namespace-scale prefixes, not for a
// pool shared by millions of unrelated keys.
type CephStore struct {
	cfg CephConfig

	mu     sync.Mutex
	conn   *rados.Conn
	ioctx  *rados.IOContext
	opened bool
}

func NewCephStore(cfg CephConfig) *CephStore {
	return &CephStore{cfg: cfg}
}

// newCephStore adapts config.StorageConfig for New's backend switch.
func newCephStore(cfg config.StorageConfig) (Store, error) {
	return NewCephStore(CephConfig{
		UserName:    cfg.CephUserName,
		ClusterName: cfg.CephClusterName,
		ConfFile:    cfg.CephConfFile,
		Pool:        cfg.CephPool,
	}), nil
}

func (s *CephStore) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	conn, err := rados.NewConnWithClusterAndUser(s.cfg.ClusterName, s.cfg.UserName)
	if err != nil {
		return zerr.Storage(err)
	}
	if s.cfg.ConfFile != "" {
		if err := conn.ReadConfigFile(s.cfg.ConfFile); err != nil {
			return zerr.Storage(err)
		}
	} else {
		_ = conn.ReadDefaultConfigFile()
	}
	if err := conn.Connect(); err != nil {
		return zerr.Storage(err)
	}
	ioctx, err := conn.OpenIOContext(s.cfg.Pool)
	if err != nil {
		conn.Shutdown()
		return zerr.Storage(err)
	}
	s.conn = conn
	s.ioctx = ioctx
	s.opened = true
	return nil
}

func (s *CephStore) Put(_ context.Context, key string, data []byte) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.ioctx.WriteFull(key, data); err != nil {
		return zerr.Storage(err)
	}
	return nil
}

func (s *CephStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	stat, err := s.ioctx.Stat(key)
	if err != nil {
		return nil, zerr.NotFound(key)
	}
	data := make([]byte, stat.Size)
	n, err := s.ioctx.Read(key, data, 0)
	if err != nil {
		return nil, zerr.Storage(err)
	}
	return data[:n], nil
}

func (s *CephStore) Head(_ context.Context, key string) (int64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	stat, err := s.ioctx.Stat(key)
	if err != nil {
		return 0, zerr.NotFound(key)
	}
	return int64(stat.Size), nil
}

func (s *CephStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if zerr.Is(err, zerr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func (s *CephStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	iter, err := s.ioctx.Iter()
	if err != nil {
		return nil, zerr.Storage(err)
	}
	defer iter.Close()

	var keys []string
	for iter.Next() {
		name := iter.Value()
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}

func (s *CephStore) Delete(_ context.Context, key string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.ioctx.Delete(key); err != nil {
		return zerr.Storage(err)
	}
	return nil
}

func (s *CephStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
