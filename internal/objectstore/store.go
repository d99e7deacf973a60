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

// Package objectstore defines the capability set every Zeppelin persistence
// backend must implement (spec.md §4.1) and provides three backends: S3
// (primary), a local filesystem backend (dev/tests), and an in-memory
// backend (unit tests). A Ceph/RADOS backend is available under the "ceph"
// build tag.
package objectstore

import "context"

// Store is the capability set of spec.md §4.1. All operations may fail with
// a transport error; callers treat failures as retriable at the request
// level only — no operation here retries internally.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error) // returns *zerr.Error{Kind: KindNotFound} if absent
	Head(ctx context.Context, key string) (size int64, err error)
	Exists(ctx context.Context, key string) (bool, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (count int, err error)
}
