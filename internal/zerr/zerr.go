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

// Package zerr defines Zeppelin's error taxonomy: one Kind per row of the
// spec's error table, each mapping to exactly one HTTP status code.
package zerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNamespaceNotFound
	KindManifestNotFound
	KindNamespaceAlreadyExists
	KindDimensionMismatch
	KindValidation
	KindIndexNotBuilt
	KindChecksumMismatch
	KindStorage
	KindSerialization
	KindKMeansConvergence
	KindCompaction
	KindCache
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNamespaceNotFound:
		return "namespace_not_found"
	case KindManifestNotFound:
		return "manifest_not_found"
	case KindNamespaceAlreadyExists:
		return "namespace_already_exists"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindValidation:
		return "validation"
	case KindIndexNotBuilt:
		return "index_not_built"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindStorage:
		return "storage"
	case KindSerialization:
		return "serialization"
	case KindKMeansConvergence:
		return "kmeans_convergence"
	case KindCompaction:
		return "compaction"
	case KindCache:
		return "cache"
	default:
		return "internal"
	}
}

// StatusCode returns the HTTP status this Kind maps to, per spec §7.
func (k Kind) StatusCode() int {
	switch k {
	case KindNotFound, KindNamespaceNotFound, KindManifestNotFound:
		return 404
	case KindNamespaceAlreadyExists:
		return 409
	case KindDimensionMismatch, KindValidation:
		return 400
	case KindIndexNotBuilt:
		return 503
	default:
		return 500
	}
}

// Error is the concrete error type returned across all Zeppelin packages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) StatusCode() int { return e.Kind.StatusCode() }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var ze *Error
	if errors.As(err, &ze) {
		return ze.Kind == kind
	}
	return false
}

func NotFound(key string) *Error {
	return New(KindNotFound, fmt.Sprintf("object not found: %s", key))
}

func NamespaceNotFound(ns string) *Error {
	return New(KindNamespaceNotFound, fmt.Sprintf("namespace not found: %s", ns))
}

func ManifestNotFound(ns string) *Error {
	return New(KindManifestNotFound, fmt.Sprintf("manifest not found for namespace: %s", ns))
}

func NamespaceAlreadyExists(ns string) *Error {
	return New(KindNamespaceAlreadyExists, fmt.Sprintf("namespace already exists: %s", ns))
}

func DimensionMismatch(expected, actual int) *Error {
	return New(KindDimensionMismatch, fmt.Sprintf("dimension mismatch: expected %d, got %d", expected, actual))
}

func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

func IndexNotBuilt(ns string) *Error {
	return New(KindIndexNotBuilt, fmt.Sprintf("index not built for namespace: %s", ns))
}

func ChecksumMismatch(expected, actual uint64) *Error {
	return New(KindChecksumMismatch, fmt.Sprintf("checksum mismatch: expected %d, got %d", expected, actual))
}

func Storage(cause error) *Error {
	return Wrap(KindStorage, "storage operation failed", cause)
}

func Serialization(cause error) *Error {
	return Wrap(KindSerialization, "serialization failed", cause)
}

func KMeansConvergence(iterations int) *Error {
	return New(KindKMeansConvergence, fmt.Sprintf("k-means failed to converge after %d iterations", iterations))
}

func Compaction(msg string) *Error {
	return New(KindCompaction, msg)
}

func Cache(msg string) *Error {
	return New(KindCache, msg)
}

func Internal(msg string) *Error {
	return New(KindInternal, msg)
}
