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

// Package ids generates the two identifier shapes spec.md needs: ULIDs for
// WAL fragments, where lexicographic order must follow creation order, and
// UUIDs for segments, which carry no ordering requirement.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewFragmentID returns a ULID for a new WAL fragment. ULID's monotonic
// entropy source guarantees that fragments created in the same process in
// the same millisecond still sort in creation order, which the manifest's
// compaction watermark depends on.
func NewFragmentID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// FragmentIDTime recovers the creation timestamp embedded in a fragment ID.
func FragmentIDTime(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// NewSegmentID returns a random UUID for a new immutable segment.
func NewSegmentID() string {
	return uuid.NewString()
}
