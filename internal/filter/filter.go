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

// Package filter evaluates the attribute post-filter language of spec.md §6:
// eq, range, in, and, or, not. Missing attributes fail every leaf predicate
// (eq, range, in); not inverts that result like any other.
package filter

import (
	"strings"

	"github.com/launix-de/zeppelin/internal/types"
)

type Op string

const (
	OpEq    Op = "eq"
	OpRange Op = "range"
	OpIn    Op = "in"
	OpAnd   Op = "and"
	OpOr    Op = "or"
	OpNot   Op = "not"
)

// Filter is a single predicate node. Exactly the fields relevant to Op are
// populated; the JSON wire format mirrors spec.md's filter language.
type Filter struct {
	Op      Op                   `json:"op"`
	Field   string               `json:"field,omitempty"`
	Value   *types.AttributeValue `json:"value,omitempty"`
	Values  []types.AttributeValue `json:"values,omitempty"`
	GTE     *float64             `json:"gte,omitempty"`
	LTE     *float64             `json:"lte,omitempty"`
	GT      *float64             `json:"gt,omitempty"`
	LT      *float64             `json:"lt,omitempty"`
	Filters []Filter             `json:"filters,omitempty"`
	Inner   *Filter              `json:"filter,omitempty"`
}

// Evaluate reports whether the given attribute set satisfies the filter.
// A nil attrs map fails every leaf predicate; a nil filter, an empty and/or,
// and a not over a failing leaf still pass.
func Evaluate(f *Filter, attrs map[string]types.AttributeValue) bool {
	if f == nil {
		return true
	}
	switch f.Op {
	case OpEq:
		v, ok := attrs[f.Field]
		if !ok || f.Value == nil {
			return false
		}
		return v.Equal(*f.Value)

	case OpRange:
		v, ok := attrs[f.Field]
		if !ok {
			return false
		}
		n, ok := v.AsFloat64()
		if !ok {
			return false
		}
		if f.GTE != nil && !(n >= *f.GTE) {
			return false
		}
		if f.LTE != nil && !(n <= *f.LTE) {
			return false
		}
		if f.GT != nil && !(n > *f.GT) {
			return false
		}
		if f.LT != nil && !(n < *f.LT) {
			return false
		}
		return true

	case OpIn:
		v, ok := attrs[f.Field]
		if !ok {
			return false
		}
		for _, candidate := range f.Values {
			if v.Equal(candidate) {
				return true
			}
			// string-list membership: "in" against a StringList attribute
			// matches if any stored string equals the candidate string.
			if v.Kind == types.AttrStringList && candidate.Kind == types.AttrString {
				for _, s := range v.Strs {
					if s == candidate.Str {
						return true
					}
				}
			}
		}
		return false

	case OpAnd:
		for i := range f.Filters {
			if !Evaluate(&f.Filters[i], attrs) {
				return false
			}
		}
		return true

	case OpOr:
		for i := range f.Filters {
			if Evaluate(&f.Filters[i], attrs) {
				return true
			}
		}
		return len(f.Filters) == 0

	case OpNot:
		return !Evaluate(f.Inner, attrs)

	default:
		return false
	}
}

// StringCompare implements spec.md's "string comparisons are byte-wise"
// clause for range filters against string attributes, kept as a documented
// helper even though range filters are restricted to numeric attributes by
// spec; no filter operator calls it.
func StringCompare(a, b string) int {
	return strings.Compare(a, b)
}
