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

// Package types holds the wire/storage data model shared by every Zeppelin
// subsystem: vectors, attributes, distance metrics, consistency levels and
// quantization modes.
package types

// DistanceMetric selects how two vectors are compared.
type DistanceMetric string

const (
	Cosine     DistanceMetric = "cosine"
	Euclidean  DistanceMetric = "euclidean"
	DotProduct DistanceMetric = "dot_product"
)

// ConsistencyLevel selects whether a query observes unflushed WAL state.
type ConsistencyLevel string

const (
	Strong   ConsistencyLevel = "strong"
	Eventual ConsistencyLevel = "eventual"
)

// Quantization selects the optional vector compression applied during
// IVF segment builds.
type Quantization string

const (
	QuantizationNone   Quantization = "none"
	QuantizationScalar Quantization = "scalar"
	QuantizationPQ     Quantization = "product"
)

// AttributeValue is a tagged scalar (or list-of-strings) attached to a
// vector. Exactly one field is set; Kind disambiguates on the wire since Go
// has no native untagged-union JSON support.
type AttributeValue struct {
	Kind   AttributeKind `json:"kind"`
	Str    string        `json:"str,omitempty"`
	Int    int64         `json:"int,omitempty"`
	Float  float64       `json:"float,omitempty"`
	Bool   bool          `json:"bool,omitempty"`
	Strs   []string      `json:"strs,omitempty"`
}

type AttributeKind string

const (
	AttrString     AttributeKind = "string"
	AttrInt        AttributeKind = "int"
	AttrFloat      AttributeKind = "float"
	AttrBool       AttributeKind = "bool"
	AttrStringList AttributeKind = "string_list"
)

func StringAttr(s string) AttributeValue      { return AttributeValue{Kind: AttrString, Str: s} }
func IntAttr(i int64) AttributeValue          { return AttributeValue{Kind: AttrInt, Int: i} }
func FloatAttr(f float64) AttributeValue      { return AttributeValue{Kind: AttrFloat, Float: f} }
func BoolAttr(b bool) AttributeValue          { return AttributeValue{Kind: AttrBool, Bool: b} }
func StringListAttr(s []string) AttributeValue { return AttributeValue{Kind: AttrStringList, Strs: s} }

// AsFloat64 returns the attribute as a float64 for numeric range comparisons,
// accepting both Int and Float kinds. ok is false for any other kind.
func (a AttributeValue) AsFloat64() (float64, bool) {
	switch a.Kind {
	case AttrInt:
		return float64(a.Int), true
	case AttrFloat:
		return a.Float, true
	default:
		return 0, false
	}
}

// Equal reports whether two attribute values are equal by kind and value.
func (a AttributeValue) Equal(b AttributeValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AttrString:
		return a.Str == b.Str
	case AttrInt:
		return a.Int == b.Int
	case AttrFloat:
		return a.Float == b.Float
	case AttrBool:
		return a.Bool == b.Bool
	case AttrStringList:
		if len(a.Strs) != len(b.Strs) {
			return false
		}
		for i := range a.Strs {
			if a.Strs[i] != b.Strs[i] {
				return false
			}
		}
		return true
	}
	return false
}

// VectorID uniquely identifies a vector within a namespace.
type VectorID = string

// VectorEntry is a single record: id, fixed-length float values, and
// optional typed attributes.
type VectorEntry struct {
	ID         VectorID                  `json:"id"`
	Values     []float32                 `json:"values"`
	Attributes map[string]AttributeValue `json:"attributes,omitempty"`
}

// SearchResult is a single ranked candidate returned from a query.
type SearchResult struct {
	ID         VectorID                  `json:"id"`
	Score      float32                   `json:"score"`
	Attributes map[string]AttributeValue `json:"attributes,omitempty"`
}
