// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package colvec implements the columnar batch buffer: one typed vector
// per column, each carrying per-row null flags, and for variable-length
// kinds per-row offset/length pairs into a child vector. The layout
// mirrors the vectorized row batch model of the underlying file engine,
// with the type-unsafe casts replaced by typed vector variants.
package colvec

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/batchio/batchio/schema"
)

// Vector is one column's storage within a batch. A vector is a raw,
// mutable buffer owned by the active batch; callers borrow it for the
// duration of one row operation and must not retain references.
type Vector interface {
	// Storage identifies the vector family.
	Storage() schema.Storage
	// Cap returns the number of allocated row slots.
	Cap() int
	IsNull(row int) bool
	SetNull(row int)
	// Ensure grows the vector to hold at least n rows, preserving
	// existing contents. Growth is amortized by doubling.
	Ensure(n int)
	// Reset clears null flags and bookkeeping for reuse after a flush.
	// Storage contents are left in place and overwritten by later rows.
	Reset()
}

// nulls carries the per-row null flags shared by every vector type.
// noNulls is the fast path: it stays true until the first SetNull, so
// batches without nulls never scan the flag array.
type nulls struct {
	flags   []bool
	noNulls bool
}

func newNulls(capacity int) nulls {
	return nulls{flags: make([]bool, capacity), noNulls: true}
}

func (n *nulls) IsNull(row int) bool { return !n.noNulls && n.flags[row] }

func (n *nulls) SetNull(row int) {
	n.flags[row] = true
	n.noNulls = false
}

func (n *nulls) ensure(c int) { n.flags = grow(n.flags, c) }

func (n *nulls) reset() {
	if !n.noNulls {
		clear(n.flags)
		n.noNulls = true
	}
}

// grow returns s extended to at least n elements, at least doubling to
// amortize repeated growth.
func grow[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	if n < 2*len(s) {
		n = 2 * len(s)
	}
	out := make([]T, n)
	copy(out, s)
	return out
}

// LongVector stores the int64 family: bigint, int, boolean (as 0/1) and
// date columns.
type LongVector struct {
	nulls
	Values []int64
}

func NewLongVector(capacity int) *LongVector {
	return &LongVector{nulls: newNulls(capacity), Values: make([]int64, capacity)}
}

func (v *LongVector) Storage() schema.Storage { return schema.LongStorage }
func (v *LongVector) Cap() int                { return len(v.Values) }
func (v *LongVector) Reset()                  { v.nulls.reset() }

func (v *LongVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Values = grow(v.Values, n)
}

// DoubleVector stores float64 columns.
type DoubleVector struct {
	nulls
	Values []float64
}

func NewDoubleVector(capacity int) *DoubleVector {
	return &DoubleVector{nulls: newNulls(capacity), Values: make([]float64, capacity)}
}

func (v *DoubleVector) Storage() schema.Storage { return schema.DoubleStorage }
func (v *DoubleVector) Cap() int                { return len(v.Values) }
func (v *DoubleVector) Reset()                  { v.nulls.reset() }

func (v *DoubleVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Values = grow(v.Values, n)
}

// BytesVector stores string and binary columns. Row slots reference the
// caller's bytes until the batch is flushed; the engine copies on write.
type BytesVector struct {
	nulls
	Values [][]byte
}

func NewBytesVector(capacity int) *BytesVector {
	return &BytesVector{nulls: newNulls(capacity), Values: make([][]byte, capacity)}
}

func (v *BytesVector) Storage() schema.Storage { return schema.BytesStorage }
func (v *BytesVector) Cap() int                { return len(v.Values) }
func (v *BytesVector) Reset()                  { v.nulls.reset() }

func (v *BytesVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Values = grow(v.Values, n)
}

// DecimalVector stores arbitrary-precision decimal columns. Precision
// and scale are column-level, not per-row: the last row written to the
// batch determines them, a quirk of the underlying engine that is kept
// as documented behavior.
type DecimalVector struct {
	nulls
	Values    []*apd.Decimal
	Precision int32
	Scale     int32
}

func NewDecimalVector(capacity int) *DecimalVector {
	return &DecimalVector{nulls: newNulls(capacity), Values: make([]*apd.Decimal, capacity)}
}

func (v *DecimalVector) Storage() schema.Storage { return schema.DecimalStorage }
func (v *DecimalVector) Cap() int                { return len(v.Values) }
func (v *DecimalVector) Reset()                  { v.nulls.reset() }

func (v *DecimalVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Values = grow(v.Values, n)
}

// TimestampVector stores timestamps split into epoch milliseconds and
// the nanosecond-of-second remainder.
type TimestampVector struct {
	nulls
	Millis []int64
	Nanos  []int32
}

func NewTimestampVector(capacity int) *TimestampVector {
	return &TimestampVector{
		nulls:  newNulls(capacity),
		Millis: make([]int64, capacity),
		Nanos:  make([]int32, capacity),
	}
}

func (v *TimestampVector) Storage() schema.Storage { return schema.TimestampStorage }
func (v *TimestampVector) Cap() int                { return len(v.Millis) }
func (v *TimestampVector) Reset()                  { v.nulls.reset() }

func (v *TimestampVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Millis = grow(v.Millis, n)
	v.Nanos = grow(v.Nanos, n)
}

// Set records one timestamp at row, splitting t into the engine's
// millis+nanos representation.
func (v *TimestampVector) Set(row int, t time.Time) {
	v.Millis[row] = t.UnixMilli()
	v.Nanos[row] = int32(t.Nanosecond())
}

// At reconstructs the timestamp at row in UTC.
func (v *TimestampVector) At(row int) time.Time {
	millis, nanos := v.Millis[row], int64(v.Nanos[row])
	sec := millis / 1000
	if millis%1000 < 0 {
		sec--
	}
	return time.Unix(sec, nanos).UTC()
}

// ListVector stores variable-length element runs: row i's elements live
// in Elems[Offsets[i] : Offsets[i]+Lengths[i]]. ChildCount is the
// number of element slots consumed so far in the current batch.
type ListVector struct {
	nulls
	Offsets    []int64
	Lengths    []int64
	Elems      Vector
	ChildCount int
}

func (v *ListVector) Storage() schema.Storage { return schema.ListStorage }
func (v *ListVector) Cap() int                { return len(v.Offsets) }

func (v *ListVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Offsets = grow(v.Offsets, n)
	v.Lengths = grow(v.Lengths, n)
}

func (v *ListVector) Reset() {
	v.nulls.reset()
	clear(v.Lengths)
	v.ChildCount = 0
	v.Elems.Reset()
}

// MapVector stores flattened key/value runs addressed like ListVector:
// row i's pairs live at [Offsets[i], Offsets[i]+Lengths[i]) in both the
// Keys and Values child vectors.
type MapVector struct {
	nulls
	Offsets    []int64
	Lengths    []int64
	Keys       Vector
	Values     Vector
	ChildCount int
}

func (v *MapVector) Storage() schema.Storage { return schema.MapStorage }
func (v *MapVector) Cap() int                { return len(v.Offsets) }

func (v *MapVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Offsets = grow(v.Offsets, n)
	v.Lengths = grow(v.Lengths, n)
}

func (v *MapVector) Reset() {
	v.nulls.reset()
	clear(v.Lengths)
	v.ChildCount = 0
	v.Keys.Reset()
	v.Values.Reset()
}

// StructVector stores its fields as parallel child vectors indexed at
// the same row position; there is no offset/length indirection.
type StructVector struct {
	nulls
	Fields []Vector
}

func (v *StructVector) Storage() schema.Storage { return schema.StructStorage }
func (v *StructVector) Cap() int                { return len(v.flags) }

func (v *StructVector) Ensure(n int) {
	v.nulls.ensure(n)
	for _, f := range v.Fields {
		f.Ensure(n)
	}
}

func (v *StructVector) Reset() {
	v.nulls.reset()
	for _, f := range v.Fields {
		f.Reset()
	}
}

// UnionVector stores a per-row variant tag plus one child vector per
// declared variant; only the tagged child holds row i's value.
type UnionVector struct {
	nulls
	Tags     []int32
	Variants []Vector
}

func (v *UnionVector) Storage() schema.Storage { return schema.UnionStorage }
func (v *UnionVector) Cap() int                { return len(v.Tags) }

func (v *UnionVector) Ensure(n int) {
	v.nulls.ensure(n)
	v.Tags = grow(v.Tags, n)
	for _, f := range v.Variants {
		f.Ensure(n)
	}
}

func (v *UnionVector) Reset() {
	v.nulls.reset()
	clear(v.Tags)
	for _, f := range v.Variants {
		f.Reset()
	}
}

// NewVector allocates the vector tree for one column of the given
// schema with capacity row slots.
func NewVector(s *schema.Schema, capacity int) Vector {
	switch s.Kind().Storage() {
	case schema.LongStorage:
		return NewLongVector(capacity)
	case schema.DoubleStorage:
		return NewDoubleVector(capacity)
	case schema.BytesStorage:
		return NewBytesVector(capacity)
	case schema.DecimalStorage:
		return NewDecimalVector(capacity)
	case schema.TimestampStorage:
		return NewTimestampVector(capacity)
	case schema.ListStorage:
		return &ListVector{
			nulls:   newNulls(capacity),
			Offsets: make([]int64, capacity),
			Lengths: make([]int64, capacity),
			Elems:   NewVector(s.Elem(), capacity),
		}
	case schema.MapStorage:
		return &MapVector{
			nulls:   newNulls(capacity),
			Offsets: make([]int64, capacity),
			Lengths: make([]int64, capacity),
			Keys:    NewVector(s.Key(), capacity),
			Values:  NewVector(s.Value(), capacity),
		}
	case schema.StructStorage:
		fields := make([]Vector, s.NumChildren())
		for i, child := range s.Children() {
			fields[i] = NewVector(child, capacity)
		}
		return &StructVector{nulls: newNulls(capacity), Fields: fields}
	case schema.UnionStorage:
		variants := make([]Vector, s.NumChildren())
		for i, child := range s.Children() {
			variants[i] = NewVector(child, capacity)
		}
		return &UnionVector{
			nulls:    newNulls(capacity),
			Tags:     make([]int32, capacity),
			Variants: variants,
		}
	}
	return nil
}
