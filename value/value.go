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

// Package value defines the in-memory representation of one cell at any
// nesting depth: a closed tagged variant over null, scalars and the
// List/Struct/Map/Union containers. Values are transient, constructed
// per row on the write path or per row reconstruction on the read path,
// and are never retained across rows.
package value

import (
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/batchio/batchio/internal/debug"
	"github.com/batchio/batchio/schema"
)

// Kind is the closed enumeration of value shapes.
type Kind int8

const (
	Null Kind = iota
	Bool
	Long
	Double
	String
	Bytes
	Decimal
	Timestamp
	List
	Struct
	Map
	Union
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Long:
		return "long"
	case Double:
		return "double"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Decimal:
		return "decimal"
	case Timestamp:
		return "timestamp"
	case List:
		return "list"
	case Struct:
		return "struct"
	case Map:
		return "map"
	case Union:
		return "union"
	}
	return "unknown"
}

// MapEntry is one ordered key/value pair of a Map value. Keys must be
// unique within one Map; the marshalling core does not deduplicate.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is one cell. The zero Value is Null.
type Value struct {
	kind    Kind
	num     int64 // Bool (0/1), Long, Double (IEEE 754 bits)
	buf     []byte
	dec     *apd.Decimal
	ts      time.Time
	elems   []Value // List elements or Struct fields
	entries []MapEntry
	utag    schema.Kind // declared variant kind of a Union
	uval    *Value
}

// NewNull returns the null value.
func NewNull() Value { return Value{} }

func NewBool(b bool) Value {
	var n int64
	if b {
		n = 1
	}
	return Value{kind: Bool, num: n}
}

func NewLong(v int64) Value { return Value{kind: Long, num: v} }

// NewInt widens a 32-bit integer into a Long value.
func NewInt(v int32) Value { return Value{kind: Long, num: int64(v)} }

func NewDouble(v float64) Value {
	return Value{kind: Double, num: int64(math.Float64bits(v))}
}

func NewString(s string) Value { return Value{kind: String, buf: []byte(s)} }

func NewBytes(b []byte) Value { return Value{kind: Bytes, buf: b} }

func NewDecimal(d *apd.Decimal) Value { return Value{kind: Decimal, dec: d} }

func NewTimestamp(t time.Time) Value { return Value{kind: Timestamp, ts: t} }

func NewList(elems ...Value) Value { return Value{kind: List, elems: elems} }

// NewStruct returns a struct value whose elements align positionally
// with the schema's field order.
func NewStruct(fields ...Value) Value { return Value{kind: Struct, elems: fields} }

func NewMap(entries ...MapEntry) Value { return Value{kind: Map, entries: entries} }

// NewUnion returns a union value carrying v, tagged with the declared
// variant kind the encoder should dispatch on.
func NewUnion(variant schema.Kind, v Value) Value {
	return Value{kind: Union, utag: variant, uval: &v}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) Bool() bool {
	debug.Assert(v.kind == Bool, "value: Bool() on "+v.kind.String())
	return v.num != 0
}

func (v Value) Long() int64 {
	debug.Assert(v.kind == Long, "value: Long() on "+v.kind.String())
	return v.num
}

func (v Value) Double() float64 {
	debug.Assert(v.kind == Double, "value: Double() on "+v.kind.String())
	return math.Float64frombits(uint64(v.num))
}

func (v Value) Str() string {
	debug.Assert(v.kind == String, "value: Str() on "+v.kind.String())
	return string(v.buf)
}

// Bytes returns the byte payload of a String or Bytes value.
func (v Value) Bytes() []byte {
	debug.Assert(v.kind == Bytes || v.kind == String, "value: Bytes() on "+v.kind.String())
	return v.buf
}

func (v Value) Decimal() *apd.Decimal {
	debug.Assert(v.kind == Decimal, "value: Decimal() on "+v.kind.String())
	return v.dec
}

func (v Value) Time() time.Time {
	debug.Assert(v.kind == Timestamp, "value: Time() on "+v.kind.String())
	return v.ts
}

// List returns the elements of a List or the fields of a Struct.
func (v Value) List() []Value {
	debug.Assert(v.kind == List || v.kind == Struct, "value: List() on "+v.kind.String())
	return v.elems
}

func (v Value) Entries() []MapEntry {
	debug.Assert(v.kind == Map, "value: Entries() on "+v.kind.String())
	return v.entries
}

// UnionKind returns the declared variant kind of a Union value.
func (v Value) UnionKind() schema.Kind {
	debug.Assert(v.kind == Union, "value: UnionKind() on "+v.kind.String())
	return v.utag
}

// UnionValue returns the carried value of a Union.
func (v Value) UnionValue() Value {
	debug.Assert(v.kind == Union, "value: UnionValue() on "+v.kind.String())
	return *v.uval
}

// Equal reports deep equality. Decimals compare by numeric value and
// exponent, timestamps by instant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool, Long, Double:
		return v.num == other.num
	case String, Bytes:
		return string(v.buf) == string(other.buf)
	case Decimal:
		return v.dec.Cmp(other.dec) == 0 && v.dec.Exponent == other.dec.Exponent
	case Timestamp:
		return v.ts.Equal(other.ts)
	case List, Struct:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(v.entries) != len(other.entries) {
			return false
		}
		// Order is not part of map identity: every entry must have a
		// matching entry on the other side.
		for _, e := range v.entries {
			found := false
			for _, o := range other.entries {
				if e.Key.Equal(o.Key) && e.Value.Equal(o.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case Union:
		return v.utag == other.utag && v.uval.Equal(*other.uval)
	}
	return false
}
