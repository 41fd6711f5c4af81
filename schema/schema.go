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

// Package schema describes the column shape of a batch file as a
// recursive tree of kinds: scalar leaves and List/Struct/Map/Union
// containers. A Schema is immutable once constructed and is shared
// between the marshalling core and the file engine.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed enumeration of schema node shapes.
type Kind int8

const (
	Bool Kind = iota
	Int
	Long
	Double
	String
	Binary
	Decimal
	Timestamp
	Date
	List
	Struct
	Map
	Union
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "boolean"
	case Int:
		return "int"
	case Long:
		return "bigint"
	case Double:
		return "double"
	case String:
		return "string"
	case Binary:
		return "binary"
	case Decimal:
		return "decimal"
	case Timestamp:
		return "timestamp"
	case Date:
		return "date"
	case List:
		return "array"
	case Struct:
		return "struct"
	case Map:
		return "map"
	case Union:
		return "uniontype"
	}
	return "unknown"
}

// Storage identifies the column vector family that backs a Kind. Several
// kinds share one family: Bool, Int and Long are all stored as int64
// values, String shares byte storage with Binary, and Date shares
// timestamp storage. The decode side re-tags values from the schema
// Kind, so the storage family is all a batch needs to know.
type Storage int8

const (
	LongStorage Storage = iota
	DoubleStorage
	BytesStorage
	DecimalStorage
	TimestampStorage
	ListStorage
	StructStorage
	MapStorage
	UnionStorage
)

// Storage returns the column vector family backing k.
func (k Kind) Storage() Storage {
	switch k {
	case Bool, Int, Long:
		return LongStorage
	case Double:
		return DoubleStorage
	case String, Binary:
		return BytesStorage
	case Decimal:
		return DecimalStorage
	case Timestamp, Date:
		return TimestampStorage
	case List:
		return ListStorage
	case Struct:
		return StructStorage
	case Map:
		return MapStorage
	case Union:
		return UnionStorage
	}
	panic(fmt.Sprintf("schema: unknown kind %d", k))
}

// IsContainer reports whether k has child schemas.
func (k Kind) IsContainer() bool {
	switch k {
	case List, Struct, Map, Union:
		return true
	}
	return false
}

// Field is one named member of a Struct schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Schema is one node of the recursive type tree. Immutable after
// construction; the accessors return internal slices which must not be
// modified by the caller.
type Schema struct {
	kind     Kind
	names    []string  // Struct field names, parallel to children
	children []*Schema // List: 1, Map: 2 (key, value), Struct/Union: n
}

// Primitive returns a scalar schema node. Container kinds must use
// their dedicated constructors.
func Primitive(k Kind) *Schema {
	if k.IsContainer() {
		panic(fmt.Sprintf("schema: Primitive called with container kind %s", k))
	}
	return &Schema{kind: k}
}

// NewList returns an array schema with the given element schema.
func NewList(elem *Schema) *Schema {
	return &Schema{kind: List, children: []*Schema{elem}}
}

// NewStruct returns a struct schema with the given ordered fields.
func NewStruct(fields ...Field) *Schema {
	s := &Schema{kind: Struct}
	for _, f := range fields {
		s.names = append(s.names, f.Name)
		s.children = append(s.children, f.Schema)
	}
	return s
}

// NewMap returns a map schema with the given key and value schemas.
func NewMap(key, value *Schema) *Schema {
	return &Schema{kind: Map, children: []*Schema{key, value}}
}

// NewUnion returns a tagged union schema over the given variants. The
// declaration order determines variant tags.
func NewUnion(variants ...*Schema) *Schema {
	return &Schema{kind: Union, children: variants}
}

func (s *Schema) Kind() Kind { return s.kind }

func (s *Schema) NumChildren() int { return len(s.children) }

func (s *Schema) Child(i int) *Schema { return s.children[i] }

func (s *Schema) Children() []*Schema { return s.children }

// Elem returns the element schema of a List node.
func (s *Schema) Elem() *Schema { return s.children[0] }

// Key returns the key schema of a Map node.
func (s *Schema) Key() *Schema { return s.children[0] }

// Value returns the value schema of a Map node.
func (s *Schema) Value() *Schema { return s.children[1] }

// FieldNames returns the ordered field names of a Struct node.
func (s *Schema) FieldNames() []string { return s.names }

// FieldName returns the name of field i of a Struct node. For other
// kinds it returns a positional placeholder, used in error messages for
// anonymous children such as list elements.
func (s *Schema) FieldName(i int) string {
	if s.kind == Struct {
		return s.names[i]
	}
	return fmt.Sprintf("<%s child %d>", s.kind, i)
}

var (
	// ErrInvalidSchema is wrapped by all Validate failures.
	ErrInvalidSchema = errors.New("invalid schema")
)

// mapKeyStorage lists the storage families the engine accepts for map
// keys, and mapValueStorage the families accepted for map values. Map
// values cannot nest further containers.
func mapKeyStorage(st Storage) bool {
	return st == BytesStorage || st == LongStorage || st == DoubleStorage
}

func mapValueStorage(st Storage) bool {
	switch st {
	case LongStorage, DoubleStorage, BytesStorage, DecimalStorage, TimestampStorage:
		return true
	}
	return false
}

// Validate checks the structural invariants of the tree: child counts
// per container kind, unique non-empty struct field names, and the
// engine's map key/value constraints.
func (s *Schema) Validate() error {
	switch s.kind {
	case List:
		if len(s.children) != 1 {
			return fmt.Errorf("%w: array must have exactly one child, got %d", ErrInvalidSchema, len(s.children))
		}
	case Struct:
		if len(s.children) == 0 {
			return fmt.Errorf("%w: struct must have at least one field", ErrInvalidSchema)
		}
		if len(s.names) != len(s.children) {
			return fmt.Errorf("%w: struct has %d names for %d fields", ErrInvalidSchema, len(s.names), len(s.children))
		}
		seen := make(map[string]struct{}, len(s.names))
		for _, name := range s.names {
			if name == "" {
				return fmt.Errorf("%w: struct field with empty name", ErrInvalidSchema)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("%w: duplicate struct field name %q", ErrInvalidSchema, name)
			}
			seen[name] = struct{}{}
		}
	case Map:
		if len(s.children) != 2 {
			return fmt.Errorf("%w: map must have exactly two children, got %d", ErrInvalidSchema, len(s.children))
		}
		if !mapKeyStorage(s.Key().kind.Storage()) {
			return fmt.Errorf("%w: map key type %s not supported, keys are limited to string, bigint and double families",
				ErrInvalidSchema, s.Key().kind)
		}
		if !mapValueStorage(s.Value().kind.Storage()) {
			return fmt.Errorf("%w: map value type %s not supported, values are limited to bigint, double, string, decimal and timestamp families",
				ErrInvalidSchema, s.Value().kind)
		}
	case Union:
		if len(s.children) == 0 {
			return fmt.Errorf("%w: uniontype must have at least one variant", ErrInvalidSchema)
		}
	}
	for _, child := range s.children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two schema trees have identical shape, kinds
// and field names.
func Equal(a, b *Schema) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind || len(a.children) != len(b.children) {
		return false
	}
	for i, name := range a.names {
		if b.names[i] != name {
			return false
		}
	}
	for i, child := range a.children {
		if !Equal(child, b.children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree in the engine's type notation, e.g.
// struct<symbol:string,close:double,date:timestamp>.
func (s *Schema) String() string {
	var sb strings.Builder
	s.render(&sb)
	return sb.String()
}

func (s *Schema) render(sb *strings.Builder) {
	sb.WriteString(s.kind.String())
	if !s.kind.IsContainer() {
		return
	}
	sb.WriteByte('<')
	for i, child := range s.children {
		if i > 0 {
			sb.WriteByte(',')
		}
		if s.kind == Struct {
			sb.WriteString(s.names[i])
			sb.WriteByte(':')
		}
		child.render(sb)
	}
	sb.WriteByte('>')
}
