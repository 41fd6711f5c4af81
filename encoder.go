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

package batchio

import (
	"fmt"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
	"github.com/batchio/batchio/value"
)

// encoder walks a value tree against a schema tree and populates one
// batch slot per call. It carries the engine's batch capacity so child
// vector growth for variable-length columns can be amortized.
type encoder struct {
	batchCapacity int
}

// kindAccepted reports whether a value of kind vk may be written to a
// column of schema kind sk. Long storage accepts booleans (stored as
// 0/1) alongside integers; byte storage accepts both text and raw
// bytes, with text written as UTF-8.
func kindAccepted(vk value.Kind, sk schema.Kind) bool {
	switch sk.Storage() {
	case schema.LongStorage:
		return vk == value.Long || vk == value.Bool
	case schema.DoubleStorage:
		return vk == value.Double
	case schema.BytesStorage:
		return vk == value.String || vk == value.Bytes
	case schema.DecimalStorage:
		return vk == value.Decimal
	case schema.TimestampStorage:
		return vk == value.Timestamp
	case schema.ListStorage:
		return vk == value.List
	case schema.StructStorage:
		return vk == value.Struct
	case schema.MapStorage:
		return vk == value.Map
	case schema.UnionStorage:
		return vk == value.Union
	}
	return false
}

// expectedFor names the accepted value kinds for a schema kind, for
// error messages.
func expectedFor(sk schema.Kind) string {
	switch sk.Storage() {
	case schema.LongStorage:
		return "long or bool"
	case schema.DoubleStorage:
		return "double"
	case schema.BytesStorage:
		return "string or bytes"
	case schema.DecimalStorage:
		return "decimal"
	case schema.TimestampStorage:
		return "timestamp"
	default:
		return sk.String()
	}
}

// encodeCell writes val into vec at row according to typ. field names
// the column for error reporting. The batch is mutated in place; a
// validation failure on a container is detected before any of its
// storage is touched, but a failure deeper in the recursion may leave
// the containing batch partially initialized.
func (e *encoder) encodeCell(val value.Value, typ *schema.Schema, field string, vec colvec.Vector, row int) error {
	if val.IsNull() {
		vec.SetNull(row)
		return nil
	}

	switch typ.Kind().Storage() {
	case schema.LongStorage:
		return e.encodeLong(val, typ, field, vec.(*colvec.LongVector), row)
	case schema.DoubleStorage:
		if val.Kind() != value.Double {
			return fmt.Errorf("%w: double value expected for field %s in row %d, got %s",
				ErrTypeMismatch, field, row, val.Kind())
		}
		vec.(*colvec.DoubleVector).Values[row] = val.Double()
		return nil
	case schema.BytesStorage:
		if val.Kind() != value.String && val.Kind() != value.Bytes {
			return fmt.Errorf("%w: string or bytes value expected for field %s in row %d, got %s",
				ErrTypeMismatch, field, row, val.Kind())
		}
		vec.(*colvec.BytesVector).Values[row] = val.Bytes()
		return nil
	case schema.DecimalStorage:
		return e.encodeDecimal(val, field, vec.(*colvec.DecimalVector), row)
	case schema.TimestampStorage:
		if typ.Kind() == schema.Date {
			// The engine truncates date epoch values to 32 bits on
			// write, corrupting them on read back.
			return fmt.Errorf("%w: date is not supported, use timestamp (field %s)",
				ErrUnsupportedType, field)
		}
		if val.Kind() != value.Timestamp {
			return fmt.Errorf("%w: timestamp value expected for field %s in row %d, got %s",
				ErrTypeMismatch, field, row, val.Kind())
		}
		vec.(*colvec.TimestampVector).Set(row, val.Time())
		return nil
	case schema.ListStorage:
		return e.encodeList(val, typ, field, vec.(*colvec.ListVector), row)
	case schema.StructStorage:
		return e.encodeStruct(val, typ, field, vec.(*colvec.StructVector), row)
	case schema.MapStorage:
		return e.encodeMap(val, typ, field, vec.(*colvec.MapVector), row)
	case schema.UnionStorage:
		return e.encodeUnion(val, typ, field, vec.(*colvec.UnionVector), row)
	}
	return fmt.Errorf("%w: unexpected schema kind %s for field %s", ErrUnsupportedType, typ.Kind(), field)
}

func (e *encoder) encodeLong(val value.Value, typ *schema.Schema, field string, vec *colvec.LongVector, row int) error {
	switch val.Kind() {
	case value.Bool:
		if val.Bool() {
			vec.Values[row] = 1
		} else {
			vec.Values[row] = 0
		}
	case value.Long:
		vec.Values[row] = val.Long()
	default:
		return fmt.Errorf("%w: %s value expected for field %s in row %d, got %s",
			ErrTypeMismatch, expectedFor(typ.Kind()), field, row, val.Kind())
	}
	return nil
}

func (e *encoder) encodeDecimal(val value.Value, field string, vec *colvec.DecimalVector, row int) error {
	if val.Kind() != value.Decimal {
		return fmt.Errorf("%w: decimal value expected for field %s in row %d, got %s",
			ErrTypeMismatch, field, row, val.Kind())
	}
	d := val.Decimal()
	// Precision and scale are column metadata, not per-row: the last
	// write to the batch wins, matching the engine's behavior.
	vec.Precision = int32(d.NumDigits())
	vec.Scale = -d.Exponent
	vec.Values[row] = d
	return nil
}

// homogeneous verifies that all non-null elements share one kind
// accepted by the schema kind sk. Returns the offending element index,
// or -1.
func homogeneous(elems []value.Value, sk schema.Kind) int {
	for i, el := range elems {
		if el.IsNull() {
			continue
		}
		if !kindAccepted(el.Kind(), sk) {
			return i
		}
	}
	return -1
}

func (e *encoder) encodeList(val value.Value, typ *schema.Schema, field string, vec *colvec.ListVector, row int) error {
	if val.Kind() != value.List {
		return fmt.Errorf("%w: list value expected for field %s in row %d, got %s",
			ErrTypeMismatch, field, row, val.Kind())
	}
	elems := val.List()
	elemType := typ.Elem()
	// Validate element kinds before any storage is touched so a
	// heterogeneous list never partially writes.
	if bad := homogeneous(elems, elemType.Kind()); bad >= 0 {
		return fmt.Errorf("%w: list of %s expected for field %s in row %d, element %d is %s",
			ErrTypeMismatch, expectedFor(elemType.Kind()), field, row, bad, elems[bad].Kind())
	}

	offset := vec.ChildCount
	need := offset + len(elems)
	// Grow the element vector ahead of demand so repeated rows of this
	// batch do not each reallocate.
	if amortized := e.batchCapacity * len(elems); amortized > need {
		need = amortized
	}
	vec.Elems.Ensure(need)

	vec.Offsets[row] = int64(offset)
	vec.Lengths[row] = int64(len(elems))
	vec.ChildCount += len(elems)
	for i, el := range elems {
		if err := e.encodeCell(el, elemType, field, vec.Elems, offset+i); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeStruct(val value.Value, typ *schema.Schema, field string, vec *colvec.StructVector, row int) error {
	if val.Kind() != value.Struct {
		return fmt.Errorf("%w: struct value expected for field %s in row %d, got %s",
			ErrTypeMismatch, field, row, val.Kind())
	}
	fields := val.List()
	if len(fields) != typ.NumChildren() {
		return fmt.Errorf("%w: struct for field %s in row %d has %d values, schema has %d fields",
			ErrArityMismatch, field, row, len(fields), typ.NumChildren())
	}
	// Struct fields are parallel vectors at the same row position.
	for i, fv := range fields {
		if err := e.encodeCell(fv, typ.Child(i), typ.FieldName(i), vec.Fields[i], row); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeMap(val value.Value, typ *schema.Schema, field string, vec *colvec.MapVector, row int) error {
	if val.Kind() != value.Map {
		return fmt.Errorf("%w: map value expected for field %s in row %d, got %s",
			ErrTypeMismatch, field, row, val.Kind())
	}
	entries := val.Entries()
	keyType, valType := typ.Key(), typ.Value()

	// Scan the whole entry list before mutating the batch: keys must
	// all match the schema key kind and values the schema value kind.
	for i, en := range entries {
		if en.Key.IsNull() || !kindAccepted(en.Key.Kind(), keyType.Kind()) {
			return fmt.Errorf("%w: %s key expected for field %s in row %d, entry %d is %s",
				ErrMapKeyType, expectedFor(keyType.Kind()), field, row, i, en.Key.Kind())
		}
		if !en.Value.IsNull() && !kindAccepted(en.Value.Kind(), valType.Kind()) {
			return fmt.Errorf("%w: %s value expected for field %s in row %d, entry %d is %s",
				ErrMapValueType, expectedFor(valType.Kind()), field, row, i, en.Value.Kind())
		}
	}

	offset := vec.ChildCount
	need := offset + len(entries)
	if amortized := e.batchCapacity + len(entries); amortized > need {
		need = amortized
	}
	vec.Keys.Ensure(need)
	vec.Values.Ensure(need)

	vec.Offsets[row] = int64(offset)
	vec.Lengths[row] = int64(len(entries))
	vec.ChildCount += len(entries)
	for i, en := range entries {
		if err := e.encodeCell(en.Key, keyType, field, vec.Keys, offset+i); err != nil {
			return err
		}
		if err := e.encodeCell(en.Value, valType, field, vec.Values, offset+i); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeUnion(val value.Value, typ *schema.Schema, field string, vec *colvec.UnionVector, row int) error {
	if val.Kind() != value.Union {
		return fmt.Errorf("%w: union value expected for field %s in row %d, got %s",
			ErrTypeMismatch, field, row, val.Kind())
	}
	// Dispatch on the first declared variant with the carried kind.
	for i, variant := range typ.Children() {
		if variant.Kind() != val.UnionKind() {
			continue
		}
		vec.Tags[row] = int32(i)
		return e.encodeCell(val.UnionValue(), variant, field, vec.Variants[i], row)
	}
	return fmt.Errorf("%w: no variant of kind %s declared for field %s in row %d",
		ErrUnionVariant, val.UnionKind(), field, row)
}
