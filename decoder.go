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
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
	"github.com/batchio/batchio/value"
)

// decodeCell reconstructs the value at row of vec according to typ.
// The inverse of encoder.encodeCell: storage is re-tagged by the schema
// kind, so a boolean column yields Bool values from its 0/1 storage and
// an int column narrows through 32 bits for symmetry with the accepted
// write inputs. Byte payloads are copied out of the batch since the
// batch is reused across windows.
func decodeCell(vec colvec.Vector, typ *schema.Schema, row int) (value.Value, error) {
	if vec.IsNull(row) {
		return value.NewNull(), nil
	}

	switch typ.Kind().Storage() {
	case schema.LongStorage:
		v := vec.(*colvec.LongVector).Values[row]
		switch typ.Kind() {
		case schema.Bool:
			return value.NewBool(v != 0), nil
		case schema.Int:
			return value.NewInt(int32(v)), nil
		default:
			return value.NewLong(v), nil
		}
	case schema.DoubleStorage:
		return value.NewDouble(vec.(*colvec.DoubleVector).Values[row]), nil
	case schema.BytesStorage:
		b := vec.(*colvec.BytesVector).Values[row]
		if typ.Kind() == schema.String {
			return value.NewString(string(b)), nil
		}
		out := make([]byte, len(b))
		copy(out, b)
		return value.NewBytes(out), nil
	case schema.DecimalStorage:
		var d apd.Decimal
		d.Set(vec.(*colvec.DecimalVector).Values[row])
		return value.NewDecimal(&d), nil
	case schema.TimestampStorage:
		t := vec.(*colvec.TimestampVector).At(row)
		if typ.Kind() == schema.Date {
			// Date columns cannot be written by this package, but
			// files produced elsewhere decode at date granularity.
			t = t.Truncate(24 * time.Hour)
		}
		return value.NewTimestamp(t), nil
	case schema.ListStorage:
		return decodeList(vec.(*colvec.ListVector), typ, row)
	case schema.StructStorage:
		return decodeStruct(vec.(*colvec.StructVector), typ, row)
	case schema.MapStorage:
		return decodeMap(vec.(*colvec.MapVector), typ, row)
	case schema.UnionStorage:
		return decodeUnion(vec.(*colvec.UnionVector), typ, row)
	}
	return value.NewNull(), fmt.Errorf("%w: unexpected schema kind %s", ErrUnsupportedType, typ.Kind())
}

func decodeList(vec *colvec.ListVector, typ *schema.Schema, row int) (value.Value, error) {
	offset, length := int(vec.Offsets[row]), int(vec.Lengths[row])
	elems := make([]value.Value, length)
	for i := 0; i < length; i++ {
		el, err := decodeCell(vec.Elems, typ.Elem(), offset+i)
		if err != nil {
			return value.NewNull(), err
		}
		elems[i] = el
	}
	return value.NewList(elems...), nil
}

func decodeStruct(vec *colvec.StructVector, typ *schema.Schema, row int) (value.Value, error) {
	fields := make([]value.Value, typ.NumChildren())
	for i := range fields {
		fv, err := decodeCell(vec.Fields[i], typ.Child(i), row)
		if err != nil {
			return value.NewNull(), err
		}
		fields[i] = fv
	}
	return value.NewStruct(fields...), nil
}

func decodeMap(vec *colvec.MapVector, typ *schema.Schema, row int) (value.Value, error) {
	// The engine restricts map key and value families; a file claiming
	// otherwise is malformed.
	keyType, valType := typ.Key(), typ.Value()
	switch keyType.Kind().Storage() {
	case schema.BytesStorage, schema.LongStorage, schema.DoubleStorage:
	default:
		return value.NewNull(), fmt.Errorf("%w: map key type %s is not supported", ErrMapKeyType, keyType.Kind())
	}
	switch valType.Kind().Storage() {
	case schema.LongStorage, schema.DoubleStorage, schema.BytesStorage,
		schema.DecimalStorage, schema.TimestampStorage:
	default:
		return value.NewNull(), fmt.Errorf("%w: map value type %s is not supported", ErrMapValueType, valType.Kind())
	}

	offset, length := int(vec.Offsets[row]), int(vec.Lengths[row])
	entries := make([]value.MapEntry, 0, length)
	for i := 0; i < length; i++ {
		k, err := decodeCell(vec.Keys, keyType, offset+i)
		if err != nil {
			return value.NewNull(), err
		}
		v, err := decodeCell(vec.Values, valType, offset+i)
		if err != nil {
			return value.NewNull(), err
		}
		// Ordinary mapping semantics: a duplicate key overwrites the
		// earlier entry.
		replaced := false
		for j := range entries {
			if entries[j].Key.Equal(k) {
				entries[j].Value = v
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, value.MapEntry{Key: k, Value: v})
		}
	}
	return value.NewMap(entries...), nil
}

func decodeUnion(vec *colvec.UnionVector, typ *schema.Schema, row int) (value.Value, error) {
	tag := int(vec.Tags[row])
	if tag < 0 || tag >= typ.NumChildren() {
		return value.NewNull(), fmt.Errorf("%w: tag %d out of range for %d variants in row %d",
			ErrCorruptUnionTag, tag, typ.NumChildren(), row)
	}
	if tag >= len(vec.Variants) {
		return value.NewNull(), fmt.Errorf("%w: no vector for variant %d in row %d",
			ErrCorruptUnionTag, tag, row)
	}
	variant := typ.Child(tag)
	inner, err := decodeCell(vec.Variants[tag], variant, row)
	if err != nil {
		return value.NewNull(), err
	}
	return value.NewUnion(variant.Kind(), inner), nil
}
