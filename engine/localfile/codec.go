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

package localfile

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
)

// Frame payload encoding: row count u32, then each column vector tree
// in schema order. Per vector: one null byte per row, then the
// storage-family payload. Variable-length vectors store their
// offset/length arrays, the consumed child slot count, then the child
// vector at that many rows.

func encodeBatch(batch *colvec.Batch) []byte {
	buf := putU32(nil, uint32(batch.Size))
	for _, col := range batch.Cols {
		buf = encodeVector(buf, col, batch.Size)
	}
	return buf
}

func encodeNulls(buf []byte, vec colvec.Vector, n int) []byte {
	flags := make([]byte, n)
	for i := 0; i < n; i++ {
		if vec.IsNull(i) {
			flags[i] = 1
		}
	}
	return append(buf, flags...)
}

func encodeVector(buf []byte, vec colvec.Vector, n int) []byte {
	buf = encodeNulls(buf, vec, n)
	switch v := vec.(type) {
	case *colvec.LongVector:
		for _, x := range v.Values[:n] {
			buf = putI64(buf, x)
		}
	case *colvec.DoubleVector:
		for _, x := range v.Values[:n] {
			buf = putU64(buf, math.Float64bits(x))
		}
	case *colvec.BytesVector:
		for i := 0; i < n; i++ {
			if v.IsNull(i) {
				buf = putU32(buf, 0)
				continue
			}
			buf = putU32(buf, uint32(len(v.Values[i])))
			buf = append(buf, v.Values[i]...)
		}
	case *colvec.DecimalVector:
		buf = putI32(buf, v.Precision)
		buf = putI32(buf, v.Scale)
		for i := 0; i < n; i++ {
			if v.IsNull(i) || v.Values[i] == nil {
				buf = putU32(buf, 0)
				continue
			}
			// Scientific notation preserves coefficient and exponent
			// exactly through SetString.
			text := v.Values[i].Text('E')
			buf = putU32(buf, uint32(len(text)))
			buf = append(buf, text...)
		}
	case *colvec.TimestampVector:
		for _, x := range v.Millis[:n] {
			buf = putI64(buf, x)
		}
		for _, x := range v.Nanos[:n] {
			buf = putI32(buf, x)
		}
	case *colvec.ListVector:
		for _, x := range v.Offsets[:n] {
			buf = putI64(buf, x)
		}
		for _, x := range v.Lengths[:n] {
			buf = putI64(buf, x)
		}
		buf = putU32(buf, uint32(v.ChildCount))
		buf = encodeVector(buf, v.Elems, v.ChildCount)
	case *colvec.MapVector:
		for _, x := range v.Offsets[:n] {
			buf = putI64(buf, x)
		}
		for _, x := range v.Lengths[:n] {
			buf = putI64(buf, x)
		}
		buf = putU32(buf, uint32(v.ChildCount))
		buf = encodeVector(buf, v.Keys, v.ChildCount)
		buf = encodeVector(buf, v.Values, v.ChildCount)
	case *colvec.StructVector:
		for _, f := range v.Fields {
			buf = encodeVector(buf, f, n)
		}
	case *colvec.UnionVector:
		for _, x := range v.Tags[:n] {
			buf = putI32(buf, x)
		}
		for _, f := range v.Variants {
			buf = encodeVector(buf, f, n)
		}
	}
	return buf
}

// decodeBatch fills batch from one frame payload. The batch is reset
// first; its vectors grow as needed, so the reader's batch capacity
// does not have to match the writer's.
func decodeBatch(raw []byte, s *schema.Schema, batch *colvec.Batch) error {
	batch.Reset()
	r := &byteReader{buf: raw}
	rows := int(r.u32())
	if r.err != nil {
		return r.err
	}
	for i, col := range batch.Cols {
		if err := decodeVector(r, col, rows); err != nil {
			return fmt.Errorf("column %s: %w", s.FieldName(i), err)
		}
	}
	if r.pos != len(raw) {
		return fmt.Errorf("%w: %d trailing payload bytes", ErrCorruptFile, len(raw)-r.pos)
	}
	batch.Size = rows
	return nil
}

// checkRuns bounds-checks decoded offset/length pairs against the
// child slot count. Frame metadata is untrusted even after the
// checksum passes. Zero-length rows may carry stale offsets from the
// writer's reuse of its batch, so only occupied runs are ranged.
func checkRuns(offsets, lengths []int64, n, childCount int) error {
	for i := 0; i < n; i++ {
		off, length := offsets[i], lengths[i]
		if off < 0 || length < 0 {
			return fmt.Errorf("%w: negative offset or length at row %d", ErrCorruptFile, i)
		}
		if length > 0 && off+length > int64(childCount) {
			return fmt.Errorf("%w: row %d spans child slots [%d, %d) of %d",
				ErrCorruptFile, i, off, off+length, childCount)
		}
	}
	return nil
}

func decodeNulls(r *byteReader, vec colvec.Vector, n int) {
	flags := r.bytes(n)
	for i, f := range flags {
		if f != 0 {
			vec.SetNull(i)
		}
	}
}

func decodeVector(r *byteReader, vec colvec.Vector, n int) error {
	vec.Ensure(n)
	decodeNulls(r, vec, n)
	switch v := vec.(type) {
	case *colvec.LongVector:
		for i := 0; i < n; i++ {
			v.Values[i] = r.i64()
		}
	case *colvec.DoubleVector:
		for i := 0; i < n; i++ {
			v.Values[i] = math.Float64frombits(r.u64())
		}
	case *colvec.BytesVector:
		for i := 0; i < n; i++ {
			length := int(r.u32())
			b := r.bytes(length)
			if b != nil {
				out := make([]byte, length)
				copy(out, b)
				v.Values[i] = out
			}
		}
	case *colvec.DecimalVector:
		v.Precision = r.i32()
		v.Scale = r.i32()
		for i := 0; i < n; i++ {
			length := int(r.u32())
			if length == 0 {
				v.Values[i] = nil
				continue
			}
			text := r.bytes(length)
			if text == nil {
				break
			}
			d := new(apd.Decimal)
			if _, _, err := d.SetString(string(text)); err != nil {
				return fmt.Errorf("%w: bad decimal %q", ErrCorruptFile, text)
			}
			v.Values[i] = d
		}
	case *colvec.TimestampVector:
		for i := 0; i < n; i++ {
			v.Millis[i] = r.i64()
		}
		for i := 0; i < n; i++ {
			v.Nanos[i] = r.i32()
		}
	case *colvec.ListVector:
		for i := 0; i < n; i++ {
			v.Offsets[i] = r.i64()
		}
		for i := 0; i < n; i++ {
			v.Lengths[i] = r.i64()
		}
		v.ChildCount = int(r.u32())
		if r.err != nil {
			return r.err
		}
		if err := checkRuns(v.Offsets, v.Lengths, n, v.ChildCount); err != nil {
			return err
		}
		if err := decodeVector(r, v.Elems, v.ChildCount); err != nil {
			return err
		}
	case *colvec.MapVector:
		for i := 0; i < n; i++ {
			v.Offsets[i] = r.i64()
		}
		for i := 0; i < n; i++ {
			v.Lengths[i] = r.i64()
		}
		v.ChildCount = int(r.u32())
		if r.err != nil {
			return r.err
		}
		if err := checkRuns(v.Offsets, v.Lengths, n, v.ChildCount); err != nil {
			return err
		}
		if err := decodeVector(r, v.Keys, v.ChildCount); err != nil {
			return err
		}
		if err := decodeVector(r, v.Values, v.ChildCount); err != nil {
			return err
		}
	case *colvec.StructVector:
		for _, f := range v.Fields {
			if err := decodeVector(r, f, n); err != nil {
				return err
			}
		}
	case *colvec.UnionVector:
		for i := 0; i < n; i++ {
			v.Tags[i] = r.i32()
		}
		for _, f := range v.Variants {
			if err := decodeVector(r, f, n); err != nil {
				return err
			}
		}
	}
	return r.err
}
