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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
)

func listBatch(t *testing.T) (*schema.Schema, *colvec.Batch) {
	t.Helper()
	s, err := schema.Parse("struct<l:array<bigint>>")
	require.NoError(t, err)
	return s, colvec.NewBatch(s, 4)
}

// Frame metadata is untrusted input: offsets, lengths and child counts
// from a checksum-valid frame must still be bounds-checked before the
// row decoder indexes with them.
func TestDecodeBatchRejectsBadRuns(t *testing.T) {
	tests := []struct {
		name string
		fill func(v *colvec.ListVector)
	}{
		{"negative length", func(v *colvec.ListVector) {
			v.Offsets[0], v.Lengths[0] = 0, -5
			v.ChildCount = 0
		}},
		{"negative offset", func(v *colvec.ListVector) {
			v.Offsets[0], v.Lengths[0] = -1, 1
			v.ChildCount = 1
		}},
		{"run past child slots", func(v *colvec.ListVector) {
			v.Offsets[0], v.Lengths[0] = 0, 3
			v.ChildCount = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, batch := listBatch(t)
			tt.fill(batch.Cols[0].(*colvec.ListVector))
			batch.Size = 1
			raw := encodeBatch(batch)

			_, dst := listBatch(t)
			err := decodeBatch(raw, s, dst)
			assert.ErrorIs(t, err, ErrCorruptFile)
		})
	}
}

func TestDecodeBatchAcceptsStaleOffsetOnEmptyRun(t *testing.T) {
	s, batch := listBatch(t)
	v := batch.Cols[0].(*colvec.ListVector)
	// A writer reusing its batch leaves old offsets behind rows whose
	// length is zero (nulls and empty lists). These are never indexed.
	v.Offsets[0], v.Lengths[0] = 90, 0
	v.SetNull(0)
	v.ChildCount = 0
	batch.Size = 1
	raw := encodeBatch(batch)

	_, dst := listBatch(t)
	require.NoError(t, decodeBatch(raw, s, dst))
	assert.True(t, dst.Cols[0].IsNull(0))
}

func TestDecodeBatchRejectsBadMapRuns(t *testing.T) {
	s, err := schema.Parse("struct<m:map<string,bigint>>")
	require.NoError(t, err)
	batch := colvec.NewBatch(s, 4)
	v := batch.Cols[0].(*colvec.MapVector)
	v.Offsets[0], v.Lengths[0] = 2, 2
	v.ChildCount = 3
	batch.Size = 1
	raw := encodeBatch(batch)

	dst := colvec.NewBatch(s, 4)
	err = decodeBatch(raw, s, dst)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestCompressRoundTrip(t *testing.T) {
	payloads := [][]byte{
		bytes.Repeat([]byte("abcd"), 256),              // compressible
		{0x8f, 0x1a, 0x3c, 0xd4, 0x02, 0x99, 0xe1, 7}, // incompressible
		{},
	}
	codecs := []Codec{CodecNone, CodecSnappy, CodecZstd, CodecLZ4}
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			for _, raw := range payloads {
				payload, err := codec.compress(raw)
				require.NoError(t, err)
				got, err := codec.decompress(payload, len(raw))
				require.NoError(t, err)
				assert.Equal(t, raw, got)
			}
		})
	}
}
