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

package localfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/engine/localfile"
	"github.com/batchio/batchio/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse("struct<id:bigint,name:string>")
	require.NoError(t, err)
	return s
}

// fillBatch buffers rows [start, start+n) into batch.
func fillBatch(batch *colvec.Batch, start, n int) {
	batch.Reset()
	ids := batch.Cols[0].(*colvec.LongVector)
	names := batch.Cols[1].(*colvec.BytesVector)
	for i := 0; i < n; i++ {
		ids.Values[i] = int64(start + i)
		names.Values[i] = []byte{'r', byte('0' + (start+i)%10)}
	}
	batch.Size = n
}

func writeTestFile(t *testing.T, path string, codec localfile.Codec, batches ...int) {
	t.Helper()
	eng := localfile.New(localfile.WithCodec(codec), localfile.WithBatchCapacity(16))
	s := testSchema(t)
	w, err := eng.OpenWriter(path, s)
	require.NoError(t, err)

	batch := colvec.NewBatch(s, 16)
	start := 0
	for _, n := range batches {
		fillBatch(batch, start, n)
		require.NoError(t, w.WriteBatch(batch))
		start += n
	}
	require.NoError(t, w.Close())
}

func TestRoundTripCodecs(t *testing.T) {
	codecs := []localfile.Codec{
		localfile.CodecNone,
		localfile.CodecSnappy,
		localfile.CodecZstd,
		localfile.CodecLZ4,
	}
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.cvb")
			writeTestFile(t, path, codec, 10, 6)

			// The reader takes the codec from the header, not the engine.
			r, err := localfile.New().OpenReader(path)
			require.NoError(t, err)
			defer r.Close()

			assert.True(t, schema.Equal(testSchema(t), r.Schema()))
			assert.Equal(t, int64(16), r.NumRows())

			batch := colvec.NewBatch(r.Schema(), 16)
			row := 0
			for {
				ok, err := r.NextBatch(batch)
				require.NoError(t, err)
				if !ok {
					break
				}
				ids := batch.Cols[0].(*colvec.LongVector)
				names := batch.Cols[1].(*colvec.BytesVector)
				for i := 0; i < batch.Size; i++ {
					assert.Equal(t, int64(row), ids.Values[i])
					assert.Equal(t, []byte{'r', byte('0' + row%10)}, names.Values[i])
					row++
				}
			}
			assert.Equal(t, 16, row)
		})
	}
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.cvb")
	writeTestFile(t, path, localfile.CodecSnappy)

	r, err := localfile.New().OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(0), r.NumRows())
	batch := colvec.NewBatch(r.Schema(), 16)
	ok, err := r.NextBatch(batch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyBatchSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip.cvb")
	eng := localfile.New()
	s := testSchema(t)
	w, err := eng.OpenWriter(path, s)
	require.NoError(t, err)

	batch := colvec.NewBatch(s, 16)
	require.NoError(t, w.WriteBatch(batch)) // Size == 0, no frame
	fillBatch(batch, 0, 4)
	require.NoError(t, w.WriteBatch(batch))
	require.NoError(t, w.Close())

	r, err := eng.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(4), r.NumRows())
}

func TestCorruptMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cvb")
	writeTestFile(t, path, localfile.CodecSnappy, 4)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = localfile.New().OpenReader(path)
	assert.ErrorIs(t, err, localfile.ErrCorruptFile)
}

func TestCorruptFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flip.cvb")
	// Uncompressed so the bit flip reaches the checksum, not the codec.
	writeTestFile(t, path, localfile.CodecNone, 4)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Last payload byte of the only frame sits right before the footer,
	// which is rows(8) + frames(4) + magic(4) bytes long.
	data[len(data)-17] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := localfile.New().OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	batch := colvec.NewBatch(r.Schema(), 16)
	_, err = r.NextBatch(batch)
	assert.ErrorIs(t, err, localfile.ErrCorruptFile)
}

func TestTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.cvb")
	writeTestFile(t, path, localfile.CodecSnappy, 4)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-8], 0o644))

	_, err = localfile.New().OpenReader(path)
	assert.ErrorIs(t, err, localfile.ErrCorruptFile)
}

func TestOpenWriterRejectsNonStruct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.cvb")
	_, err := localfile.New().OpenWriter(path, schema.Primitive(schema.Long))
	assert.Error(t, err)
}

func TestWriterCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.cvb")
	w, err := localfile.New().OpenWriter(path, testSchema(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
