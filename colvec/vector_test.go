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

package colvec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
)

func TestNewBatchAllocation(t *testing.T) {
	s, err := schema.Parse("struct<a:bigint,b:double,c:string,m:map<string,bigint>,l:array<timestamp>>")
	require.NoError(t, err)

	batch := colvec.NewBatch(s, 8)
	assert.Equal(t, 8, batch.Capacity)
	assert.Equal(t, 0, batch.Size)
	require.Len(t, batch.Cols, 5)

	assert.IsType(t, &colvec.LongVector{}, batch.Cols[0])
	assert.IsType(t, &colvec.DoubleVector{}, batch.Cols[1])
	assert.IsType(t, &colvec.BytesVector{}, batch.Cols[2])

	m, ok := batch.Cols[3].(*colvec.MapVector)
	require.True(t, ok)
	assert.IsType(t, &colvec.BytesVector{}, m.Keys)
	assert.IsType(t, &colvec.LongVector{}, m.Values)

	l, ok := batch.Cols[4].(*colvec.ListVector)
	require.True(t, ok)
	assert.IsType(t, &colvec.TimestampVector{}, l.Elems)
	assert.Equal(t, 8, l.Cap())
}

func TestNullFlags(t *testing.T) {
	v := colvec.NewLongVector(4)
	for row := 0; row < 4; row++ {
		assert.False(t, v.IsNull(row))
	}
	v.SetNull(2)
	assert.True(t, v.IsNull(2))
	assert.False(t, v.IsNull(1))

	v.Reset()
	assert.False(t, v.IsNull(2))
}

func TestEnsureGrows(t *testing.T) {
	v := colvec.NewBytesVector(2)
	v.Values[0] = []byte("keep")
	v.SetNull(1)

	v.Ensure(3)
	assert.GreaterOrEqual(t, v.Cap(), 3)
	assert.Equal(t, []byte("keep"), v.Values[0])
	assert.True(t, v.IsNull(1))
	assert.False(t, v.IsNull(2))

	// Doubling: growing by one slot at a time must not reallocate each
	// call.
	v = colvec.NewBytesVector(1)
	v.Ensure(2)
	grown := v.Cap()
	v.Ensure(grown)
	assert.Equal(t, grown, v.Cap())
}

func TestEnsureNoShrink(t *testing.T) {
	v := colvec.NewDoubleVector(8)
	v.Ensure(2)
	assert.Equal(t, 8, v.Cap())
}

func TestTimestampSplit(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
	}{
		{"whole second", time.Unix(1686832200, 0)},
		{"with nanos", time.Unix(1686832200, 123456789)},
		{"pre-epoch", time.Unix(-5, 500000000)},
		{"epoch", time.Unix(0, 0)},
	}
	v := colvec.NewTimestampVector(len(tests))
	for i, tt := range tests {
		v.Set(i, tt.t)
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.t.Equal(v.At(i)), "got %v want %v", v.At(i), tt.t)
		})
	}
}

func TestListResetClearsBookkeeping(t *testing.T) {
	s, err := schema.Parse("array<bigint>")
	require.NoError(t, err)

	v := colvec.NewVector(s, 4).(*colvec.ListVector)
	v.Offsets[0], v.Lengths[0] = 0, 3
	v.ChildCount = 3
	v.SetNull(1)
	v.Elems.SetNull(2)

	v.Reset()
	assert.Equal(t, 0, v.ChildCount)
	assert.Equal(t, int64(0), v.Lengths[0])
	assert.False(t, v.IsNull(1))
	assert.False(t, v.Elems.IsNull(2))
}

func TestBatchReset(t *testing.T) {
	s, err := schema.Parse("struct<a:bigint,u:uniontype<bigint,string>>")
	require.NoError(t, err)

	batch := colvec.NewBatch(s, 4)
	batch.Size = 3
	u := batch.Cols[1].(*colvec.UnionVector)
	u.Tags[0] = 1
	u.SetNull(2)

	batch.Reset()
	assert.Equal(t, 0, batch.Size)
	assert.Equal(t, int32(0), u.Tags[0])
	assert.False(t, u.IsNull(2))
}
