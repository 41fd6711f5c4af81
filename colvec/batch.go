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

package colvec

import (
	"github.com/batchio/batchio/schema"
)

// Batch is a fixed-capacity columnar buffer holding one window of rows
// across all top-level columns. The batch is owned by one session at a
// time; it is filled to Capacity on the write side, handed to the file
// engine, then Reset for the next window.
type Batch struct {
	// Capacity is the fixed maximum number of rows, set by the engine
	// at allocation time.
	Capacity int
	// Size is the number of rows currently buffered.
	Size int
	Cols []Vector
}

// NewBatch allocates a batch for a top-level struct schema: one column
// vector tree per field.
func NewBatch(s *schema.Schema, capacity int) *Batch {
	cols := make([]Vector, s.NumChildren())
	for i, child := range s.Children() {
		cols[i] = NewVector(child, capacity)
	}
	return &Batch{Capacity: capacity, Cols: cols}
}

// Reset clears the batch for the next window of rows.
func (b *Batch) Reset() {
	b.Size = 0
	for _, col := range b.Cols {
		col.Reset()
	}
}
