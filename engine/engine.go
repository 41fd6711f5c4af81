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

// Package engine defines the contract between the marshalling core and
// the columnar file engine that persists batches. The core never
// touches files itself: it fills batches and hands them to a Writer, or
// asks a Reader to fill batches for decoding. Implementations own the
// on-disk format, compression and I/O.
package engine

import (
	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/schema"
)

// Writer persists fully-populated batches for one output file. A Writer
// is bound to one file and is not reusable after Close.
type Writer interface {
	// WriteBatch persists batch.Size rows. The batch may be reset and
	// refilled by the caller after WriteBatch returns.
	WriteBatch(batch *colvec.Batch) error
	Close() error
}

// Reader produces batches for one input file. A Reader is bound to one
// file and is not reusable after Close.
type Reader interface {
	Schema() *schema.Schema
	// NumRows returns the file's total row count.
	NumRows() int64
	// NextBatch fills batch with the next window of rows, returning
	// false once the file is exhausted.
	NextBatch(batch *colvec.Batch) (bool, error)
	Close() error
}

// Engine opens readers and writers and fixes the batch capacity used
// for files it produces.
type Engine interface {
	OpenWriter(path string, s *schema.Schema) (Writer, error)
	OpenReader(path string) (Reader, error)
	// BatchCapacity is the fixed per-batch row capacity for this
	// engine instance.
	BatchCapacity() int
}
