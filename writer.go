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
	"github.com/batchio/batchio/engine"
	"github.com/batchio/batchio/engine/localfile"
	"github.com/batchio/batchio/schema"
	"github.com/batchio/batchio/value"
)

// WriterOption configures a write session.
type WriterOption func(*Writer)

// WithEngine selects a file engine other than the default local file
// engine.
func WithEngine(eng engine.Engine) WriterOption {
	return func(w *Writer) { w.eng = eng }
}

// Writer is a write session for one output file. Rows are buffered in a
// columnar batch and handed to the file engine at every batch boundary
// and on Close.
//
// A Writer is bound to exactly one file, holds internal state and must
// not be reused or shared: concurrent use from multiple goroutines is
// undefined behavior by contract. After any marshal error the batch may
// be partially initialized and the session must be abandoned without
// keeping the output file.
type Writer struct {
	eng    engine.Engine
	w      engine.Writer // nil until the first row
	path   string
	schema *schema.Schema
	batch  *colvec.Batch
	enc    encoder
	closed bool
}

// OpenWriter starts a write session. The schema's top level must be a
// struct: one field per column.
func OpenWriter(path string, s *schema.Schema, opts ...WriterOption) (*Writer, error) {
	if s == nil || s.Kind() != schema.Struct {
		return nil, fmt.Errorf("%w: top-level schema must be a struct", ErrSchemaMismatch)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	w := &Writer{path: path, schema: s}
	for _, opt := range opts {
		opt(w)
	}
	if w.eng == nil {
		w.eng = localfile.New()
	}
	w.batch = colvec.NewBatch(s, w.eng.BatchCapacity())
	w.enc = encoder{batchCapacity: w.eng.BatchCapacity()}
	return w, nil
}

// Schema returns the session schema.
func (w *Writer) Schema() *schema.Schema { return w.schema }

// WriteRow stages one row: an ordered value per top-level schema field.
// The row is durably written at the next batch boundary or on Close.
func (w *Writer) WriteRow(row []value.Value) error {
	if w.closed {
		return fmt.Errorf("%w: WriteRow after Close", ErrClosed)
	}
	if len(row) != w.schema.NumChildren() {
		return fmt.Errorf("%w: row has %d values, schema has %d fields",
			ErrSchemaMismatch, len(row), w.schema.NumChildren())
	}
	if w.w == nil {
		// The engine resource is acquired on first use so a session
		// that never writes produces no file.
		ew, err := w.eng.OpenWriter(w.path, w.schema)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEngine, err)
		}
		w.w = ew
	}

	for i, val := range row {
		if err := w.enc.encodeCell(val, w.schema.Child(i), w.schema.FieldName(i), w.batch.Cols[i], w.batch.Size); err != nil {
			return err
		}
	}
	w.batch.Size++

	if w.batch.Size == w.batch.Capacity {
		if err := w.w.WriteBatch(w.batch); err != nil {
			return fmt.Errorf("%w: %v", ErrEngine, err)
		}
		w.batch.Reset()
	}
	return nil
}

// Close flushes any partially filled batch and releases the engine
// writer. Close is idempotent; the session is not reusable afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.w == nil {
		return nil
	}
	if w.batch.Size > 0 {
		if err := w.w.WriteBatch(w.batch); err != nil {
			return fmt.Errorf("%w: %v", ErrEngine, err)
		}
		w.batch.Reset()
	}
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return nil
}
