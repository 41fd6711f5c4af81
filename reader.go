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
	"io"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/engine"
	"github.com/batchio/batchio/engine/localfile"
	"github.com/batchio/batchio/schema"
	"github.com/batchio/batchio/value"
)

// ReaderOption configures a read session.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	eng engine.Engine
}

// WithReadEngine selects a file engine other than the default local
// file engine.
func WithReadEngine(eng engine.Engine) ReaderOption {
	return func(c *readerConfig) { c.eng = eng }
}

// Reader is a read session for one input file, reconstructing rows one
// at a time from the engine's batches.
//
// A Reader is bound to exactly one file and must not be shared:
// concurrent use from multiple goroutines is undefined behavior by
// contract.
type Reader struct {
	r        engine.Reader
	schema   *schema.Schema
	batch    *colvec.Batch
	batchRow int
	fileRow  int64
	total    int64
	loaded   bool
	closed   bool
}

// OpenReader opens a read session on path.
func OpenReader(path string, opts ...ReaderOption) (*Reader, error) {
	var cfg readerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.eng == nil {
		cfg.eng = localfile.New()
	}
	er, err := cfg.eng.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	s := er.Schema()
	return &Reader{
		r:      er,
		schema: s,
		batch:  colvec.NewBatch(s, cfg.eng.BatchCapacity()),
		total:  er.NumRows(),
	}, nil
}

// Schema returns the file's schema.
func (r *Reader) Schema() *schema.Schema { return r.schema }

// NumRows returns the file's total row count.
func (r *Reader) NumRows() int64 { return r.total }

// ReadRow returns the next row in file order, or io.EOF once the file's
// row count has been consumed.
func (r *Reader) ReadRow() ([]value.Value, error) {
	if r.closed {
		return nil, fmt.Errorf("%w: ReadRow after Close", ErrClosed)
	}
	if r.fileRow == r.total {
		return nil, io.EOF
	}
	if !r.loaded || r.batchRow == r.batch.Size {
		ok, err := r.r.NextBatch(r.batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngine, err)
		}
		if !ok || r.batch.Size == 0 {
			return nil, fmt.Errorf("%w: file ended at row %d of %d", ErrEngine, r.fileRow, r.total)
		}
		r.loaded = true
		r.batchRow = 0
	}

	row := make([]value.Value, r.schema.NumChildren())
	for i := range row {
		v, err := decodeCell(r.batch.Cols[i], r.schema.Child(i), r.batchRow)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	r.batchRow++
	r.fileRow++
	return row, nil
}

// Close releases the engine reader. Close is idempotent; the session is
// not reusable afterwards.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.r.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return nil
}
