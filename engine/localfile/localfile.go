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

// Package localfile is a self-contained columnar file engine for the
// local filesystem. Each flushed batch becomes one compressed,
// checksummed frame; the schema travels in the file header and the row
// count in the footer, so files are self-describing.
package localfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/batchio/batchio/colvec"
	"github.com/batchio/batchio/engine"
	"github.com/batchio/batchio/schema"
)

const defaultBatchCapacity = 1024

// Option configures an Engine.
type Option func(*Engine)

// WithCodec selects the frame compression codec for files this engine
// writes. Reading is unaffected: the codec is taken from the header.
func WithCodec(c Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithBatchCapacity sets the fixed per-batch row capacity.
func WithBatchCapacity(capacity int) Option {
	return func(e *Engine) { e.capacity = capacity }
}

// WithLogger attaches a logger for open/flush/close events.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine opens batch file readers and writers on the local filesystem.
type Engine struct {
	codec    Codec
	capacity int
	logger   log.Logger
}

func New(opts ...Option) *Engine {
	e := &Engine{
		codec:    CodecSnappy,
		capacity: defaultBatchCapacity,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) BatchCapacity() int { return e.capacity }

func (e *Engine) OpenWriter(path string, s *schema.Schema) (engine.Writer, error) {
	if s == nil || s.Kind() != schema.Struct {
		return nil, fmt.Errorf("top-level schema must be a struct")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	schemaJSON, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fileID := uuid.New()

	header := append([]byte(magic), formatVersion, byte(e.codec))
	header = append(header, fileID[:]...)
	header = putU32(header, uint32(len(schemaJSON)))
	header = append(header, schemaJSON...)
	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	level.Debug(e.logger).Log("msg", "opened batch file for writing",
		"path", path, "file_id", fileID, "codec", e.codec)
	return &fileWriter{f: f, path: path, codec: e.codec, logger: e.logger}, nil
}

type fileWriter struct {
	f      *os.File
	path   string
	codec  Codec
	logger log.Logger
	rows   uint64
	frames uint32
	closed bool
}

func (w *fileWriter) WriteBatch(batch *colvec.Batch) error {
	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.path)
	}
	if batch.Size == 0 {
		return nil
	}
	raw := encodeBatch(batch)
	payload, err := w.codec.compress(raw)
	if err != nil {
		return err
	}

	frame := putU32(make([]byte, 0, frameFixed+len(payload)), uint32(len(payload)))
	frame = putU32(frame, uint32(len(raw)))
	frame = putU64(frame, xxh3.Hash(raw))
	frame = append(frame, payload...)
	if _, err := w.f.Write(frame); err != nil {
		return err
	}
	w.rows += uint64(batch.Size)
	w.frames++
	level.Debug(w.logger).Log("msg", "flushed batch",
		"path", w.path, "rows", batch.Size, "raw_bytes", len(raw), "frame_bytes", len(frame))
	return nil
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	footer := putU64(make([]byte, 0, footerLen), w.rows)
	footer = putU32(footer, w.frames)
	footer = append(footer, magic...)
	if _, err := w.f.Write(footer); err != nil {
		w.f.Close()
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	level.Debug(w.logger).Log("msg", "closed batch file",
		"path", w.path, "rows", w.rows, "frames", w.frames)
	return nil
}

func (e *Engine) OpenReader(path string) (engine.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &fileReader{f: f, path: path, logger: e.logger}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.readFooter(); err != nil {
		f.Close()
		return nil, err
	}
	level.Debug(e.logger).Log("msg", "opened batch file for reading",
		"path", path, "file_id", r.fileID, "codec", r.codec, "rows", r.rows)
	return r, nil
}

type fileReader struct {
	f      *os.File
	path   string
	logger log.Logger
	schema *schema.Schema
	codec  Codec
	fileID uuid.UUID

	rows       uint64
	frameCount uint32
	framesRead uint32
	dataStart  int64
	started    bool
	closed     bool
}

func (r *fileReader) readHeader() error {
	fixed := make([]byte, headerFixed)
	if _, err := io.ReadFull(r.f, fixed); err != nil {
		return fmt.Errorf("%w: short header: %v", ErrCorruptFile, err)
	}
	if !bytes.Equal(fixed[:len(magic)], []byte(magic)) {
		return fmt.Errorf("%w: bad magic", ErrCorruptFile)
	}
	if version := fixed[len(magic)]; version != formatVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrCorruptFile, version)
	}
	r.codec = Codec(fixed[len(magic)+1])
	if !r.codec.valid() {
		return fmt.Errorf("%w: unknown codec %d", ErrCorruptFile, r.codec)
	}
	copy(r.fileID[:], fixed[len(magic)+2:len(magic)+2+fileIDLen])

	br := &byteReader{buf: fixed, pos: headerFixed - 4}
	schemaLen := int(br.u32())
	schemaJSON := make([]byte, schemaLen)
	if _, err := io.ReadFull(r.f, schemaJSON); err != nil {
		return fmt.Errorf("%w: short schema: %v", ErrCorruptFile, err)
	}
	s := new(schema.Schema)
	if err := json.Unmarshal(schemaJSON, s); err != nil {
		return fmt.Errorf("%w: bad schema: %v", ErrCorruptFile, err)
	}
	if s.Kind() != schema.Struct {
		return fmt.Errorf("%w: top-level schema is %s, expected struct", ErrCorruptFile, s.Kind())
	}
	r.schema = s
	r.dataStart = int64(headerFixed + schemaLen)
	return nil
}

func (r *fileReader) readFooter() error {
	end, err := r.f.Seek(-int64(footerLen), io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: missing footer: %v", ErrCorruptFile, err)
	}
	if end < r.dataStart {
		return fmt.Errorf("%w: file shorter than header", ErrCorruptFile)
	}
	footer := make([]byte, footerLen)
	if _, err := io.ReadFull(r.f, footer); err != nil {
		return fmt.Errorf("%w: short footer: %v", ErrCorruptFile, err)
	}
	br := &byteReader{buf: footer}
	r.rows = br.u64()
	r.frameCount = br.u32()
	if !bytes.Equal(footer[footerLen-len(magic):], []byte(magic)) {
		return fmt.Errorf("%w: bad footer magic", ErrCorruptFile)
	}
	return nil
}

func (r *fileReader) Schema() *schema.Schema { return r.schema }

func (r *fileReader) NumRows() int64 { return int64(r.rows) }

func (r *fileReader) NextBatch(batch *colvec.Batch) (bool, error) {
	if r.closed {
		return false, fmt.Errorf("reader for %s is closed", r.path)
	}
	if !r.started {
		if _, err := r.f.Seek(r.dataStart, io.SeekStart); err != nil {
			return false, err
		}
		r.started = true
	}
	if r.framesRead == r.frameCount {
		return false, nil
	}

	fixed := make([]byte, frameFixed)
	if _, err := io.ReadFull(r.f, fixed); err != nil {
		return false, fmt.Errorf("%w: short frame header: %v", ErrCorruptFile, err)
	}
	br := &byteReader{buf: fixed}
	payloadLen := int(br.u32())
	rawLen := int(br.u32())
	sum := br.u64()

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.f, payload); err != nil {
		return false, fmt.Errorf("%w: short frame: %v", ErrCorruptFile, err)
	}
	raw, err := r.codec.decompress(payload, rawLen)
	if err != nil {
		return false, err
	}
	if got := xxh3.Hash(raw); got != sum {
		return false, fmt.Errorf("%w: frame checksum mismatch: %016x != %016x", ErrCorruptFile, got, sum)
	}
	if err := decodeBatch(raw, r.schema, batch); err != nil {
		return false, err
	}
	r.framesRead++
	return true, nil
}

func (r *fileReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}
