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
	"encoding/binary"
	"errors"
	"fmt"
)

// File layout:
//
//	header:  magic | version u8 | codec u8 | file UUID (16) |
//	         schema length u32 | schema JSON
//	frames:  compressed length u32 | uncompressed length u32 |
//	         xxh3 of uncompressed payload u64 | compressed payload
//	footer:  total rows u64 | frame count u32 | magic
//
// One frame holds one flushed batch. All integers are little-endian.
const (
	magic         = "cvb1"
	formatVersion = 1

	fileIDLen   = 16
	headerFixed = len(magic) + 2 + fileIDLen + 4
	frameFixed  = 4 + 4 + 8
	footerLen   = 8 + 4 + len(magic)
)

// ErrCorruptFile reports a malformed header, footer or frame, including
// checksum mismatches.
var ErrCorruptFile = errors.New("corrupt batch file")

// sticky little-endian reader over one in-memory buffer. Reads past the
// end latch an error instead of panicking, so frame decoding can check
// once at the end of each vector.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated payload at offset %d", ErrCorruptFile, r.pos)
	}
}

func (r *byteReader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.buf) {
		r.fail()
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *byteReader) u8() byte {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *byteReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *byteReader) i32() int32 { return int32(r.u32()) }

func (r *byteReader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *byteReader) i64() int64 { return int64(r.u64()) }

func putU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func putI32(buf []byte, v int32) []byte { return putU32(buf, uint32(v)) }

func putU64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

func putI64(buf []byte, v int64) []byte { return putU64(buf, uint64(v)) }
