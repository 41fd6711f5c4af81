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

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the frame compression. The codec is recorded in the
// file header, so readers need no configuration.
type Codec byte

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	}
	return "unknown"
}

func (c Codec) valid() bool { return c <= CodecLZ4 }

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1)); err != nil {
		panic(fmt.Sprintf("localfile: zstd encoder: %v", err))
	}
	if zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1)); err != nil {
		panic(fmt.Sprintf("localfile: zstd decoder: %v", err))
	}
}

func (c Codec) compress(raw []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return raw, nil
	case CodecSnappy:
		return snappy.Encode(nil, raw), nil
	case CodecZstd:
		return zstdEncoder.EncodeAll(raw, nil), nil
	case CodecLZ4:
		var compressor lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := compressor.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		// CompressBlock signals incompressible input with n == 0; store
		// such frames raw. The reader detects this by payload length.
		if n == 0 || n >= len(raw) {
			return raw, nil
		}
		return dst[:n], nil
	}
	return nil, fmt.Errorf("unknown codec %d", c)
}

// decompress expands payload into exactly rawLen bytes.
func (c Codec) decompress(payload []byte, rawLen int) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch c {
	case CodecNone:
		raw = payload
	case CodecSnappy:
		raw, err = snappy.Decode(nil, payload)
	case CodecZstd:
		raw, err = zstdDecoder.DecodeAll(payload, nil)
	case CodecLZ4:
		if len(payload) == rawLen {
			// Stored frame, see compress.
			raw = payload
			break
		}
		raw = make([]byte, rawLen)
		var n int
		n, err = lz4.UncompressBlock(payload, raw)
		if err == nil {
			raw = raw[:n]
		}
	default:
		return nil, fmt.Errorf("unknown codec %d", c)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("%w: frame expanded to %d bytes, expected %d", ErrCorruptFile, len(raw), rawLen)
	}
	return raw, nil
}
