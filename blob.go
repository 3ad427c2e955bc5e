// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ccsds

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ZaparooProject/go-ccsds/internal/frame"
)

// Blob field names.
const (
	BlobOffsetField        = "offset"
	BlobDataField          = "data"
	BlobLengthField        = "length"
	BlobHashField          = "xxh64"
	BlobCodecField         = "codec"
	BlobEncodedLengthField = "encoded length"
)

// Blob describes a memory region written as a run of packets, such as a
// source archive or a firmware image.
type Blob struct {
	// Name is the packet name of the data packets.
	Name string
	// APID carries the data packets.
	APID APID
	// SummaryAPID carries the closing summary packet.
	SummaryAPID APID
}

// WriteBlob writes data as a sequence of packets each holding an offset and
// a chunk of the region, followed by a summary packet giving the region
// length, its xxHash64 digest and the codec. Chunks are sized so a data
// packet fits the stash.
func (e *Encoder) WriteBlob(b Blob, data []byte) error {
	if b.APID == b.SummaryAPID {
		return fmt.Errorf("%w: blob data and summary share APID 0x%03X", ErrInvalidParameter, uint16(b.APID))
	}
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: blob of %d bytes exceeds 32-bit offsets", ErrInvalidParameter, len(data))
	}

	payload, codec, err := encodeBlob(e.config.blobCodec, data)
	if err != nil {
		return fmt.Errorf("blob %q: %w", b.Name, err)
	}

	chunk := e.BlobChunkSize()
	for off := 0; off < len(payload); off += chunk {
		end := min(off+chunk, len(payload))
		if err := e.Start(b.APID, b.Name, NoTimeCode); err != nil {
			return err
		}
		if err := e.FillU32(uint32(off), BlobOffsetField); err != nil { //nolint:gosec // checked above
			return err
		}
		if err := e.FillBinary(payload[off:end], BlobDataField); err != nil {
			return err
		}
		if err := e.Finish(b.APID); err != nil {
			return err
		}
	}
	Debugf("ccsds: blob %q %d bytes as %d %s bytes", b.Name, len(data), len(payload), codec)

	if err := e.Start(b.SummaryAPID, b.Name+" summary", NoTimeCode); err != nil {
		return err
	}
	if err := e.FillU32(uint32(len(data)), BlobLengthField); err != nil { //nolint:gosec // checked above
		return err
	}
	if err := e.FillU64(xxhash.Sum64(data), BlobHashField); err != nil {
		return err
	}
	if err := e.FillU8(uint8(codec), BlobCodecField); err != nil {
		return err
	}
	if err := e.FillU32(uint32(len(payload)), BlobEncodedLengthField); err != nil { //nolint:gosec // codec output is bounded
		return err
	}
	return e.Finish(b.SummaryAPID)
}

// BlobChunkSize returns the number of region bytes WriteBlob puts in each
// data packet.
func (e *Encoder) BlobChunkSize() int {
	return max(e.config.stashSize-frame.PrimaryHeaderLen-4, 1)
}

// encodeBlob applies codec to data. It returns the codec actually used:
// regions LZ4 does not shrink are sent raw.
func encodeBlob(codec BlobCodec, data []byte) ([]byte, BlobCodec, error) {
	switch codec {
	case BlobS2:
		return s2.Encode(nil, data), BlobS2, nil
	case BlobLZ4:
		var c lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, dst)
		if err != nil {
			return nil, codec, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, BlobRaw, nil
		}
		return dst[:n], BlobLZ4, nil
	case BlobZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderCRC(false))
		if err != nil {
			return nil, codec, fmt.Errorf("zstd encoder: %w", err)
		}
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(data, nil), BlobZstd, nil
	default:
		return data, BlobRaw, nil
	}
}
