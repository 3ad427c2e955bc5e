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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-ccsds/internal/frame"
)

type blobSummary struct {
	length     uint32
	hash       uint64
	encodedLen uint32
	codec      BlobCodec
}

// collectBlob reassembles the data packets of a blob and decodes its
// summary packet.
func collectBlob(t *testing.T, pkts []frame.Packet, b Blob) ([]byte, blobSummary) {
	t.Helper()
	var payload []byte
	var sum blobSummary
	found := false
	for _, pkt := range pkts {
		switch APID(pkt.APID) {
		case b.APID:
			require.GreaterOrEqual(t, len(pkt.Body), 4)
			off := binary.BigEndian.Uint32(pkt.Body)
			require.Equal(t, uint32(len(payload)), off, "chunks arrive in order")
			payload = append(payload, pkt.Body[4:]...)
		case b.SummaryAPID:
			require.Len(t, pkt.Body, 4+8+1+4)
			sum = blobSummary{
				length:     binary.BigEndian.Uint32(pkt.Body[0:4]),
				hash:       binary.BigEndian.Uint64(pkt.Body[4:12]),
				codec:      BlobCodec(pkt.Body[12]),
				encodedLen: binary.BigEndian.Uint32(pkt.Body[13:17]),
			}
			found = true
		}
	}
	require.True(t, found, "summary packet missing")
	return payload, sum
}

func TestWriteBlob(t *testing.T) {
	t.Parallel()
	enc, h := newTestEncoder(t, 1024, WithStashSize(32))
	assert.Equal(t, 22, enc.BlobChunkSize())

	data := make([]byte, 50)
	for i := range data {
		data[i] = byte(i * 7)
	}
	blob := Blob{Name: "image", APID: 4, SummaryAPID: 5}
	require.NoError(t, enc.WriteBlob(blob, data))

	pkts := h.packets(t)
	var docs []docEntry
	var sizes []int
	for _, pkt := range pkts {
		switch pkt.APID {
		case uint16(APIDDoc):
			docs = append(docs, parseDoc(t, pkt))
		case 4:
			sizes = append(sizes, len(pkt.Body)-4)
		}
	}
	assert.Equal(t, []int{22, 22, 6}, sizes)
	assert.Equal(t, []docEntry{
		{apid: 4, tag: NameTag, name: "image"},
		{apid: 4, tag: TypeU32, name: BlobOffsetField},
		{apid: 4, tag: TypeBinary, name: BlobDataField},
		{apid: 5, tag: NameTag, name: "image summary"},
		{apid: 5, tag: TypeU32, name: BlobLengthField},
		{apid: 5, tag: TypeU64, name: BlobHashField},
		{apid: 5, tag: TypeU8, name: BlobCodecField},
		{apid: 5, tag: TypeU32, name: BlobEncodedLengthField},
	}, docs)

	payload, sum := collectBlob(t, pkts, blob)
	assert.Equal(t, data, payload)
	assert.Equal(t, blobSummary{
		length:     50,
		hash:       xxhash.Sum64(data),
		codec:      BlobRaw,
		encodedLen: 50,
	}, sum)
}

func TestWriteBlobCompressed(t *testing.T) {
	t.Parallel()
	enc, h := newTestEncoder(t, 1024, WithBlobCompression(BlobS2))

	data := bytes.Repeat([]byte("telemetry "), 200)
	blob := Blob{Name: "log", APID: 6, SummaryAPID: 7}
	require.NoError(t, enc.WriteBlob(blob, data))

	payload, sum := collectBlob(t, h.packets(t), blob)
	assert.Less(t, len(payload), len(data), "repetitive data must shrink")
	decoded, err := s2.Decode(nil, payload)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	assert.Equal(t, BlobS2, sum.codec)
	assert.Equal(t, uint32(len(data)), sum.length)
	assert.Equal(t, uint32(len(payload)), sum.encodedLen)
	assert.Equal(t, xxhash.Sum64(data), sum.hash, "digest covers the original region")
}

func TestWriteBlobCodecs(t *testing.T) {
	t.Parallel()
	data := bytes.Repeat([]byte("sensor frame "), 150)
	tests := []struct {
		decode func(t *testing.T, payload []byte) []byte
		name   string
		codec  BlobCodec
	}{
		{
			name:  "lz4",
			codec: BlobLZ4,
			decode: func(t *testing.T, payload []byte) []byte {
				t.Helper()
				out := make([]byte, len(data))
				n, err := lz4.UncompressBlock(payload, out)
				require.NoError(t, err)
				return out[:n]
			},
		},
		{
			name:  "zstd",
			codec: BlobZstd,
			decode: func(t *testing.T, payload []byte) []byte {
				t.Helper()
				dec, err := zstd.NewReader(nil)
				require.NoError(t, err)
				defer dec.Close()
				out, err := dec.DecodeAll(payload, nil)
				require.NoError(t, err)
				return out
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enc, h := newTestEncoder(t, 1024, WithBlobCompression(tt.codec))
			blob := Blob{Name: "frames", APID: 8, SummaryAPID: 9}
			require.NoError(t, enc.WriteBlob(blob, data))

			payload, sum := collectBlob(t, h.packets(t), blob)
			assert.Less(t, len(payload), len(data))
			assert.Equal(t, data, tt.decode(t, payload))
			assert.Equal(t, tt.codec, sum.codec)
			assert.Equal(t, uint32(len(payload)), sum.encodedLen)
		})
	}
}

func TestWriteBlobIncompressibleLZ4SentRaw(t *testing.T) {
	t.Parallel()
	enc, h := newTestEncoder(t, 512, WithBlobCompression(BlobLZ4))

	data := []byte{0x91, 0x07, 0xE3, 0x5A, 0x2C}
	blob := Blob{Name: "tiny", APID: 4, SummaryAPID: 5}
	require.NoError(t, enc.WriteBlob(blob, data))

	payload, sum := collectBlob(t, h.packets(t), blob)
	assert.Equal(t, data, payload)
	assert.Equal(t, BlobRaw, sum.codec)
}

func TestWriteBlobEmpty(t *testing.T) {
	t.Parallel()
	enc, h := newTestEncoder(t, 512)

	blob := Blob{Name: "empty", APID: 4, SummaryAPID: 5}
	require.NoError(t, enc.WriteBlob(blob, nil))

	payload, sum := collectBlob(t, h.packets(t), blob)
	assert.Empty(t, payload)
	assert.Equal(t, uint32(0), sum.length)
	assert.Equal(t, xxhash.Sum64(nil), sum.hash)
}

func TestWriteBlobRejectsSharedAPID(t *testing.T) {
	t.Parallel()
	enc, _ := newTestEncoder(t, 64)
	err := enc.WriteBlob(Blob{Name: "x", APID: 4, SummaryAPID: 4}, []byte{1})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBlobCodecString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "raw", BlobRaw.String())
	assert.Equal(t, "s2", BlobS2.String())
	assert.Equal(t, "lz4", BlobLZ4.String())
	assert.Equal(t, "zstd", BlobZstd.String())
	assert.Equal(t, "BlobCodec(7)", BlobCodec(7).String())
}
