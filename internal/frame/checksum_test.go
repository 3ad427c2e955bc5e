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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "two bytes", data: []byte{0x10, 0x20}, want: 0x30},
		{name: "overflow handling", data: []byte{0xFF, 0x01}, want: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateChecksum(tt.data))
		})
	}
}

func TestComplementZeroesSum(t *testing.T) {
	t.Parallel()
	for _, sum := range []byte{0x00, 0x01, 0x7F, 0x80, 0xFB, 0xFF} {
		assert.Equal(t, byte(0), sum+Complement(sum), "sum 0x%02X", sum)
	}
}

func TestPutPrimaryHeader(t *testing.T) {
	t.Parallel()
	hdr := make([]byte, PrimaryHeaderLen)
	PutPrimaryHeader(hdr, 0x123, true, 0x4005, 9)
	// seq keeps only its low 14 bits; length stores dataLen-1
	assert.Equal(t, []byte{0x09, 0x23, 0xC0, 0x05, 0x00, 0x08}, hdr)

	PutPrimaryHeader(hdr, 0x003, false, 1, 0)
	assert.Equal(t, []byte{0x00, 0x03, 0xC0, 0x01, 0x00, 0x00}, hdr)
}

func buildPacket(apid uint16, seq uint16, tc *uint32, body []byte) []byte {
	dataLen := len(body) + TrailerLen
	if tc != nil {
		dataLen += TimeCodeLen
	}
	pkt := make([]byte, PrimaryHeaderLen, PrimaryHeaderLen+dataLen)
	PutPrimaryHeader(pkt, apid, tc != nil, seq, dataLen)
	if tc != nil {
		pkt = append(pkt, byte(*tc>>24), byte(*tc>>16), byte(*tc>>8), byte(*tc))
	}
	pkt = append(pkt, body...)
	return append(pkt, Complement(CalculateChecksum(pkt)))
}

func TestSplit(t *testing.T) {
	t.Parallel()
	tc := uint32(0xCAFEBABE)
	stream := append(buildPacket(3, 7, &tc, []byte{1, 2, 3}), buildPacket(4, 0, nil, []byte("abc"))...)

	pkts, err := Split(stream)
	require.NoError(t, err)
	require.Len(t, pkts, 2)

	assert.Equal(t, uint16(3), pkts[0].APID)
	assert.Equal(t, uint16(7), pkts[0].Seq)
	assert.True(t, pkts[0].Secondary)
	assert.Equal(t, tc, pkts[0].TimeCode)
	assert.Equal(t, []byte{1, 2, 3}, pkts[0].Body)

	assert.Equal(t, uint16(4), pkts[1].APID)
	assert.False(t, pkts[1].Secondary)
	assert.Equal(t, []byte("abc"), pkts[1].Body)
}

func TestSplitErrors(t *testing.T) {
	t.Parallel()
	good := buildPacket(5, 1, nil, []byte{0xAA})

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()
		_, err := Split(good[:len(good)-1])
		require.ErrorIs(t, err, ErrShortFrame)
	})

	t.Run("checksum", func(t *testing.T) {
		t.Parallel()
		bad := append([]byte(nil), good...)
		bad[len(bad)-2] ^= 0x01
		_, err := Split(bad)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("version bits", func(t *testing.T) {
		t.Parallel()
		bad := append([]byte(nil), good...)
		bad[0] |= 0x20
		_, err := Split(bad)
		require.ErrorIs(t, err, ErrBadVersion)
	})

	t.Run("stops at first bad packet", func(t *testing.T) {
		t.Parallel()
		stream := append(append([]byte(nil), good...), 0x00, 0x03)
		pkts, err := Split(stream)
		require.ErrorIs(t, err, ErrShortFrame)
		assert.Len(t, pkts, 1)
	})
}
