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

import "encoding/binary"

// CalculateChecksum computes the checksum for a data buffer
// This is a simple sum of all bytes in the provided data
func CalculateChecksum(data []byte) byte {
	chk := byte(0)
	for _, b := range data {
		chk += b
	}
	return chk
}

// Complement returns the trailer byte that makes a running byte sum wrap to
// zero.
func Complement(sum byte) byte {
	return ^sum + 1
}

// PutPrimaryHeader writes the six primary header bytes into dst.
// dataLen is the number of bytes after the primary header; the header
// stores dataLen-1. A zero dataLen is written as a zero placeholder.
func PutPrimaryHeader(dst []byte, apid uint16, secondary bool, seq uint16, dataLen int) {
	id := apid & MaxAPID
	if secondary {
		id |= SecondaryHeaderFlag
	}
	binary.BigEndian.PutUint16(dst[0:2], id)
	binary.BigEndian.PutUint16(dst[2:4], SeqFlagsUnsegmented|(seq&SeqCountMask))
	PutLength(dst[LengthOffset:LengthOffset+2], dataLen)
}

// PutLength writes the data length field for dataLen bytes after the
// primary header.
func PutLength(dst []byte, dataLen int) {
	if dataLen <= 0 {
		binary.BigEndian.PutUint16(dst, 0)
		return
	}
	binary.BigEndian.PutUint16(dst, uint16(dataLen-1)) //nolint:gosec // bounded by MaxDataLen
}

// MaxDataLen is the largest number of bytes a packet can carry after its
// primary header.
const MaxDataLen = 0x10000
