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

// Package frame holds the CCSDS space packet wire layout shared by the
// encoder and its tests.
package frame

// Primary header layout. Every field is big-endian.
const (
	PrimaryHeaderLen = 6 // packet id + sequence control + data length
	TimeCodeLen      = 4 // secondary header: 32-bit tick counter
	TrailerLen       = 1 // checksum byte
	LengthOffset     = 4 // offset of the data length field in the header
)

// Packet identification word.
const (
	VersionMask         = 0xE000
	TypeTelecommand     = 0x1000
	SecondaryHeaderFlag = 0x0800
	MaxAPID             = 0x07FF
)

// Sequence control word.
const (
	SeqFlagsUnsegmented = 0xC000
	SeqCountMask        = 0x3FFF
)

// Reserved APIDs.
const (
	APIDIdle    = 0x0000
	APIDDoc     = 0x0001
	APIDMetaDoc = 0x0002
	APIDFirst   = 0x0003 // lowest application APID
)

// Overhead returns the number of framing bytes around the field data of a
// packet.
func Overhead(timeCode bool) int {
	n := PrimaryHeaderLen + TrailerLen
	if timeCode {
		n += TimeCodeLen
	}
	return n
}
