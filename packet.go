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

// Packet is the self-documenting packet grammar. Every Fill method takes a
// field name; a non-empty name produces a doc entry the first time the field
// is written for an APID, an empty name writes the value alone.
type Packet interface {
	// Start opens a packet. tc is the secondary header time code, or
	// NoTimeCode for none.
	Start(apid APID, name string, tc TimeCode) error

	// Finish closes the packet opened by Start. tag must equal its APID.
	Finish(tag APID) error

	FillU8(v uint8, name string) error
	FillI16(v int16, name string) error
	FillI32(v int32, name string) error
	FillI64(v int64, name string) error
	FillU16(v uint16, name string) error
	FillU32(v uint32, name string) error
	FillU64(v uint64, name string) error
	FillFloat32(v float32, name string) error
	FillFloat64(v float64, name string) error
	FillString(v, name string) error
	FillBinary(v []byte, name string) error

	// MetaDoc writes one human-readable metadoc packet.
	MetaDoc(text string) error

	// DefaultMetaDoc writes the built-in description of the stream format.
	DefaultMetaDoc() error
}

// Ring is the producer side of a circular buffer that packets are written
// into. *circular.Buffer implements it.
type Ring interface {
	// Fill appends one byte, draining committed bytes first if needed.
	Fill(c byte) error
	// Mark commits everything written so far.
	Mark()
	// Head returns the stream offset of the next byte to be written.
	Head() uint64
	// Poke rewrites an uncommitted byte.
	Poke(off uint64, c byte) error
	// Truncate discards uncommitted bytes from off onwards.
	Truncate(off uint64) error
}

var _ Packet = (*Encoder)(nil)
