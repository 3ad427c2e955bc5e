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

import "fmt"

// Names used by metadoc packets.
const (
	MetaDocPacketName = "CCSDS self-documentation"
	MetaDocFieldName  = "text"
)

// defaultMetaDoc describes the stream to a reader with no prior knowledge
// of it. Each entry becomes one metadoc packet.
var defaultMetaDoc = []string{
	"This is a stream of CCSDS space packets. Every packet starts with a " +
		"6-byte primary header of three big-endian 16-bit words: the packet " +
		"id (version 0, type 0, secondary header flag 0x0800, APID in the " +
		"low 11 bits), the sequence control (flags 0xC000, 14-bit count per " +
		"APID) and the data length (bytes following the primary header, " +
		"minus one). The sequence count wraps from 16383 to 0.",
	"When the secondary header flag is set a 32-bit big-endian time code " +
		"follows the primary header. The last byte of every packet is a " +
		"checksum chosen so that all bytes of the packet add up to zero " +
		"modulo 256.",
	"Packets with APID 1 are doc packets. Each one describes a single " +
		"field of another APID: the documented APID (16 bits), a type code " +
		"(8 bits), then the field name in the remaining bytes. Type code 0 " +
		"names the packet itself. Fields appear in a packet in the order " +
		"their doc packets were written.",
	"Type codes: 1 u8, 2 i16, 3 i32, 4 float, 5 double, 7 string, " +
		"10 binary, 12 u16, 13 u32, 14 i64, 15 u64. Numbers are big-endian, " +
		"floats are IEEE754. String and binary fields carry no length and " +
		"run to the next field or to the checksum.",
	"Packets with APID 2, like this one, are metadoc packets. They hold a " +
		"single string field of English text describing the stream and are " +
		"documented by doc packets like any other APID.",
}

// MetaDoc writes one metadoc packet carrying text.
func (e *Encoder) MetaDoc(text string) error {
	if err := e.open(APIDMetaDoc, MetaDocPacketName, NoTimeCode); err != nil {
		return err
	}
	if err := e.FillString(text, MetaDocFieldName); err != nil {
		return err
	}
	return e.Finish(APIDMetaDoc)
}

// MetaDocf writes a metadoc packet with formatted text.
func (e *Encoder) MetaDocf(format string, args ...any) error {
	return e.MetaDoc(fmt.Sprintf(format, args...))
}

// DefaultMetaDoc writes the built-in description of the packet format.
func (e *Encoder) DefaultMetaDoc() error {
	for _, text := range defaultMetaDoc {
		if err := e.MetaDoc(text); err != nil {
			return err
		}
	}
	return nil
}
