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

	"github.com/ZaparooProject/go-ccsds/internal/frame"
)

// FieldType is the one-byte tag a doc packet uses to describe a field.
// Values follow IDL type codes where one exists.
type FieldType uint8

// Field type tags
const (
	NameTag    FieldType = 0  // doc entry names the packet rather than a field
	TypeU8     FieldType = 1  // unsigned 8-bit int
	TypeI16    FieldType = 2  // signed 16-bit int
	TypeI32    FieldType = 3  // signed 32-bit int
	TypeFloat  FieldType = 4  // IEEE754 single precision
	TypeDouble FieldType = 5  // IEEE754 double precision
	TypeString FieldType = 7  // bytes of arbitrary length, UTF-8 text
	TypeBinary FieldType = 10 // bytes of arbitrary length
	TypeU16    FieldType = 12 // unsigned 16-bit int
	TypeU32    FieldType = 13 // unsigned 32-bit int
	TypeI64    FieldType = 14 // signed 64-bit int
	TypeU64    FieldType = 15 // unsigned 64-bit int
)

// String returns the type name
func (t FieldType) String() string {
	switch t {
	case NameTag:
		return "name"
	case TypeU8:
		return "u8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

// Size returns the encoded size in bytes, or 0 for variable-length types.
func (t FieldType) Size() int {
	switch t {
	case TypeU8:
		return 1
	case TypeI16, TypeU16:
		return 2
	case TypeI32, TypeU32, TypeFloat:
		return 4
	case TypeI64, TypeU64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// APID is an 11-bit application process identifier.
type APID uint16

// Reserved APIDs
const (
	APIDIdle    APID = frame.APIDIdle
	APIDDoc     APID = frame.APIDDoc
	APIDMetaDoc APID = frame.APIDMetaDoc
	APIDFirst   APID = frame.APIDFirst // lowest APID available to applications
	MaxAPID     APID = frame.MaxAPID
)

// TimeCode is the 32-bit tick count carried in the secondary header.
type TimeCode uint32

// NoTimeCode omits the secondary header.
const NoTimeCode TimeCode = 0xFFFFFFFF
