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
	"encoding/binary"
	"math"
)

// FillU8 writes an unsigned 8-bit field.
func (e *Encoder) FillU8(v uint8, name string) error {
	e.scratch[0] = v
	return e.fill("FillU8", TypeU8, name, e.scratch[:1])
}

// FillI16 writes a signed 16-bit field.
func (e *Encoder) FillI16(v int16, name string) error {
	return e.fill("FillI16", TypeI16, name, binary.BigEndian.AppendUint16(e.scratch[:0], uint16(v)))
}

// FillI32 writes a signed 32-bit field.
func (e *Encoder) FillI32(v int32, name string) error {
	return e.fill("FillI32", TypeI32, name, binary.BigEndian.AppendUint32(e.scratch[:0], uint32(v)))
}

// FillI64 writes a signed 64-bit field.
func (e *Encoder) FillI64(v int64, name string) error {
	return e.fill("FillI64", TypeI64, name, binary.BigEndian.AppendUint64(e.scratch[:0], uint64(v)))
}

// FillU16 writes an unsigned 16-bit field.
func (e *Encoder) FillU16(v uint16, name string) error {
	return e.fill("FillU16", TypeU16, name, binary.BigEndian.AppendUint16(e.scratch[:0], v))
}

// FillU32 writes an unsigned 32-bit field.
func (e *Encoder) FillU32(v uint32, name string) error {
	return e.fill("FillU32", TypeU32, name, binary.BigEndian.AppendUint32(e.scratch[:0], v))
}

// FillU64 writes an unsigned 64-bit field.
func (e *Encoder) FillU64(v uint64, name string) error {
	return e.fill("FillU64", TypeU64, name, binary.BigEndian.AppendUint64(e.scratch[:0], v))
}

// FillFloat32 writes an IEEE754 single precision field.
func (e *Encoder) FillFloat32(v float32, name string) error {
	return e.fill("FillFloat32", TypeFloat, name, binary.BigEndian.AppendUint32(e.scratch[:0], math.Float32bits(v)))
}

// FillFloat64 writes an IEEE754 double precision field.
func (e *Encoder) FillFloat64(v float64, name string) error {
	return e.fill("FillFloat64", TypeDouble, name, binary.BigEndian.AppendUint64(e.scratch[:0], math.Float64bits(v)))
}

// FillString writes the bytes of v with no terminator or length prefix.
func (e *Encoder) FillString(v, name string) error {
	return e.fill("FillString", TypeString, name, []byte(v))
}

// FillBinary writes v unchanged with no length prefix.
func (e *Encoder) FillBinary(v []byte, name string) error {
	return e.fill("FillBinary", TypeBinary, name, v)
}
