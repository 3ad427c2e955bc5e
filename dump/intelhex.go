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

package dump

import "io"

// Intel HEX record types.
const (
	ihexData           = 0x00
	ihexEOF            = 0x01
	ihexExtendedLinear = 0x04
)

const (
	ihexMaxData = 0xFF
	ihexSegment = 0x10000
)

// IntelHex renders records in Intel HEX format. Each record's checksum is
// the two's complement of the byte sum of its length, address, type and
// data fields. An extended linear address record precedes the first data
// record whose upper 16 address bits differ from the last one announced,
// and data records never cross a 64 KiB boundary.
type IntelHex struct {
	out   io.Writer
	line  []byte
	opts  options
	upper uint32
	sum   byte
}

var _ Renderer = (*IntelHex)(nil)

// NewIntelHex returns an Intel HEX renderer with 32 data bytes per record.
func NewIntelHex(out io.Writer, opts ...Option) *IntelHex {
	o := buildOptions(32, opts)
	o.recLen = min(o.recLen, ihexMaxData)
	return &IntelHex{out: out, opts: o}
}

// PreferredLen implements Renderer.
func (x *IntelHex) PreferredLen() int { return x.opts.recLen }

// Begin implements Renderer. Readers start with an upper address of zero.
func (x *IntelHex) Begin() error {
	x.upper = 0
	return nil
}

// End implements Renderer by writing the end-of-file record.
func (x *IntelHex) End() error {
	x.beginRecord(0, 0, ihexEOF)
	return x.endRecord()
}

// Line implements Renderer.
func (x *IntelHex) Line(p []byte, base uint32) error {
	return x.Line2(p, nil, base)
}

// Line2 implements Renderer. The two spans share records and checksums.
func (x *IntelHex) Line2(p0, p1 []byte, base uint32) error {
	total := len(p0) + len(p1)
	for off := 0; off < total; {
		addr := base + uint32(off) //nolint:gosec // addresses wrap at 32 bits
		n := min(total-off, ihexMaxData, ihexSegment-int(addr&0xFFFF))

		if err := x.address(addr); err != nil {
			return err
		}
		x.beginRecord(byte(n), uint16(addr), ihexData) //nolint:gosec // n <= 0xFF
		for i := range n {
			x.putByte(split(p0, p1, off+i))
		}
		if err := x.endRecord(); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// address emits an extended linear address record when the upper half of
// addr changes.
func (x *IntelHex) address(addr uint32) error {
	upper := addr >> 16
	if upper == x.upper {
		return nil
	}
	x.upper = upper
	x.beginRecord(2, 0, ihexExtendedLinear)
	x.putByte(byte(upper >> 8))
	x.putByte(byte(upper))
	return x.endRecord()
}

func (x *IntelHex) beginRecord(n byte, addr uint16, typ byte) {
	x.sum = 0
	x.line = append(x.line[:0], ':')
	x.putByte(n)
	x.putByte(byte(addr >> 8))
	x.putByte(byte(addr))
	x.putByte(typ)
}

func (x *IntelHex) putByte(c byte) {
	x.sum += c
	x.line = appendHex(x.line, c)
}

func (x *IntelHex) endRecord() error {
	x.line = appendHex(x.line, ^x.sum+1)
	x.line = append(x.line, x.opts.eol...)
	return writeLine(x.out, x.line)
}
