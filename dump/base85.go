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

// Base85 renders bytes as printable ASCII from '!' (33) to 'u' (117). Each
// group of up to four bytes is read big-endian, zero padded, and written as
// the first len+1 of its five base-85 digits. There is no 'z' shortcut, so
// 4n input bytes always become 5n characters.
type Base85 struct {
	out  io.Writer
	line []byte
	opts options
}

var _ Renderer = (*Base85)(nil)

// NewBase85 returns a Base85 renderer with 64 bytes per line.
func NewBase85(out io.Writer, opts ...Option) *Base85 {
	return &Base85{out: out, opts: buildOptions(64, opts)}
}

// PreferredLen implements Renderer.
func (b *Base85) PreferredLen() int { return b.opts.recLen }

// Begin implements Renderer.
func (*Base85) Begin() error { return nil }

// End implements Renderer.
func (*Base85) End() error { return nil }

// Line implements Renderer.
func (b *Base85) Line(p []byte, base uint32) error {
	return b.Line2(p, nil, base)
}

// Line2 implements Renderer. Groups are formed across the seam.
func (b *Base85) Line2(p0, p1 []byte, _ uint32) error {
	total := len(p0) + len(p1)
	line := b.line[:0]
	for off := 0; off < total; off += 4 {
		n := min(4, total-off)
		var v uint32
		for i := range 4 {
			v <<= 8
			if i < n {
				v |= uint32(split(p0, p1, off+i))
			}
		}
		line = appendGroup85(line, v, n+1)
	}
	line = append(line, b.opts.eol...)
	b.line = line
	return writeLine(b.out, line)
}

// appendGroup85 appends the first digits of the five base-85 digits of v,
// most significant first.
func appendGroup85(dst []byte, v uint32, digits int) []byte {
	var group [5]byte
	for i := 4; i >= 0; i-- {
		group[i] = byte(v%85) + '!'
		v /= 85
	}
	return append(dst, group[:digits]...)
}
