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

import (
	"fmt"
	"io"
)

// Hd renders a classic hex dump: address, hex bytes in groups of four and
// an ASCII column with '.' for unprintable bytes.
//
//	0000 00 01 02 03  04 05 06 07  08 09 0A 0B  0C 0D 0E 0F  ................
type Hd struct {
	out  io.Writer
	line []byte
	opts options
}

var _ Renderer = (*Hd)(nil)

// NewHd returns a hex dump renderer with 16 bytes per line.
func NewHd(out io.Writer, opts ...Option) *Hd {
	return &Hd{out: out, opts: buildOptions(16, opts)}
}

// PreferredLen implements Renderer.
func (h *Hd) PreferredLen() int { return h.opts.recLen }

// Begin implements Renderer.
func (*Hd) Begin() error { return nil }

// End implements Renderer.
func (*Hd) End() error { return nil }

// Line implements Renderer.
func (h *Hd) Line(p []byte, base uint32) error {
	return h.Line2(p, nil, base)
}

// Line2 implements Renderer. Short records are padded so the ASCII column
// stays aligned.
func (h *Hd) Line2(p0, p1 []byte, base uint32) error {
	n := len(p0) + len(p1)
	cols := max(h.opts.recLen, n)

	line := fmt.Appendf(h.line[:0], "%04X ", base)
	for i := range cols {
		if i < n {
			line = appendHex(line, split(p0, p1, i))
			line = append(line, ' ')
		} else {
			line = append(line, "   "...)
		}
		if i%4 == 3 {
			line = append(line, ' ')
		}
	}
	for i := range n {
		c := split(p0, p1, i)
		if c < 32 || c > 126 {
			c = '.'
		}
		line = append(line, c)
	}
	line = append(line, h.opts.eol...)
	h.line = line
	return writeLine(h.out, line)
}
