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

// Package dump renders byte regions as text or raw bytes.
//
// A Renderer emits one record per Line call. Line2 renders a single record
// assembled from two spans, which is how a region that wraps around the end
// of a ring buffer is shown without copying it. Renderers whose record
// format depends on every byte of the record (Intel HEX checksums, Base85
// groups, hex dump columns) treat the two spans as one sequence.
//
// Region walks a span in record-sized chunks between Begin and End:
//
//	hd := dump.NewHd(os.Stdout)
//	_ = dump.Region(hd, image, 0x4000, 0)
package dump

import "io"

const hexDigits = "0123456789ABCDEF"

// Renderer renders records to an output sink.
type Renderer interface {
	// Begin starts a rendering session.
	Begin() error
	// End finishes a rendering session.
	End() error
	// Line renders p as one record located at base.
	Line(p []byte, base uint32) error
	// Line2 renders p0 followed by p1 as one record located at base.
	Line2(p0, p1 []byte, base uint32) error
	// PreferredLen is the default number of bytes per record.
	PreferredLen() int
}

// Option configures a renderer.
type Option func(*options)

type options struct {
	eol    string
	recLen int
}

// WithRecordLen overrides the preferred number of bytes per record.
func WithRecordLen(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.recLen = n
		}
	}
}

// WithCRLF terminates text records with CR LF instead of LF.
func WithCRLF() Option {
	return func(o *options) {
		o.eol = "\r\n"
	}
}

func buildOptions(recLen int, opts []Option) options {
	o := options{recLen: recLen, eol: "\n"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Region renders p located at base in records of recLen bytes, bracketed by
// Begin and End. A recLen of 0 uses the renderer's preferred length.
func Region(r Renderer, p []byte, base uint32, recLen int) error {
	if err := r.Begin(); err != nil {
		return err
	}
	if err := Lines(r, p, base, recLen); err != nil {
		return err
	}
	return r.End()
}

// Region2 renders p0 and p1 as if they were contiguous, bracketed by Begin
// and End.
func Region2(r Renderer, p0, p1 []byte, base uint32, recLen int) error {
	if err := r.Begin(); err != nil {
		return err
	}
	if err := Lines2(r, p0, p1, base, recLen); err != nil {
		return err
	}
	return r.End()
}

// Lines renders p without calling Begin or End.
func Lines(r Renderer, p []byte, base uint32, recLen int) error {
	return Lines2(r, p, nil, base, recLen)
}

// Lines2 renders p0 and p1 as if they were contiguous without calling Begin
// or End. Records that straddle the seam go through Line2.
func Lines2(r Renderer, p0, p1 []byte, base uint32, recLen int) error {
	if recLen <= 0 {
		recLen = r.PreferredLen()
	}
	total := len(p0) + len(p1)
	for off := 0; off < total; off += recLen {
		n := min(recLen, total-off)
		addr := base + uint32(off) //nolint:gosec // addresses wrap at 32 bits
		var err error
		switch {
		case off+n <= len(p0):
			err = r.Line(p0[off:off+n], addr)
		case off >= len(p0):
			err = r.Line(p1[off-len(p0):off-len(p0)+n], addr)
		default:
			err = r.Line2(p0[off:], p1[:off+n-len(p0)], addr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// split returns the byte at logical index i of p0 followed by p1.
func split(p0, p1 []byte, i int) byte {
	if i < len(p0) {
		return p0[i]
	}
	return p1[i-len(p0)]
}

func appendHex(dst []byte, c byte) []byte {
	return append(dst, hexDigits[c>>4], hexDigits[c&0x0F])
}

func writeLine(out io.Writer, line []byte) error {
	_, err := out.Write(line)
	return err //nolint:wrapcheck // sink errors pass through unchanged
}
