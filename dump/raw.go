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

// Raw writes bytes unchanged. Records carry no addresses or separators, so
// the output is the exact byte stream.
type Raw struct {
	out  io.Writer
	opts options
}

var _ Renderer = (*Raw)(nil)

// NewRaw returns a pass-through renderer.
func NewRaw(out io.Writer, opts ...Option) *Raw {
	return &Raw{out: out, opts: buildOptions(256, opts)}
}

// PreferredLen implements Renderer.
func (r *Raw) PreferredLen() int { return r.opts.recLen }

// Begin implements Renderer.
func (*Raw) Begin() error { return nil }

// End implements Renderer.
func (*Raw) End() error { return nil }

// Line implements Renderer.
func (r *Raw) Line(p []byte, _ uint32) error {
	return writeLine(r.out, p)
}

// Line2 implements Renderer as two Line calls.
func (r *Raw) Line2(p0, p1 []byte, base uint32) error {
	if err := r.Line(p0, base); err != nil {
		return err
	}
	return r.Line(p1, base+uint32(len(p0))) //nolint:gosec // addresses wrap at 32 bits
}
