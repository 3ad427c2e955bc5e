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
	"github.com/ZaparooProject/go-ccsds/circular"
)

// Drainer renders the committed region of a circular.Buffer each time it
// drains. Records carry the stream offset as their address, so successive
// drains continue the address sequence. Begin is called before the first
// drain and End by Close.
type Drainer struct {
	r      Renderer
	recLen int
	begun  bool
}

var _ circular.Drainer = (*Drainer)(nil)

// NewDrainer binds a renderer to a ring. recLen 0 uses the renderer's
// preferred length.
func NewDrainer(r Renderer, recLen int) *Drainer {
	return &Drainer{r: r, recLen: recLen}
}

// Drain implements circular.Drainer.
func (d *Drainer) Drain(seg0, seg1 []byte, offset uint64) error {
	if !d.begun {
		if err := d.r.Begin(); err != nil {
			return err
		}
		d.begun = true
	}
	return Lines2(d.r, seg0, seg1, uint32(offset), d.recLen) //nolint:gosec // addresses wrap at 32 bits
}

// Close ends the rendering session.
func (d *Drainer) Close() error {
	if !d.begun {
		if err := d.r.Begin(); err != nil {
			return err
		}
	}
	d.begun = false
	return d.r.End()
}

// NewBuffer returns a ring over storage that renders through r whenever it
// drains.
func NewBuffer(r Renderer, storage []byte, opts ...circular.Option) (*circular.Buffer, *Drainer, error) {
	d := NewDrainer(r, 0)
	buf, err := circular.New(storage, append([]circular.Option{circular.WithDrainer(d)}, opts...)...)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // constructor error is already descriptive
	}
	return buf, d, nil
}
