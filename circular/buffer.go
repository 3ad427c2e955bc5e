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

// Package circular implements a fixed-capacity byte ring with an explicit
// commit boundary.
//
// Three stream offsets describe the ring: tail is the first byte not yet
// drained, mid is the end of the committed region and head is where the next
// byte is written. They only ever grow, so tail <= mid <= head always holds
// and head-tail never exceeds the capacity. Ring indices are offsets modulo
// the capacity.
//
// Bytes become visible to the drain callback and to consumers only after
// Mark moves mid up to head. A producer may rewrite or discard bytes that
// have not been marked yet, which is how a packet encoder patches a length
// field once the packet is complete.
//
// A Buffer supports one producer goroutine and one consumer goroutine.
package circular

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-ccsds/internal/syncutil"
)

var (
	// ErrFull is returned when no room can be made for a byte, even after
	// draining.
	ErrFull = errors.New("circular: buffer full")
	// ErrInvalidSize is returned for empty backing storage.
	ErrInvalidSize = errors.New("circular: storage must not be empty")
	// ErrOutOfRange is returned when a rewrite targets committed or
	// unwritten bytes.
	ErrOutOfRange = errors.New("circular: offset outside uncommitted region")
)

// Drainer receives committed bytes. seg1 is non-empty only when the region
// wraps past the end of the backing array; the two segments are logically
// contiguous. offset is the stream offset of seg0[0]. The slices alias the
// ring and must not be retained.
type Drainer interface {
	Drain(seg0, seg1 []byte, offset uint64) error
}

// DrainFunc adapts a function to the Drainer interface.
type DrainFunc func(seg0, seg1 []byte, offset uint64) error

// Drain implements Drainer.
func (f DrainFunc) Drain(seg0, seg1 []byte, offset uint64) error {
	return f(seg0, seg1, offset)
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithDrainer sets the callback invoked when the ring is full or Drain is
// called.
func WithDrainer(d Drainer) Option {
	return func(b *Buffer) {
		b.drainer = d
	}
}

// WithRetry makes Fill back off and retry when draining did not free any
// room, for producers whose consumer runs on another goroutine. A nil config
// uses DefaultRetryConfig.
func WithRetry(config *RetryConfig) Option {
	return func(b *Buffer) {
		if config == nil {
			config = DefaultRetryConfig()
		}
		b.retry = config
	}
}

// Buffer is a byte ring over caller-supplied storage.
type Buffer struct {
	drainer Drainer
	retry   *RetryConfig
	data    []byte
	head    uint64
	mid     uint64
	tail    uint64
	mu      syncutil.Mutex
}

// New creates a ring over storage. The ring never allocates; its capacity
// is len(storage).
func New(storage []byte, opts ...Option) (*Buffer, error) {
	if len(storage) == 0 {
		return nil, ErrInvalidSize
	}
	b := &Buffer{data: storage}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Cap returns the ring capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Fill appends one byte. When the ring is full it drains first, so draining
// is a backpressure point and bytes are never dropped.
func (b *Buffer) Fill(c byte) error {
	if b.full() {
		if err := b.makeRoom(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.data[b.head%uint64(len(b.data))] = c
	b.head++
	b.mu.Unlock()
	return nil
}

// Write implements io.Writer on top of Fill.
func (b *Buffer) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := b.Fill(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (b *Buffer) full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head-b.tail >= uint64(len(b.data))
}

func (b *Buffer) makeRoom() error {
	if err := b.Drain(); err != nil {
		return err
	}
	if !b.full() {
		return nil
	}
	if b.retry == nil {
		return ErrFull
	}
	return b.waitForRoom()
}

// Mark commits everything written so far.
func (b *Buffer) Mark() {
	b.mu.With(func() {
		b.mid = b.head
	})
}

// Drain hands the committed region to the drainer and releases it. Without
// a drainer, or with nothing committed, it does nothing. On a drainer error
// the region stays in the ring.
//
// A ring is read either through a drainer or through Get, not both at once:
// bytes a Get consumer takes while the drainer runs are delivered twice.
func (b *Buffer) Drain() error {
	var tail, mid uint64
	var d Drainer
	b.mu.With(func() {
		tail, mid, d = b.tail, b.mid, b.drainer
	})
	if d == nil || tail == mid {
		return nil
	}

	// [tail, mid) cannot be overwritten while the lock is released: the
	// producer stops at tail+cap.
	seg0, seg1 := b.segments(tail, mid)
	if err := d.Drain(seg0, seg1, tail); err != nil {
		return fmt.Errorf("circular: drain: %w", err)
	}

	b.mu.With(func() {
		if b.tail >= tail {
			b.tail = max(b.tail, mid)
		}
	})
	return nil
}

func (b *Buffer) segments(from, to uint64) (seg0, seg1 []byte) {
	if to <= from {
		return nil, nil
	}
	size := len(b.data)
	start := int(from % uint64(size)) //nolint:gosec // bounded by size
	end := start + int(to-from)       //nolint:gosec // bounded by size
	if end <= size {
		return b.data[start:end], nil
	}
	return b.data[start:], b.data[:end-size]
}

// Head returns the stream offset of the next byte to be written.
func (b *Buffer) Head() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head
}

// Mid returns the stream offset of the commit boundary.
func (b *Buffer) Mid() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mid
}

// Tail returns the stream offset of the oldest byte still held.
func (b *Buffer) Tail() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tail
}

// Indices returns head, mid and tail as positions in the backing array.
func (b *Buffer) Indices() (head, mid, tail int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	size := uint64(len(b.data))
	return int(b.head % size), int(b.mid % size), int(b.tail % size) //nolint:gosec // bounded by size
}

// Poke rewrites an uncommitted byte at stream offset off.
func (b *Buffer) Poke(off uint64, c byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if off < b.mid || off >= b.head {
		return fmt.Errorf("%w: %d not in [%d,%d)", ErrOutOfRange, off, b.mid, b.head)
	}
	b.data[off%uint64(len(b.data))] = c
	return nil
}

// Truncate discards uncommitted bytes from stream offset off onwards.
func (b *Buffer) Truncate(off uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if off < b.mid || off > b.head {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, off, b.mid, b.head)
	}
	b.head = off
	return nil
}

// PeekTail returns the oldest committed byte without consuming it.
func (b *Buffer) PeekTail() (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tail == b.mid {
		return 0, false
	}
	return b.data[b.tail%uint64(len(b.data))], true
}

// Get consumes the oldest committed byte. It must not run alongside a
// drainer on the same ring.
func (b *Buffer) Get() (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tail == b.mid {
		return 0, false
	}
	c := b.data[b.tail%uint64(len(b.data))]
	b.tail++
	return c, true
}

// ReadyLen returns the number of committed bytes not yet consumed.
func (b *Buffer) ReadyLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.mid - b.tail) //nolint:gosec // bounded by capacity
}

// Empty reports whether there is nothing committed to consume.
func (b *Buffer) Empty() bool {
	return b.ReadyLen() == 0
}

// Len returns the number of bytes held, committed or not.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.head - b.tail) //nolint:gosec // bounded by capacity
}

// Free returns the number of bytes that can be written before a drain.
func (b *Buffer) Free() int {
	return len(b.data) - b.Len()
}

// Reset empties the ring.
func (b *Buffer) Reset() {
	b.mu.With(func() {
		b.head, b.mid, b.tail = 0, 0, 0
	})
}
