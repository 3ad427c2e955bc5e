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

// Defaults match the firmware layout: 16 APIDs and a 128-byte stash.
const (
	DefaultTableSize      = 16
	DefaultStashSize      = 128
	DefaultMaxPendingDocs = 32
	minStashSize          = frame.PrimaryHeaderLen + frame.TimeCodeLen
)

// DocPolicy decides how often doc packets are written for an APID.
type DocPolicy int

const (
	// DocOnce documents each APID once for the life of its Tables.
	DocOnce DocPolicy = iota
	// DocAlways documents every packet, for streams that may be read from
	// the middle.
	DocAlways
)

// Recovery decides what happens to the stream after a packet could not be
// written.
type Recovery int

const (
	// RecoveryFatal refuses every call with ErrStreamBroken until Reset.
	RecoveryFatal Recovery = iota
	// RecoveryAbandon rolls the partial packet out of the ring on the next
	// Start or Finish and carries on.
	RecoveryAbandon
)

// BlobCodec identifies how WriteBlob encodes a region. The value is
// written in the blob summary packet.
type BlobCodec uint8

const (
	BlobRaw  BlobCodec = 0
	BlobS2   BlobCodec = 1
	BlobLZ4  BlobCodec = 2
	BlobZstd BlobCodec = 3
)

// String returns the codec name
func (c BlobCodec) String() string {
	switch c {
	case BlobRaw:
		return "raw"
	case BlobS2:
		return "s2"
	case BlobLZ4:
		return "lz4"
	case BlobZstd:
		return "zstd"
	default:
		return fmt.Sprintf("BlobCodec(%d)", uint8(c))
	}
}

// Tables holds the per-APID sequence counters and documented flags. It is
// indexed by APID and may be shared across encoders that write one stream
// in turn.
type Tables struct {
	Seq        []uint16
	Documented []bool
}

// NewTables returns zeroed tables for APIDs below n.
func NewTables(n int) *Tables {
	return &Tables{
		Seq:        make([]uint16, n),
		Documented: make([]bool, n),
	}
}

// Size returns the number of APIDs the tables cover.
func (t *Tables) Size() int {
	return len(t.Seq)
}

func (t *Tables) validate() error {
	if len(t.Seq) != len(t.Documented) {
		return fmt.Errorf("%w: %d sequence counters but %d documented flags",
			ErrInvalidParameter, len(t.Seq), len(t.Documented))
	}
	if len(t.Seq) <= int(APIDMetaDoc) {
		return fmt.Errorf("%w: tables must cover the reserved APIDs, got %d entries",
			ErrInvalidParameter, len(t.Seq))
	}
	if len(t.Seq) > int(MaxAPID)+1 {
		return fmt.Errorf("%w: tables larger than the APID space", ErrInvalidParameter)
	}
	return nil
}

// Option represents a functional option for NewEncoder
type Option func(*encoderConfig) error

// encoderConfig holds configuration options for an Encoder
type encoderConfig struct {
	tables         *Tables
	clock          Clock
	stashSize      int
	maxPendingDocs int
	docPolicy      DocPolicy
	recovery       Recovery
	blobCodec      BlobCodec
}

func defaultEncoderConfig() *encoderConfig {
	return &encoderConfig{
		stashSize:      DefaultStashSize,
		maxPendingDocs: DefaultMaxPendingDocs,
		docPolicy:      DocOnce,
		recovery:       RecoveryFatal,
		blobCodec:      BlobRaw,
	}
}

// WithTables supplies the sequence counter and documented flag tables.
func WithTables(t *Tables) Option {
	return func(c *encoderConfig) error {
		if t == nil {
			return fmt.Errorf("%w: nil tables", ErrInvalidParameter)
		}
		if err := t.validate(); err != nil {
			return err
		}
		c.tables = t
		return nil
	}
}

// WithStashSize sets the capacity of the staging buffer that holds a packet
// while its doc packets are written. It must hold a primary header and a
// time code.
func WithStashSize(n int) Option {
	return func(c *encoderConfig) error {
		if n < minStashSize {
			return fmt.Errorf("%w: %d bytes, need at least %d", ErrStashTooSmall, n, minStashSize)
		}
		c.stashSize = n
		return nil
	}
}

// WithDocPolicy sets how often doc packets are written.
func WithDocPolicy(p DocPolicy) Option {
	return func(c *encoderConfig) error {
		if p != DocOnce && p != DocAlways {
			return fmt.Errorf("%w: doc policy %d", ErrInvalidParameter, p)
		}
		c.docPolicy = p
		return nil
	}
}

// WithRecovery sets the policy applied after a packet fails mid-write.
func WithRecovery(r Recovery) Option {
	return func(c *encoderConfig) error {
		if r != RecoveryFatal && r != RecoveryAbandon {
			return fmt.Errorf("%w: recovery policy %d", ErrInvalidParameter, r)
		}
		c.recovery = r
		return nil
	}
}

// WithClock sets the tick source used by StartNow.
func WithClock(clk Clock) Option {
	return func(c *encoderConfig) error {
		if clk == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidParameter)
		}
		c.clock = clk
		return nil
	}
}

// WithMaxPendingDocs bounds the doc entries queued while a packet that
// outgrew the stash is being written.
func WithMaxPendingDocs(n int) Option {
	return func(c *encoderConfig) error {
		if n < 0 {
			return fmt.Errorf("%w: pending doc limit %d", ErrInvalidParameter, n)
		}
		c.maxPendingDocs = n
		return nil
	}
}

// WithBlobCompression sets the codec WriteBlob applies to a region.
func WithBlobCompression(codec BlobCodec) Option {
	return func(c *encoderConfig) error {
		if codec > BlobZstd {
			return fmt.Errorf("%w: blob codec %d", ErrInvalidParameter, codec)
		}
		c.blobCodec = codec
		return nil
	}
}

func applyOptions(opts []Option) (*encoderConfig, error) {
	config := defaultEncoderConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	if config.tables == nil {
		config.tables = NewTables(DefaultTableSize)
	}
	if config.clock == nil {
		config.clock = NewMonotonicClock(DefaultClockResolution)
	}
	return config, nil
}
