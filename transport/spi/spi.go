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

// Package spi writes rendered telemetry to an SPI bus, for a logger or
// radio listening as an SPI peripheral.
package spi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-ccsds"
)

const (
	// Default SPI settings
	defaultFreq  = 1 * physic.MegaHertz
	defaultMode  = spi.Mode0
	defaultChunk = 4096
)

// Hooks replaced in tests
var (
	hostInit = func() error {
		_, err := host.Init()
		return err //nolint:wrapcheck // wrapped by caller
	}
	openPort = func(name string) (spi.PortCloser, error) {
		return spireg.Open(name) //nolint:wrapcheck // wrapped by caller
	}
)

// Sink implements ccsds.Sink over an SPI connection. Every Write is split
// into transactions no longer than the chunk size.
type Sink struct {
	port     spi.PortCloser
	conn     spi.Conn
	buf      []byte
	portName string
	chunk    int
	written  int
	mu       sync.Mutex
	lsbFirst bool
}

// Option configures a Sink
type Option func(*config)

type config struct {
	freq     physic.Frequency
	mode     spi.Mode
	chunk    int
	lsbFirst bool
}

// WithFrequency sets the clock frequency
func WithFrequency(f physic.Frequency) Option {
	return func(c *config) {
		c.freq = f
	}
}

// WithMode sets the clock polarity and phase
func WithMode(m spi.Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// WithChunkSize bounds the bytes sent per transaction
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunk = n
	}
}

// WithLSBFirst reverses the bits of every byte for peripherals that shift
// the least significant bit first on controllers that cannot.
func WithLSBFirst() Option {
	return func(c *config) {
		c.lsbFirst = true
	}
}

// New opens the SPI port portName through the periph registry.
func New(portName string, opts ...Option) (*Sink, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := openPort(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	sink, err := NewFromPort(port, portName, opts...)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return sink, nil
}

// NewFromPort connects to an already open port.
func NewFromPort(port spi.PortCloser, portName string, opts ...Option) (*Sink, error) {
	cfg := &config{freq: defaultFreq, mode: defaultMode, chunk: defaultChunk}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.chunk <= 0 {
		return nil, fmt.Errorf("%w: SPI chunk size %d", ccsds.ErrInvalidParameter, cfg.chunk)
	}

	c, err := port.Connect(cfg.freq, cfg.mode, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	chunk := cfg.chunk
	if l, ok := c.(conn.Limits); ok {
		if maxTx := l.MaxTxSize(); maxTx > 0 && maxTx < chunk {
			chunk = maxTx
		}
	}
	ccsds.Debugf("SPI: %s at %s, %d bytes per transaction", portName, cfg.freq, chunk)

	return &Sink{
		port:     port,
		conn:     c,
		portName: portName,
		chunk:    chunk,
		lsbFirst: cfg.lsbFirst,
	}, nil
}

// reverseBit reverses the bits in a byte (LSB <-> MSB)
func reverseBit(b byte) byte {
	var result byte
	for range 8 {
		result <<= 1
		result |= b & 1
		b >>= 1
	}
	return result
}

// Write sends p as one or more transactions.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return 0, ccsds.NewTransportError("SPI write", s.portName, ccsds.ErrTransportClosed)
	}

	n := 0
	for n < len(p) {
		end := min(n+s.chunk, len(p))
		w := p[n:end]
		if s.lsbFirst {
			s.buf = s.buf[:0]
			for _, b := range w {
				s.buf = append(s.buf, reverseBit(b))
			}
			w = s.buf
		}
		if err := s.conn.Tx(w, nil); err != nil {
			return n, ccsds.NewTransportError("SPI write", s.portName, err)
		}
		n = end
		s.written += len(w)
	}
	return n, nil
}

// Written returns the number of bytes sent.
func (s *Sink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close closes the port
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("SPI close failed: %w", err)
	}
	return nil
}

// Type returns the transport type
func (*Sink) Type() ccsds.TransportType {
	return ccsds.TransportSPI
}

var _ ccsds.Sink = (*Sink)(nil)
