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

// Package uart writes rendered telemetry to a serial port.
package uart

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-ccsds"
)

// DefaultBaudRate matches the firmware console.
const DefaultBaudRate = 115200

// openPort is replaced in tests
var openPort = serial.Open

// Sink implements ccsds.Sink over a serial port.
type Sink struct {
	port     serial.Port
	portName string
	written  int
	mu       sync.Mutex
	drain    bool
	closed   bool
}

// Option configures a Sink
type Option func(*config)

type config struct {
	mode  serial.Mode
	drain bool
}

// WithBaudRate sets the line speed
func WithBaudRate(baud int) Option {
	return func(c *config) {
		c.mode.BaudRate = baud
	}
}

// WithMode replaces the whole serial mode
func WithMode(mode serial.Mode) Option {
	return func(c *config) {
		c.mode = mode
	}
}

// WithDrainAfterWrite waits for the OS to transmit every write before
// returning, so output is on the wire when a Drain of the ring completes.
func WithDrainAfterWrite() Option {
	return func(c *config) {
		c.drain = true
	}
}

// New opens portName as a sink, 8N1 at DefaultBaudRate unless configured
// otherwise.
func New(portName string, opts ...Option) (*Sink, error) {
	cfg := &config{
		mode: serial.Mode{
			BaudRate: DefaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	port, err := openPort(portName, &cfg.mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}
	ccsds.Debugf("UART: opened %s at %d baud", portName, cfg.mode.BaudRate)

	s := NewFromPort(port, portName)
	s.drain = cfg.drain
	return s, nil
}

// NewFromPort wraps an already open port.
func NewFromPort(port serial.Port, portName string) *Sink {
	return &Sink{
		port:     port,
		portName: portName,
	}
}

// Write sends p, resuming after short writes and interrupted system calls.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ccsds.NewTransportError("UART write", s.portName, ccsds.ErrTransportClosed)
	}

	total := 0
	for total < len(p) {
		n, err := s.port.Write(p[total:])
		total += n
		s.written += n
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			return total, ccsds.NewTransportError("UART write", s.portName, err)
		}
		if n == 0 {
			return total, ccsds.NewTransportError("UART write", s.portName, io.ErrShortWrite)
		}
	}

	if s.drain {
		if err := s.drainWithRetry("write"); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Flush blocks until everything written has been transmitted.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.drainWithRetry("flush")
}

// Written returns the number of bytes accepted by the port.
func (s *Sink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close closes the port
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.port == nil {
		return nil
	}
	s.closed = true
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Type returns the transport type
func (*Sink) Type() ccsds.TransportType {
	return ccsds.TransportUART
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (s *Sink) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := range maxRetries {
		err := s.port.Drain()
		if err == nil {
			return nil
		}

		if isInterruptedSystemCall(err) && attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms
			continue
		}

		return ccsds.NewTransportError("UART "+operation+" drain", s.portName, err)
	}

	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}

// ErrNoPorts is returned by Ports when no serial port exists.
var ErrNoPorts = errors.New("no serial ports found")

// listPorts is replaced in tests
var listPorts = serial.GetPortsList

// Ports lists the serial ports a sink can be opened on.
func Ports() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}
	return ports, nil
}

var _ ccsds.Sink = (*Sink)(nil)
