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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-ccsds/circular"
)

// Sink is a byte-oriented output rendered telemetry is written to. It can
// be backed by a serial port, an SPI bus, a file or standard output.
type Sink interface {
	io.Writer

	// Close closes the sink
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of sink
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMQTT represents an MQTT broker topic.
	TransportMQTT TransportType = "mqtt"
	// TransportFile represents a file or standard stream.
	TransportFile TransportType = "file"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// SinkWithRetry wraps a Sink, retrying writes that fail transiently.
// Bytes accepted by a failed attempt are not written again.
type SinkWithRetry struct {
	sink   Sink
	config *circular.RetryConfig
}

// NewSinkWithRetry creates a new sink wrapper with retry logic
func NewSinkWithRetry(sink Sink, config *circular.RetryConfig) *SinkWithRetry {
	if config == nil {
		config = circular.DefaultRetryConfig()
	}
	return &SinkWithRetry{
		sink:   sink,
		config: config,
	}
}

// Write writes p, retrying the unwritten remainder after transient errors.
func (s *SinkWithRetry) Write(p []byte) (int, error) {
	written := 0
	err := circular.Retry(context.Background(), s.config, IsRetryable, func() error {
		n, err := s.sink.Write(p[written:])
		written += n
		if err != nil {
			return NewTransportError("Write", string(s.sink.Type()), err)
		}
		if written < len(p) {
			return NewTransportError("Write", string(s.sink.Type()), io.ErrShortWrite)
		}
		return nil
	})
	return written, err
}

// Close closes the underlying sink
func (s *SinkWithRetry) Close() error {
	if err := s.sink.Close(); err != nil {
		return fmt.Errorf("failed to close underlying sink: %w", err)
	}
	return nil
}

// Type returns the transport type
func (s *SinkWithRetry) Type() TransportType {
	return s.sink.Type()
}

// SetRetryConfig updates the retry configuration
func (s *SinkWithRetry) SetRetryConfig(config *circular.RetryConfig) {
	s.config = config
}

// IsRetryable reports whether a sink write may succeed if tried again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return !IsFatal(err)
}

// nopCloser adapts an io.Writer that needs no closing.
type nopCloser struct {
	io.Writer
	kind TransportType
}

func (nopCloser) Close() error { return nil }

func (n nopCloser) Type() TransportType { return n.kind }

// WriterSink wraps w as a Sink whose Close does nothing.
func WriterSink(w io.Writer) Sink {
	return nopCloser{Writer: w, kind: TransportFile}
}
