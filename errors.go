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
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/ZaparooProject/go-ccsds/circular"
)

// Error categories. Every failure is reported through these; callers use
// errors.Is to classify.
var (
	// Buffer errors - the frame in progress is broken
	ErrBufferFull = circular.ErrFull

	// Protocol contract violations - programmer errors
	ErrFrameOpen    = errors.New("packet already open")
	ErrNoFrame      = errors.New("no packet open")
	ErrAPIDMismatch = errors.New("finish tag does not match open APID")
	ErrInvalidAPID  = errors.New("APID out of range")
	ErrReservedAPID = errors.New("APID is reserved for documentation packets")

	// Stream state errors
	ErrStreamBroken   = errors.New("packet stream broken by an earlier failure")
	ErrFrameAbandoned = errors.New("partial packet abandoned")
	ErrFrameTooLong   = errors.New("packet exceeds maximum CCSDS length")
	ErrDocBacklog     = errors.New("too many undocumented fields after stash overflow")

	// Configuration errors
	ErrStashTooSmall    = errors.New("stash cannot hold a packet header")
	ErrInvalidParameter = errors.New("invalid parameter")

	// Transport errors
	ErrTransportWrite  = errors.New("transport write failed")
	ErrTransportClosed = errors.New("transport is closed")
)

// FrameError wraps a failure inside a packet operation with the packet it
// happened in.
type FrameError struct {
	Err   error  // Underlying error
	Op    string // Operation that failed
	Field string // Field name, if any
	APID  APID   // APID of the open packet
}

func (e *FrameError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s apid 0x%03X field %q: %v", e.Op, uint16(e.APID), e.Field, e.Err)
	}
	return fmt.Sprintf("%s apid 0x%03X: %v", e.Op, uint16(e.APID), e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// ErrorType represents the category of a transport error
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
)

// TransportError wraps sink errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError classifies a sink failure. Closed pipes and vanished
// devices are permanent; everything else may be retried.
func NewTransportError(op, port string, err error) *TransportError {
	te := &TransportError{Op: op, Port: port, Err: err, Type: ErrorTypeTransient, Retryable: true}
	if IsFatal(err) {
		te.Type = ErrorTypePermanent
		te.Retryable = false
	}
	return te
}

// IsFatal returns true if the error means the stream cannot continue:
// the sink is gone or an earlier failure broke the packet stream.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) && te.Type == ErrorTypePermanent {
		return true
	}

	switch {
	case errors.Is(err, ErrStreamBroken),
		errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.ENODEV),
		errors.Is(err, syscall.ENXIO),
		errors.Is(err, syscall.EIO):
		return true
	default:
		return false
	}
}

// IsContractViolation reports whether err is a start/finish misuse rather
// than a runtime failure.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrFrameOpen) ||
		errors.Is(err, ErrNoFrame) ||
		errors.Is(err, ErrAPIDMismatch) ||
		errors.Is(err, ErrInvalidAPID) ||
		errors.Is(err, ErrReservedAPID)
}
