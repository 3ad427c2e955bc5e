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

// Package testing provides byte sinks for exercising renderers and
// transports without hardware.
package testing

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// ErrSinkFailed is returned by sinks configured to fail.
var ErrSinkFailed = errors.New("simulated sink failure")

// RecordingSink collects everything written to it. It is safe for
// concurrent use.
type RecordingSink struct {
	buf    bytes.Buffer
	writes int
	mu     sync.Mutex
}

// Write implements io.Writer.
func (s *RecordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return s.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

// Bytes returns a copy of everything written.
func (s *RecordingSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

// String returns everything written as text.
func (s *RecordingSink) String() string {
	return string(s.Bytes())
}

// Lines splits the recorded text on LF, dropping a trailing empty line and
// any CR.
func (s *RecordingSink) Lines() []string {
	text := strings.ReplaceAll(s.String(), "\r", "")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Writes returns the number of Write calls.
func (s *RecordingSink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Reset discards the recorded output.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.writes = 0
}
