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
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ZaparooProject/go-ccsds/internal/syncutil"
)

const traceStamp = "15:04:05.000"

// SessionAttr is one line of context written into the session log header,
// such as the output device or the ring size of the encoder being traced.
type SessionAttr struct {
	Key   string
	Value string
}

// Attr builds a SessionAttr, formatting value with %v.
func Attr(key string, value any) SessionAttr {
	return SessionAttr{Key: key, Value: fmt.Sprint(value)}
}

// tracer fans encoder trace lines out to the session log file, if one is
// open, and to the console when debug output is on.
type tracer struct {
	console io.Writer
	log     io.Writer
	file    *os.File
	path    string
	lines   int
	mu      syncutil.Mutex
	enabled bool
}

var trace = &tracer{
	console: os.Stderr,
	enabled: os.Getenv("CCSDS_DEBUG") != "" || os.Getenv("DEBUG") != "",
}

func (t *tracer) emit(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.log != nil {
		_, _ = fmt.Fprintf(t.log, "%s DEBUG: %s\n", time.Now().Format(traceStamp), message)
		t.lines++
	}
	if t.enabled {
		_, _ = fmt.Fprintf(t.console, "DEBUG: %s\n", message)
	}
}

// Debugf traces an encoder event. The line always lands in the session log
// and reaches stderr only with debug output enabled.
func Debugf(format string, args ...any) {
	trace.emit(fmt.Sprintf(format, args...))
}

// Debugln is Debugf with fmt.Sprintln formatting.
func Debugln(args ...any) {
	trace.emit(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// SetDebugEnabled turns console trace output on or off. CCSDS_DEBUG or
// DEBUG in the environment turn it on at startup.
func SetDebugEnabled(enabled bool) {
	trace.mu.With(func() {
		trace.enabled = enabled
	})
}

// InitSessionLog opens a timestamped trace file in dir, or the current
// directory when dir is empty, and returns its path. attrs are recorded in
// the header so a log can be matched to the stream it traced.
func InitSessionLog(dir string, attrs ...SessionAttr) (string, error) {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	if trace.file != nil {
		return "", fmt.Errorf("session log already open: %s", trace.path)
	}

	name := filepath.Join(dir, "ccsds_"+time.Now().Format("20060102_150405")+".log")
	f, err := os.Create(name) //nolint:gosec // name is built from a timestamp
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}
	trace.file, trace.log, trace.path, trace.lines = f, f, name, 0
	writeSessionHeader(f, attrs)
	return name, nil
}

// CloseSessionLog writes the footer and closes the session log. It does
// nothing when no log is open.
func CloseSessionLog() error {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	if trace.file == nil {
		return nil
	}
	_, _ = fmt.Fprintf(trace.log, "\n%s === Session ended after %d trace lines ===\n",
		time.Now().Format(traceStamp), trace.lines)
	err := trace.file.Close()
	trace.file, trace.log, trace.path = nil, nil, ""
	if err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// GetSessionLogPath returns the open session log path, or "".
func GetSessionLogPath() string {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	return trace.path
}

func writeSessionHeader(w io.Writer, attrs []SessionAttr) {
	host, _ := os.Hostname()
	_, _ = fmt.Fprint(w, "=== CCSDS Telemetry Session Log ===\n")
	_, _ = fmt.Fprintf(w, "Started: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Process: %d on %s (%s/%s, %s)\n",
		os.Getpid(), host, runtime.GOOS, runtime.GOARCH, runtime.Version())
	_, _ = fmt.Fprintf(w, "Command Line: %s\n", strings.Join(os.Args, " "))
	for _, a := range attrs {
		_, _ = fmt.Fprintf(w, "%s: %s\n", a.Key, a.Value)
	}
	_, _ = fmt.Fprint(w, "===================================\n\n")
}
