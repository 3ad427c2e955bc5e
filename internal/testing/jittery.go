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

package testing

import (
	"io"
	"math/rand/v2"
	"time"
)

// JitterConfig configures the behavior of JitteryWriter.
type JitterConfig struct {
	MaxLatencyMs   int
	FragmentMax    int
	FailAfterBytes int
	Seed           uint64
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatencyMs: 2,
		FragmentMax:  7,
	}
}

// JitteryWriter wraps an io.Writer to simulate a slow serial link: random
// latency, writes forwarded in small fragments, and an optional hard failure
// once a byte budget is used up.
type JitteryWriter struct {
	backend io.Writer
	rng     *rand.Rand
	config  JitterConfig
	written int
}

// NewJitteryWriter wraps backend with jitter simulation.
func NewJitteryWriter(backend io.Writer, config JitterConfig) *JitteryWriter {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &JitteryWriter{backend: backend, config: config, rng: rng}
}

// Write forwards p in fragments. When the failure budget runs out it
// forwards what fits and returns ErrSinkFailed.
func (j *JitteryWriter) Write(p []byte) (int, error) {
	if j.config.MaxLatencyMs > 0 {
		if delay := time.Duration(j.rng.IntN(j.config.MaxLatencyMs+1)) * time.Millisecond; delay > 0 {
			time.Sleep(delay)
		}
	}

	limit := len(p)
	failing := false
	if j.config.FailAfterBytes > 0 && j.written+limit > j.config.FailAfterBytes {
		limit = max(0, j.config.FailAfterBytes-j.written)
		failing = true
	}

	n := 0
	for n < limit {
		chunk := limit - n
		if j.config.FragmentMax > 0 {
			chunk = min(chunk, 1+j.rng.IntN(j.config.FragmentMax))
		}
		m, err := j.backend.Write(p[n : n+chunk])
		n += m
		j.written += m
		if err != nil {
			return n, err //nolint:wrapcheck // Pass-through wrapper
		}
	}
	if failing {
		return n, ErrSinkFailed
	}
	return n, nil
}

// Written returns the number of bytes forwarded so far.
func (j *JitteryWriter) Written() int {
	return j.written
}
