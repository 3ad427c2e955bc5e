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

import "time"

// DefaultClockResolution is the tick length of the default encoder clock.
const DefaultClockResolution = time.Millisecond

// Clock is a free-running 32-bit tick counter.
type Clock interface {
	Now() uint32
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint32

// Now implements Clock.
func (f ClockFunc) Now() uint32 {
	return f()
}

// MonotonicClock counts ticks of the host monotonic clock. When Rollover is
// non-zero the count wraps at Rollover, like a hardware timer with a match
// reset.
type MonotonicClock struct {
	Resolution time.Duration
	Rollover   uint32
}

// NewMonotonicClock returns a clock ticking every resolution.
func NewMonotonicClock(resolution time.Duration) *MonotonicClock {
	if resolution <= 0 {
		resolution = DefaultClockResolution
	}
	return &MonotonicClock{Resolution: resolution}
}

// Now returns the current tick count.
func (c *MonotonicClock) Now() uint32 {
	res := c.Resolution
	if res <= 0 {
		res = DefaultClockResolution
	}
	ticks := uint64(monotonicNanos()) / uint64(res) //nolint:gosec // monotonic time is non-negative
	if c.Rollover != 0 {
		ticks %= uint64(c.Rollover)
	}
	return uint32(ticks) //nolint:gosec // wraps like a 32-bit counter
}

var processStart = time.Now()

func fallbackNanos() int64 {
	return int64(time.Since(processStart))
}

// Delta returns the ticks elapsed from a to b on a counter that rolls over
// at limit. A zero limit means the counter wraps at 2^32.
func Delta(a, b, limit uint32) uint32 {
	if limit == 0 || b >= a {
		return b - a
	}
	return limit + b - a
}
