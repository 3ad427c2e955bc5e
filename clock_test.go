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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a     uint32
		b     uint32
		limit uint32
		want  uint32
	}{
		{name: "forward", a: 10, b: 25, limit: 0, want: 15},
		{name: "32-bit wrap", a: 0xFFFFFFF0, b: 0x10, limit: 0, want: 0x20},
		{name: "forward with limit", a: 10, b: 25, limit: 60000, want: 15},
		{name: "rollover at limit", a: 59990, b: 5, limit: 60000, want: 15},
		{name: "same tick", a: 7, b: 7, limit: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Delta(tt.a, tt.b, tt.limit))
		})
	}
}

func TestMonotonicClock(t *testing.T) {
	t.Parallel()

	clk := NewMonotonicClock(time.Microsecond)
	a := clk.Now()
	time.Sleep(2 * time.Millisecond)
	b := clk.Now()
	assert.GreaterOrEqual(t, Delta(a, b, 0), uint32(2000))

	rolled := &MonotonicClock{Resolution: time.Nanosecond, Rollover: 1000}
	for range 100 {
		assert.Less(t, rolled.Now(), uint32(1000))
	}

	assert.Equal(t, DefaultClockResolution, NewMonotonicClock(0).Resolution)
	assert.NotPanics(t, func() { _ = (&MonotonicClock{}).Now() })
}
