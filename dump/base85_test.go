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

package dump

import (
	"bytes"
	"encoding/ascii85"
	"testing"

	virt "github.com/ZaparooProject/go-ccsds/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase85Groups(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
		data []byte
	}{
		{name: "zero group has no shortcut", data: []byte{0, 0, 0, 0}, want: "!!!!!"},
		{name: "two bytes give three chars", data: []byte{0, 0}, want: "!!!"},
		{name: "one byte gives two chars", data: []byte{0xFF}, want: "rr"},
		{name: "all ones", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}, want: "s8W-!"},
		{name: "two groups", data: []byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}, want: "!!!!!s8W-!"},
		{name: "text", data: []byte("Man "), want: "9jqo^"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out virt.RecordingSink
			require.NoError(t, NewBase85(&out).Line(tt.data, 0))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

// Without all-zero groups the encoding matches Adobe ascii85.
func TestBase85MatchesAscii85(t *testing.T) {
	t.Parallel()
	data := []byte("self-describing telemetry packets!")
	require.NotContains(t, string(data), "\x00\x00\x00\x00")

	want := make([]byte, ascii85.MaxEncodedLen(len(data)))
	want = want[:ascii85.Encode(want, data)]

	var out virt.RecordingSink
	require.NoError(t, NewBase85(&out, WithRecordLen(len(data))).Line(data, 0))
	assert.Equal(t, string(want)+"\n", out.String())
}

func TestBase85LineLength(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	require.NoError(t, Region(NewBase85(&out), bytes.Repeat([]byte{0x55}, 130), 0, 0))

	lines := out.Lines()
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 80)
	assert.Len(t, lines[1], 80)
	assert.Len(t, lines[2], 3)
}
