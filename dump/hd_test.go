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
	"testing"

	virt "github.com/ZaparooProject/go-ccsds/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestHdLine(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	hd := NewHd(&out)

	require.NoError(t, Region(hd, seq(16), 0, 16))
	assert.Equal(t,
		[]string{"0000 00 01 02 03  04 05 06 07  08 09 0A 0B  0C 0D 0E 0F  ................"},
		out.Lines())
}

func TestHdFormatting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
		data []byte
		base uint32
	}{
		{
			name: "printable ascii",
			data: []byte("Hi there~\x7F"),
			base: 0x20,
			want: "0020 48 69 20 74  68 65 72 65  7E 7F                     Hi there~.",
		},
		{
			name: "wide address",
			data: []byte{0xFF},
			base: 0x12345,
			want: "12345 FF                                                  .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out virt.RecordingSink
			require.NoError(t, NewHd(&out).Line(tt.data, tt.base))
			assert.Equal(t, []string{tt.want}, out.Lines())
		})
	}
}

func TestHdMultipleLines(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	require.NoError(t, Region(NewHd(&out, WithRecordLen(8)), seq(20), 0x100, 0))

	lines := out.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "0100 00 01 02 03  04 05 06 07  ........", lines[0])
	assert.Equal(t, "0108 08 09 0A 0B  0C 0D 0E 0F  ........", lines[1])
	assert.Equal(t, "0110 10 11 12 13               ....", lines[2])
}

func TestCRLF(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	require.NoError(t, NewHd(&out, WithRecordLen(4), WithCRLF()).Line([]byte("abcd"), 0))
	assert.Equal(t, "0000 61 62 63 64  abcd\r\n", out.String())
}

// Every renderer must produce identical output for a record split across
// two spans and the same record in one span.
func TestLine2MatchesLine(t *testing.T) {
	t.Parallel()
	renderers := map[string]func(*virt.RecordingSink) Renderer{
		"hd":       func(s *virt.RecordingSink) Renderer { return NewHd(s) },
		"intelhex": func(s *virt.RecordingSink) Renderer { return NewIntelHex(s) },
		"base85":   func(s *virt.RecordingSink) Renderer { return NewBase85(s) },
		"raw":      func(s *virt.RecordingSink) Renderer { return NewRaw(s) },
	}
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}

	for name, mk := range renderers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for cut := 0; cut <= len(data); cut++ {
				var whole, parts virt.RecordingSink
				require.NoError(t, mk(&whole).Line(data, 0x40))
				require.NoError(t, mk(&parts).Line2(data[:cut], data[cut:], 0x40))
				assert.Equal(t, whole.String(), parts.String(), "cut at %d", cut)
			}
		})
	}
}

func TestLines2ChunksAcrossSeam(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	hd := NewHd(&out, WithRecordLen(4))
	data := seq(10)

	require.NoError(t, Region2(hd, data[:6], data[6:], 0, 0))
	var want virt.RecordingSink
	require.NoError(t, Region(NewHd(&want, WithRecordLen(4)), data, 0, 0))
	assert.Equal(t, want.Lines(), out.Lines())
}

func TestSinkErrorsPropagate(t *testing.T) {
	t.Parallel()
	var out virt.RecordingSink
	sink := virt.NewJitteryWriter(&out, virt.JitterConfig{FailAfterBytes: 50, Seed: 3})

	err := Region(NewHd(sink), seq(64), 0, 0)
	require.ErrorIs(t, err, virt.ErrSinkFailed)
	assert.Equal(t, 50, sink.Written())
}
