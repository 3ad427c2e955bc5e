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

package frame

import (
	"testing"
)

func FuzzSplit(f *testing.F) {
	tc := uint32(1)
	f.Add(buildPacket(3, 1, &tc, []byte{1, 2, 3, 4}))
	f.Add(buildPacket(1, 0, nil, []byte("name")))
	f.Add([]byte{0x00, 0x03, 0xC0, 0x00, 0xFF, 0xFF})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		pkts, err := Split(data)
		total := 0
		for _, p := range pkts {
			if CalculateChecksum(p.Raw) != 0 {
				t.Fatalf("accepted packet with bad checksum: % X", p.Raw)
			}
			total += len(p.Raw)
		}
		if err == nil && total != len(data) {
			t.Fatalf("consumed %d of %d bytes without error", total, len(data))
		}
	})
}
