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

import "github.com/ZaparooProject/go-ccsds/internal/frame"

// stashState tracks where the bytes of the open packet live.
type stashState int

const (
	// stashDirect: the packet is written straight to the ring
	stashDirect stashState = iota
	// stashFilling: the packet is collecting in the stash
	stashFilling
	// stashSpilled: the stash overflowed and was flushed to the ring
	stashSpilled
)

// stash is the fixed-capacity staging area holding a packet while doc
// packets for its APID are written ahead of it.
type stash struct {
	buf   []byte
	n     int
	state stashState
}

func newStash(size int) *stash {
	return &stash{buf: make([]byte, size)}
}

func (s *stash) reset(state stashState) {
	s.n = 0
	s.state = state
}

// put appends c and reports whether it fit.
func (s *stash) put(c byte) bool {
	if s.n == len(s.buf) {
		return false
	}
	s.buf[s.n] = c
	s.n++
	return true
}

func (s *stash) bytes() []byte {
	return s.buf[:s.n]
}

// setLength patches the primary header data length field.
func (s *stash) setLength(length [2]byte) {
	copy(s.buf[frame.LengthOffset:frame.LengthOffset+2], length[:])
}

// flush copies the stash into the ring and empties it.
func (s *stash) flush(ring Ring) error {
	for _, c := range s.bytes() {
		if err := ring.Fill(c); err != nil {
			return err
		}
	}
	s.n = 0
	return nil
}
