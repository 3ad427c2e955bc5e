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
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortFrame is returned when a buffer ends inside a packet.
	ErrShortFrame = errors.New("frame: truncated packet")
	// ErrChecksumMismatch is returned when the packet bytes do not sum to zero.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
	// ErrBadVersion is returned when the version or type bits are set.
	ErrBadVersion = errors.New("frame: unsupported packet version")
)

// Packet is a framed packet located in a byte stream. Body aliases the
// stream and excludes the secondary header and checksum.
type Packet struct {
	Body      []byte
	Raw       []byte
	TimeCode  uint32
	APID      uint16
	Seq       uint16
	Secondary bool
}

// Next validates the packet at the start of buf and returns it along with
// its total length in bytes.
func Next(buf []byte) (Packet, int, error) {
	if len(buf) < PrimaryHeaderLen {
		return Packet{}, 0, ErrShortFrame
	}
	id := binary.BigEndian.Uint16(buf[0:2])
	if id&(VersionMask|TypeTelecommand) != 0 {
		return Packet{}, 0, fmt.Errorf("%w: id word 0x%04X", ErrBadVersion, id)
	}
	total := PrimaryHeaderLen + int(binary.BigEndian.Uint16(buf[LengthOffset:LengthOffset+2])) + 1
	if len(buf) < total {
		return Packet{}, 0, ErrShortFrame
	}
	raw := buf[:total]
	if CalculateChecksum(raw) != 0 {
		return Packet{}, 0, ErrChecksumMismatch
	}

	pkt := Packet{
		Raw:       raw,
		APID:      id & MaxAPID,
		Seq:       binary.BigEndian.Uint16(buf[2:4]) & SeqCountMask,
		Secondary: id&SecondaryHeaderFlag != 0,
	}
	bodyStart := PrimaryHeaderLen
	if pkt.Secondary {
		if total < PrimaryHeaderLen+TimeCodeLen+TrailerLen {
			return Packet{}, 0, ErrShortFrame
		}
		pkt.TimeCode = binary.BigEndian.Uint32(raw[PrimaryHeaderLen:])
		bodyStart += TimeCodeLen
	}
	pkt.Body = raw[bodyStart : total-TrailerLen]
	return pkt, total, nil
}

// Split walks a stream of back-to-back packets. It stops at the first
// invalid packet and returns the packets found so far with the error.
func Split(buf []byte) ([]Packet, error) {
	var pkts []Packet
	for len(buf) > 0 {
		pkt, n, err := Next(buf)
		if err != nil {
			return pkts, err
		}
		pkts = append(pkts, pkt)
		buf = buf[n:]
	}
	return pkts, nil
}
