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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-ccsds/internal/frame"
)

// encoderState is the frame lifecycle: idle, open between Start and
// Finish, or broken after a failed write.
type encoderState int

const (
	stateIdle encoderState = iota
	stateOpen
	stateBroken
)

func (s encoderState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateOpen:
		return "open"
	case stateBroken:
		return "broken"
	default:
		return fmt.Sprintf("encoderState(%d)", int(s))
	}
}

// pendingDoc is a field doc entry deferred until its packet is committed.
type pendingDoc struct {
	name string
	tag  FieldType
}

// Encoder frames self-documenting CCSDS packets into a Ring. Only one
// packet is open at a time. An Encoder is not safe for concurrent use; the
// ring it writes may be drained from another goroutine.
type Encoder struct {
	ring      Ring
	config    *encoderConfig
	tables    *Tables
	stash     *stash
	cause     error
	pending   []pendingDoc
	docBuf    []byte
	origin    uint64 // ring offset of the open packet once it is in the ring
	committed uint64 // ring head after the last Mark
	size      int    // bytes of the open packet written so far
	state     encoderState
	scratch   [8]byte
	prevSeq   uint16
	apid      APID
	sum       byte
	docs      bool // the open packet writes doc entries
}

// NewEncoder returns an encoder writing into ring.
func NewEncoder(ring Ring, opts ...Option) (*Encoder, error) {
	if ring == nil {
		return nil, fmt.Errorf("%w: nil ring", ErrInvalidParameter)
	}
	config, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		ring:      ring,
		config:    config,
		tables:    config.tables,
		stash:     newStash(config.stashSize),
		docBuf:    make([]byte, 0, 64),
		committed: ring.Head(),
	}, nil
}

// Start opens a packet for apid. The packet name is documented the first
// time the APID is used. Reserved APIDs are rejected.
func (e *Encoder) Start(apid APID, name string, tc TimeCode) error {
	if apid <= APIDMetaDoc {
		return &FrameError{Op: "Start", APID: apid, Err: ErrReservedAPID}
	}
	return e.open(apid, name, tc)
}

// StartNow opens a packet stamped with the encoder clock.
func (e *Encoder) StartNow(apid APID, name string) error {
	tc := TimeCode(e.config.clock.Now())
	if tc == NoTimeCode {
		tc--
	}
	return e.Start(apid, name, tc)
}

func (e *Encoder) open(apid APID, name string, tc TimeCode) error {
	if e.state == stateBroken {
		if e.config.recovery != RecoveryAbandon {
			return e.brokenError("Start", "")
		}
		if err := e.abandon(); err != nil {
			return err
		}
	}
	if e.state == stateOpen {
		return &FrameError{Op: "Start", APID: e.apid, Err: ErrFrameOpen}
	}
	if apid > MaxAPID || int(apid) >= e.tables.Size() {
		return &FrameError{
			Op:   "Start",
			APID: apid,
			Err:  fmt.Errorf("%w: table covers %d APIDs", ErrInvalidAPID, e.tables.Size()),
		}
	}

	// Nothing of ours is uncommitted while idle; other producers sharing
	// the ring may have marked since our last commit.
	e.committed = e.ring.Head()
	e.apid = apid
	e.prevSeq = e.tables.Seq[apid]
	e.tables.Seq[apid]++
	e.state = stateOpen
	e.size = 0
	e.sum = 0
	e.pending = e.pending[:0]
	e.docs = e.config.docPolicy == DocAlways || !e.tables.Documented[apid]
	if e.docs {
		e.stash.reset(stashFilling)
	} else {
		e.stash.reset(stashDirect)
		e.origin = e.ring.Head()
	}
	Debugf("ccsds: start apid=0x%03X seq=%d tc=0x%08X docs=%t", uint16(apid), e.prevSeq, uint32(tc), e.docs)

	if name != "" {
		if err := e.writeDoc("Start", NameTag, name); err != nil {
			return err
		}
	}

	var hdr [frame.PrimaryHeaderLen + frame.TimeCodeLen]byte
	frame.PutPrimaryHeader(hdr[:], uint16(apid), tc != NoTimeCode, e.prevSeq, 0)
	n := frame.PrimaryHeaderLen
	if tc != NoTimeCode {
		binary.BigEndian.PutUint32(hdr[n:], uint32(tc))
		n += frame.TimeCodeLen
	}
	return e.put("Start", "", hdr[:n])
}

// Finish closes the open packet. tag must be the APID passed to Start; on a
// mismatch the packet stays open.
func (e *Encoder) Finish(tag APID) error {
	switch e.state {
	case stateBroken:
		if e.config.recovery != RecoveryAbandon {
			return e.brokenError("Finish", "")
		}
		apid, cause := e.apid, e.cause
		if err := e.abandon(); err != nil {
			return err
		}
		return &FrameError{Op: "Finish", APID: apid, Err: fmt.Errorf("%w: %w", ErrFrameAbandoned, cause)}
	case stateIdle:
		return &FrameError{Op: "Finish", APID: tag, Err: ErrNoFrame}
	}
	if tag != e.apid {
		return &FrameError{
			Op:   "Finish",
			APID: e.apid,
			Err:  fmt.Errorf("%w: got 0x%03X", ErrAPIDMismatch, uint16(tag)),
		}
	}

	var length [2]byte
	frame.PutLength(length[:], e.size-frame.PrimaryHeaderLen+frame.TrailerLen)
	e.sum += length[0] + length[1]

	if e.stash.state == stashFilling {
		e.stash.setLength(length)
		e.origin = e.ring.Head()
		if err := e.stash.flush(e.ring); err != nil {
			return e.fail("Finish", "", err)
		}
	} else {
		for i, c := range length {
			if err := e.ring.Poke(e.origin+frame.LengthOffset+uint64(i), c); err != nil {
				return e.fail("Finish", "", err)
			}
		}
	}
	if err := e.ring.Fill(frame.Complement(e.sum)); err != nil {
		return e.fail("Finish", "", err)
	}
	e.commit()
	e.prevSeq = e.tables.Seq[e.apid]

	for _, d := range e.pending {
		if err := e.emitDoc(e.apid, d.tag, d.name); err != nil {
			return e.fail("Finish", d.name, err)
		}
	}
	e.pending = e.pending[:0]
	e.tables.Documented[e.apid] = true
	e.state = stateIdle
	Debugf("ccsds: finish apid=0x%03X len=%d", uint16(e.apid), e.size+frame.TrailerLen)
	return nil
}

// Abandon discards the open or broken packet. Bytes of it already in the
// ring are removed and its sequence number is reused by the next packet.
// Doc packets already committed stay in the stream.
func (e *Encoder) Abandon() error {
	return e.abandon()
}

// Reset abandons any packet in progress and forgets which APIDs have been
// documented, so a reader joining the stream from here sees doc packets
// again.
func (e *Encoder) Reset() error {
	err := e.abandon()
	for i := range e.tables.Documented {
		e.tables.Documented[i] = false
	}
	return err
}

func (e *Encoder) abandon() error {
	if e.state == stateIdle {
		return nil
	}
	if err := e.ring.Truncate(e.committed); err != nil {
		return &FrameError{Op: "Abandon", APID: e.apid, Err: err}
	}
	Debugf("ccsds: abandon apid=0x%03X state=%s cause=%v", uint16(e.apid), e.state, e.cause)
	e.tables.Seq[e.apid] = e.prevSeq
	e.stash.reset(stashDirect)
	e.pending = e.pending[:0]
	e.state = stateIdle
	e.cause = nil
	return nil
}

// Open reports whether a packet is open.
func (e *Encoder) Open() bool {
	return e.state == stateOpen
}

// Err returns the failure that broke the stream, or nil.
func (e *Encoder) Err() error {
	return e.cause
}

// Sequence returns the sequence count the next packet for apid will carry.
// The counter is 16 bits but the header holds only the low 14, so readers
// see the count wrap at 16384.
func (e *Encoder) Sequence(apid APID) uint16 {
	if int(apid) >= e.tables.Size() {
		return 0
	}
	return e.tables.Seq[apid]
}

// Documented reports whether apid has been documented.
func (e *Encoder) Documented(apid APID) bool {
	if int(apid) >= e.tables.Size() {
		return false
	}
	return e.tables.Documented[apid]
}

// Tables returns the encoder's sequence and documented tables.
func (e *Encoder) Tables() *Tables {
	return e.tables
}

// check verifies a field can be written.
func (e *Encoder) check(op, field string) error {
	switch e.state {
	case stateOpen:
		return nil
	case stateBroken:
		return e.brokenError(op, field)
	default:
		return &FrameError{Op: op, Field: field, Err: ErrNoFrame}
	}
}

// fill writes one field: its doc entry if needed, then the value.
func (e *Encoder) fill(op string, tag FieldType, name string, p []byte) error {
	if err := e.check(op, name); err != nil {
		return err
	}
	if name != "" {
		if err := e.writeDoc(op, tag, name); err != nil {
			return err
		}
	}
	return e.put(op, name, p)
}

// put appends packet bytes to the stash or the ring.
func (e *Encoder) put(op, field string, p []byte) error {
	for _, c := range p {
		if e.size+1+frame.TrailerLen-frame.PrimaryHeaderLen > frame.MaxDataLen {
			return e.fail(op, field, ErrFrameTooLong)
		}
		if e.stash.state == stashFilling {
			if e.stash.put(c) {
				e.sum += c
				e.size++
				continue
			}
			if err := e.spill(); err != nil {
				return e.fail(op, field, err)
			}
		}
		if err := e.ring.Fill(c); err != nil {
			return e.fail(op, field, err)
		}
		e.sum += c
		e.size++
	}
	return nil
}

// spill moves an overflowing stash into the ring. The length field is
// still a placeholder; Finish patches it in place.
func (e *Encoder) spill() error {
	Debugf("ccsds: stash overflow apid=0x%03X after %d bytes", uint16(e.apid), e.size)
	e.origin = e.ring.Head()
	e.stash.state = stashSpilled
	return e.stash.flush(e.ring)
}

// writeDoc emits a doc entry for the open packet. Once the packet has
// spilled into the ring, entries wait until it is committed.
func (e *Encoder) writeDoc(op string, tag FieldType, name string) error {
	if !e.docs {
		return nil
	}
	if e.stash.state == stashSpilled {
		if len(e.pending) >= e.config.maxPendingDocs {
			return e.fail(op, name, ErrDocBacklog)
		}
		e.pending = append(e.pending, pendingDoc{tag: tag, name: name})
		return nil
	}
	if err := e.emitDoc(e.apid, tag, name); err != nil {
		return e.fail(op, name, err)
	}
	return nil
}

// emitDoc writes and commits one complete doc packet.
func (e *Encoder) emitDoc(apid APID, tag FieldType, name string) error {
	dataLen := 3 + len(name) + frame.TrailerLen
	if dataLen > frame.MaxDataLen {
		return ErrFrameTooLong
	}
	buf := append(e.docBuf[:0], make([]byte, frame.PrimaryHeaderLen)...)
	frame.PutPrimaryHeader(buf, frame.APIDDoc, false, e.tables.Seq[APIDDoc], dataLen)
	buf = binary.BigEndian.AppendUint16(buf, uint16(apid))
	buf = append(buf, byte(tag))
	buf = append(buf, name...)
	buf = append(buf, frame.Complement(frame.CalculateChecksum(buf)))
	e.docBuf = buf

	for _, c := range buf {
		if err := e.ring.Fill(c); err != nil {
			return err
		}
	}
	e.commit()
	e.tables.Seq[APIDDoc]++
	Debugf("ccsds: doc apid=0x%03X %s %q", uint16(apid), tag, name)
	return nil
}

func (e *Encoder) commit() {
	e.ring.Mark()
	e.committed = e.ring.Head()
}

// fail breaks the stream and reports err.
func (e *Encoder) fail(op, field string, err error) error {
	e.state = stateBroken
	e.cause = err
	Debugf("ccsds: %s apid=0x%03X failed: %v", op, uint16(e.apid), err)
	return &FrameError{Op: op, APID: e.apid, Field: field, Err: err}
}

func (e *Encoder) brokenError(op, field string) error {
	return &FrameError{Op: op, APID: e.apid, Field: field, Err: fmt.Errorf("%w: %w", ErrStreamBroken, e.cause)}
}
