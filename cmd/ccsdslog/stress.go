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

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	ccsds "github.com/ZaparooProject/go-ccsds"
	"github.com/ZaparooProject/go-ccsds/circular"
	"github.com/ZaparooProject/go-ccsds/internal/frame"
	"github.com/ZaparooProject/go-ccsds/internal/syncutil"
)

const (
	stressFirstAPID   = 3
	stressAPIDs       = 13
	stressMaxFields   = 6
	stressTailBytes   = 64
	stressIdleBackoff = 50 * time.Microsecond
)

// StressResult summarizes a stress run.
type StressResult struct {
	CrashFile  string        `json:"crash_file,omitempty"`
	Duration   time.Duration `json:"duration"`
	Produced   int           `json:"produced"`
	Packets    int           `json:"packets"`
	DocPackets int           `json:"doc_packets"`
	Bytes      uint64        `json:"bytes"`
	Success    bool          `json:"success"`
}

// CrashReport contains all information for debugging a failure.
type CrashReport struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Tail      []string  `json:"tail,omitempty"`
	Offset    uint64    `json:"offset"`
	Packets   int       `json:"packets_verified"`
	RingSize  int       `json:"ring_size"`
	StashSize int       `json:"stash_size"`
	Seed      uint64    `json:"seed"`
}

// stressStats is shared by the producer and consumer goroutines.
type stressStats struct {
	produced int
	packets  int
	docs     int
	bytes    uint64
	mu       syncutil.Mutex
}

// stressProducer writes random packets. Field types, counts and values come
// from a seeded generator so a failing run can be repeated.
type stressProducer struct {
	enc *ccsds.Encoder
	rng *rand.Rand
}

func (p *stressProducer) packet() error {
	apid := ccsds.APID(stressFirstAPID + p.rng.IntN(stressAPIDs))
	if err := p.enc.StartNow(apid, fmt.Sprintf("stress%02X", uint16(apid))); err != nil {
		return err //nolint:wrapcheck // encoder errors carry the APID
	}
	// Fields are a function of the APID so documentation stays valid
	shape := rand.New(rand.NewPCG(uint64(apid), 0)) //nolint:gosec // test data
	fields := 1 + shape.IntN(stressMaxFields)
	for i := range fields {
		name := fmt.Sprintf("f%d", i)
		var err error
		switch shape.IntN(5) {
		case 0:
			err = p.enc.FillU8(uint8(p.rng.Uint32()), name) //nolint:gosec // test data
		case 1:
			err = p.enc.FillI16(int16(p.rng.Uint32()), name) //nolint:gosec // test data
		case 2:
			err = p.enc.FillU32(p.rng.Uint32(), name)
		case 3:
			err = p.enc.FillFloat64(p.rng.Float64(), name)
		default:
			buf := make([]byte, 1+p.rng.IntN(24))
			for j := range buf {
				buf[j] = byte(p.rng.Uint32())
			}
			err = p.enc.FillBinary(buf, name)
		}
		if err != nil {
			return err //nolint:wrapcheck // encoder errors carry the field
		}
	}
	return p.enc.Finish(apid) //nolint:wrapcheck // encoder errors carry the APID
}

// stressConsumer pulls committed bytes off the ring one at a time and checks
// every packet it completes.
type stressConsumer struct {
	ring    *circular.Buffer
	stats   *stressStats
	lastSeq map[uint16]uint16
	pending []byte
	offset  uint64
	tail    []byte
}

func newStressConsumer(ring *circular.Buffer, stats *stressStats) *stressConsumer {
	return &stressConsumer{ring: ring, stats: stats, lastSeq: make(map[uint16]uint16)}
}

// poll consumes everything currently committed. It reports whether any
// byte was read.
func (c *stressConsumer) poll() (bool, error) {
	progress := false
	for {
		b, ok := c.ring.Get()
		if !ok {
			return progress, nil
		}
		progress = true
		c.pending = append(c.pending, b)
		c.tail = append(c.tail, b)
		if len(c.tail) > 2*stressTailBytes {
			c.tail = append(c.tail[:0], c.tail[len(c.tail)-stressTailBytes:]...)
		}

		pkt, n, err := frame.Next(c.pending)
		if errors.Is(err, frame.ErrShortFrame) {
			continue
		}
		if err != nil {
			return progress, fmt.Errorf("packet at offset %d: %w", c.offset, err)
		}
		if err := c.check(pkt); err != nil {
			return progress, fmt.Errorf("packet at offset %d: %w", c.offset, err)
		}
		c.offset += uint64(n)
		c.pending = c.pending[:0]
	}
}

func (c *stressConsumer) check(pkt frame.Packet) error {
	if last, seen := c.lastSeq[pkt.APID]; seen {
		if want := (last + 1) & frame.SeqCountMask; pkt.Seq != want {
			return fmt.Errorf("apid 0x%03X sequence %d, want %d", pkt.APID, pkt.Seq, want)
		}
	}
	c.lastSeq[pkt.APID] = pkt.Seq

	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	c.stats.bytes += uint64(len(pkt.Raw))
	if pkt.APID == frame.APIDDoc {
		c.stats.docs++
	} else {
		c.stats.packets++
	}
	return nil
}

func stressRetryConfig() *circular.RetryConfig {
	return &circular.RetryConfig{
		MaxAttempts:       64,
		InitialBackoff:    50 * time.Microsecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryTimeout:      2 * time.Second,
	}
}

// runStress pushes cfg.stress packets through a ring drained by a second
// goroutine and verifies every packet on the way out.
func runStress(ctx context.Context, cfg *config) (*StressResult, *CrashReport) {
	started := time.Now()
	ring, err := circular.New(make([]byte, cfg.ringSize), circular.WithRetry(stressRetryConfig()))
	if err != nil {
		return &StressResult{}, newCrashReport(cfg, err, nil, 0, 0)
	}
	enc, err := ccsds.NewEncoder(ring, ccsds.WithStashSize(cfg.stashSize))
	if err != nil {
		return &StressResult{}, newCrashReport(cfg, err, nil, 0, 0)
	}

	stats := &stressStats{}
	producer := &stressProducer{
		enc: enc,
		rng: rand.New(rand.NewPCG(cfg.seed, cfg.seed^0xC0FFEE)), //nolint:gosec // test data
	}

	var (
		wg          sync.WaitGroup
		produceErr  error
		producerEnd = make(chan struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(producerEnd)
		for range cfg.stress {
			if ctx.Err() != nil {
				produceErr = ctx.Err()
				return
			}
			if err := producer.packet(); err != nil {
				produceErr = err
				return
			}
			stats.mu.With(func() { stats.produced++ })
		}
	}()

	consumer := newStressConsumer(ring, stats)
	var consumeErr error
	for done := false; !done; {
		select {
		case <-producerEnd:
			done = true
		default:
		}
		progress, err := consumer.poll()
		if err != nil {
			consumeErr = err
			break
		}
		if !progress && !done {
			time.Sleep(stressIdleBackoff)
		}
	}
	if consumeErr == nil {
		// The producer finished; take what it committed last
		_, consumeErr = consumer.poll()
	}
	wg.Wait()

	result := &StressResult{Duration: time.Since(started)}
	stats.mu.With(func() {
		result.Produced = stats.produced
		result.Packets = stats.packets
		result.DocPackets = stats.docs
		result.Bytes = stats.bytes
	})

	failure := errors.Join(produceErr, consumeErr)
	if failure == nil && len(consumer.pending) > 0 {
		failure = fmt.Errorf("%d bytes of an incomplete packet left over", len(consumer.pending))
	}
	if failure == nil && (result.Produced != cfg.stress || result.Packets != result.Produced) {
		failure = fmt.Errorf("verified %d packets, produced %d of %d", result.Packets, result.Produced, cfg.stress)
	}
	if failure != nil {
		return result, newCrashReport(cfg, failure, consumer.tail, consumer.offset, result.Packets)
	}
	result.Success = true
	return result, nil
}

func newCrashReport(cfg *config, err error, tail []byte, offset uint64, packets int) *CrashReport {
	return &CrashReport{
		Timestamp: time.Now(),
		Error:     err.Error(),
		Tail:      formatHexDump(tail),
		Offset:    offset,
		Packets:   packets,
		RingSize:  cfg.ringSize,
		StashSize: cfg.stashSize,
		Seed:      cfg.seed,
	}
}

func formatHexDump(data []byte) []string {
	if len(data) > stressTailBytes {
		data = data[len(data)-stressTailBytes:]
	}
	var lines []string
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		lines = append(lines, fmt.Sprintf("%04X: %s", off, hex.EncodeToString(data[off:end])))
	}
	return lines
}

func writeCrashReportToFile(report *CrashReport, dir string) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal crash report: %w", err)
	}
	name := fmt.Sprintf("ccsds_stress_crash_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}
	return path, nil
}

func runStressMode(ctx context.Context, cfg *config, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "Stress test: %d packets, %d byte ring, %d byte stash, seed %d\n",
		cfg.stress, cfg.ringSize, cfg.stashSize, cfg.seed)

	result, report := runStress(ctx, cfg)
	if report != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		path, err := writeCrashReportToFile(report, cfg.logDir)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to save crash report: %v\n", err)
		} else {
			result.CrashFile = path
			_, _ = fmt.Fprintf(out, "Crash report: %s\n", path)
		}
		return fmt.Errorf("stress test failed after %d packets: %s", result.Packets, report.Error)
	}

	rate := float64(result.Bytes) / result.Duration.Seconds()
	_, _ = fmt.Fprintf(out, "Verified %d packets and %d doc packets, %d bytes in %s (%.0f B/s)\n",
		result.Packets, result.DocPackets, result.Bytes, result.Duration.Round(time.Millisecond), rate)
	return nil
}
