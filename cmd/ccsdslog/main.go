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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/denisbrodbeck/machineid"

	ccsds "github.com/ZaparooProject/go-ccsds"
	"github.com/ZaparooProject/go-ccsds/circular"
	"github.com/ZaparooProject/go-ccsds/dump"
	"github.com/ZaparooProject/go-ccsds/transport/mqtt"
	"github.com/ZaparooProject/go-ccsds/transport/spi"
	"github.com/ZaparooProject/go-ccsds/transport/uart"
)

const (
	defaultRingSize  = 1024
	defaultStashSize = ccsds.DefaultStashSize
	defaultInterval  = time.Second
)

type config struct {
	devicePath string
	format     string
	codec      string
	dumpFile   string
	blobFile   string
	logDir     string
	interval   time.Duration
	ringSize   int
	stashSize  int
	recLen     int
	count      int
	stress     int
	baud       int
	seed       uint64
	crlf       bool
	list       bool
	debug      bool
}

// Package-level flag variables
var (
	flagConfigFile string
	flagDevicePath string
	flagFormat     string
	flagCodec      string
	flagDumpFile   string
	flagBlobFile   string
	flagLogDir     string
	flagInterval   time.Duration
	flagRingSize   int
	flagStashSize  int
	flagRecLen     int
	flagCount      int
	flagStress     int
	flagBaud       int
	flagSeed       uint64
	flagCRLF       bool
	flagList       bool
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagConfigFile, "config", "", "Read settings from FILE (TOML, YAML or JSON)")
	flag.StringVar(&flagDevicePath, "device", "",
		"Output: serial port, SPI port, mqtt://host/topic, file, or empty for stdout")
	flag.StringVar(&flagFormat, "format", "hd", "Output format: hd, ihex, base85 or raw")
	flag.StringVar(&flagDumpFile, "dump", "", "Render FILE as a memory region instead of logging")
	flag.StringVar(&flagBlobFile, "blob", "", "Send FILE as blob packets before logging")
	flag.StringVar(&flagCodec, "compress", "raw", "Blob codec: raw, s2, lz4 or zstd")
	flag.StringVar(&flagLogDir, "log", "", "Write a session log into DIR")
	flag.DurationVar(&flagInterval, "interval", defaultInterval, "Time between measurement cycles")
	flag.IntVar(&flagRingSize, "ring", defaultRingSize, "Ring buffer size in bytes")
	flag.IntVar(&flagStashSize, "stash", defaultStashSize, "Encoder stash size in bytes")
	flag.IntVar(&flagRecLen, "reclen", 0, "Bytes per output record (0 = format default)")
	flag.IntVar(&flagCount, "count", 0, "Number of measurement cycles (0 = until interrupted)")
	flag.IntVar(&flagStress, "stress", 0, "Push N random packets through a concurrently drained ring and verify them")
	flag.IntVar(&flagBaud, "baud", uart.DefaultBaudRate, "Serial baud rate")
	flag.Uint64Var(&flagSeed, "seed", 1, "Seed for simulated sensor readings")
	flag.BoolVar(&flagCRLF, "crlf", false, "End text records with CR LF")
	flag.BoolVar(&flagList, "list", false, "List serial ports and exit")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() (*config, error) {
	cfg := &config{
		devicePath: flagDevicePath,
		format:     flagFormat,
		codec:      flagCodec,
		dumpFile:   flagDumpFile,
		blobFile:   flagBlobFile,
		logDir:     flagLogDir,
		interval:   flagInterval,
		ringSize:   flagRingSize,
		stashSize:  flagStashSize,
		recLen:     flagRecLen,
		count:      flagCount,
		stress:     flagStress,
		baud:       flagBaud,
		seed:       flagSeed,
		crlf:       flagCRLF,
		list:       flagList,
		debug:      flagDebug,
	}

	if flagConfigFile != "" {
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := applyConfigFile(cfg, flagConfigFile, set); err != nil {
			return nil, err
		}
	}

	// Enable debug output if --debug flag is set
	if cfg.debug {
		ccsds.SetDebugEnabled(true)
	}

	return cfg, nil
}

func (c *config) validate() error {
	if c.ringSize <= 0 {
		return fmt.Errorf("ring size must be positive, got %d", c.ringSize)
	}
	if c.count < 0 || c.stress < 0 {
		return errors.New("counts must not be negative")
	}
	if c.interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.interval)
	}
	return nil
}

// fileSink writes the rendered stream to a regular file.
type fileSink struct {
	*os.File
}

func (fileSink) Type() ccsds.TransportType {
	return ccsds.TransportFile
}

func isSerialPath(path string) bool {
	return strings.HasPrefix(path, "/dev/") || strings.HasPrefix(strings.ToUpper(path), "COM")
}

// newSink opens the output named by path.
func newSink(path string, baud int) (ccsds.Sink, error) {
	if path == "" || path == "-" {
		return ccsds.WriterSink(os.Stdout), nil
	}

	if mqtt.IsBrokerURL(path) {
		sink, err := mqtt.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT sink for %s: %w", path, err)
		}
		return sink, nil
	}

	pathLower := strings.ToLower(path)

	// Check for SPI pattern
	if strings.Contains(pathLower, "spi") {
		sink, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI sink for %s: %w", path, err)
		}
		return sink, nil
	}

	if isSerialPath(path) {
		sink, err := uart.New(path, uart.WithBaudRate(baud))
		if err != nil {
			return nil, fmt.Errorf("failed to create UART sink for %s: %w", path, err)
		}
		return ccsds.NewSinkWithRetry(sink, circular.DefaultRetryConfig()), nil
	}

	f, err := os.Create(path) //nolint:gosec // output path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return fileSink{File: f}, nil
}

// newRenderer returns the renderer for format writing to w.
func newRenderer(format string, w io.Writer, recLen int, crlf bool) (dump.Renderer, error) {
	opts := []dump.Option{dump.WithRecordLen(recLen)}
	if crlf {
		opts = append(opts, dump.WithCRLF())
	}
	switch strings.ToLower(format) {
	case "hd", "hex":
		return dump.NewHd(w, opts...), nil
	case "ihex", "intelhex":
		return dump.NewIntelHex(w, opts...), nil
	case "base85", "b85":
		return dump.NewBase85(w, opts...), nil
	case "raw", "bin":
		return dump.NewRaw(w, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func runListMode(out io.Writer) error {
	ports, err := uart.Ports()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	for _, port := range ports {
		_, _ = fmt.Fprintln(out, port)
	}
	return nil
}

func runDumpMode(cfg *config, r dump.Renderer) error {
	data, err := os.ReadFile(cfg.dumpFile)
	if err != nil {
		return fmt.Errorf("failed to read dump file: %w", err)
	}
	if err := dump.Region(r, data, 0, cfg.recLen); err != nil {
		return fmt.Errorf("failed to render %s: %w", cfg.dumpFile, err)
	}
	return nil
}

func parseCodec(name string) (ccsds.BlobCodec, error) {
	for _, codec := range []ccsds.BlobCodec{ccsds.BlobRaw, ccsds.BlobS2, ccsds.BlobLZ4, ccsds.BlobZstd} {
		if strings.EqualFold(name, codec.String()) {
			return codec, nil
		}
	}
	return ccsds.BlobRaw, fmt.Errorf("unsupported blob codec: %s", name)
}

func encoderOptions(cfg *config, clock ccsds.Clock) ([]ccsds.Option, error) {
	opts := []ccsds.Option{
		ccsds.WithStashSize(cfg.stashSize),
		ccsds.WithRecovery(ccsds.RecoveryAbandon),
		ccsds.WithClock(clock),
	}
	if cfg.codec != "" {
		codec, err := parseCodec(cfg.codec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ccsds.WithBlobCompression(codec))
	}
	return opts, nil
}

// machineTag identifies the logging host without exposing its raw
// machine id.
func machineTag() string {
	id, err := machineid.ProtectedID("ccsdslog")
	if err != nil {
		ccsds.Debugf("ccsdslog: no machine id: %v", err)
		return "unknown"
	}
	return id[:16]
}

// writeHostStatus reports the logger's own resource use.
func writeHostStatus(enc *ccsds.Encoder, started time.Time) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	if err := enc.StartNow(apidHostStatus, "host status"); err != nil {
		return err //nolint:wrapcheck // encoder errors carry the APID
	}
	f := &fieldWriter{enc: enc}
	f.u32(uint32(runtime.NumGoroutine()), "goroutines") //nolint:gosec // small count
	f.u64(mem.HeapAlloc, "heap_alloc")
	f.u32(mem.NumGC, "gc_cycles")
	f.u32(uint32(time.Since(started)/time.Millisecond), "uptime_ms") //nolint:gosec // wraps after 49 days
	if f.err != nil {
		return f.err
	}
	return enc.Finish(apidHostStatus) //nolint:wrapcheck // encoder errors carry the APID
}

// tolerate swallows failures that only cost the packet in progress.
func tolerate(err error) error {
	if err == nil || ccsds.IsFatal(err) || ccsds.IsContractViolation(err) {
		return err
	}
	ccsds.Debugf("ccsdslog: packet dropped: %v", err)
	return nil
}

func runLogMode(ctx context.Context, cfg *config, r dump.Renderer, clock ccsds.Clock) (err error) {
	ring, drainer, err := dump.NewBuffer(r, make([]byte, cfg.ringSize))
	if err != nil {
		return fmt.Errorf("failed to create ring: %w", err)
	}
	defer func() {
		// Flush what is committed and end the rendering session
		if drainErr := ring.Drain(); drainErr != nil && err == nil {
			err = fmt.Errorf("failed to flush ring: %w", drainErr)
		}
		if closeErr := drainer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to end output: %w", closeErr)
		}
	}()

	opts, err := encoderOptions(cfg, clock)
	if err != nil {
		return err
	}
	enc, err := ccsds.NewEncoder(ring, opts...)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	if err := enc.DefaultMetaDoc(); err != nil {
		return fmt.Errorf("failed to write metadoc: %w", err)
	}
	if err := enc.MetaDocf("Logged by ccsdslog on machine %s with a %d byte ring and a %d byte stash.",
		machineTag(), cfg.ringSize, cfg.stashSize); err != nil {
		return fmt.Errorf("failed to write metadoc: %w", err)
	}

	if cfg.blobFile != "" {
		data, readErr := os.ReadFile(cfg.blobFile)
		if readErr != nil {
			return fmt.Errorf("failed to read blob file: %w", readErr)
		}
		blob := ccsds.Blob{Name: filepath.Base(cfg.blobFile), APID: apidSource, SummaryAPID: apidSourceSummary}
		if err := tolerate(enc.WriteBlob(blob, data)); err != nil {
			return fmt.Errorf("failed to write blob: %w", err)
		}
	}

	st := newStation(enc, clock, cfg.seed)
	if err := tolerate(st.writeConfig()); err != nil {
		return fmt.Errorf("failed to write sensor config: %w", err)
	}

	started := time.Now()
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for cycle := 1; ; cycle++ {
		if err := tolerate(st.writeMeasurements()); err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		if err := tolerate(writeHostStatus(enc, started)); err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		// Push each cycle out so slow intervals show up promptly
		if err := ring.Drain(); err != nil {
			return fmt.Errorf("cycle %d: failed to drain ring: %w", cycle, err)
		}
		if cfg.count > 0 && cycle >= cfg.count {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func run(ctx context.Context, cfg *config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.list {
		return runListMode(os.Stdout)
	}
	if cfg.stress > 0 {
		return runStressMode(ctx, cfg, os.Stdout)
	}

	if cfg.logDir != "" {
		path, err := ccsds.InitSessionLog(cfg.logDir,
			ccsds.Attr("Device", cfg.devicePath),
			ccsds.Attr("Format", cfg.format),
			ccsds.Attr("Codec", cfg.codec),
			ccsds.Attr("Ring", cfg.ringSize),
			ccsds.Attr("Stash", cfg.stashSize),
			ccsds.Attr("Interval", cfg.interval),
		)
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		defer func() { _ = ccsds.CloseSessionLog() }()
		if cfg.debug {
			_, _ = fmt.Fprintf(os.Stderr, "Session log: %s\n", path)
		}
	}

	sink, err := newSink(cfg.devicePath, cfg.baud)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close output: %v\n", err)
		}
	}()
	ccsds.Debugf("ccsdslog: writing %s to %s sink", cfg.format, sink.Type())

	r, err := newRenderer(cfg.format, sink, cfg.recLen, cfg.crlf)
	if err != nil {
		return err
	}

	if cfg.dumpFile != "" {
		return runDumpMode(cfg, r)
	}
	return runLogMode(ctx, cfg, r, ccsds.NewMonotonicClock(ccsds.DefaultClockResolution))
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	// Parse command-line flags
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Fprint(os.Stderr, "\nShutting down gracefully...\n")
		cancel()
	}()

	// Run the main application logic
	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			// User requested shutdown, exit cleanly
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
