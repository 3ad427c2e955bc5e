//nolint:paralleltest // Tests replace package-level port hooks
package uart

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ZaparooProject/go-ccsds"
	"github.com/ZaparooProject/go-ccsds/dump"
	"github.com/ZaparooProject/go-ccsds/internal/frame"
	sinks "github.com/ZaparooProject/go-ccsds/internal/testing"
)

// errPortClosed is returned when operations are attempted on a closed port
var errPortClosed = errors.New("port is closed")

// MockSerialPort implements serial.Port over an io.Writer
type MockSerialPort struct {
	out        io.Writer
	mode       *serial.Mode
	writeErrs  []error
	maxWrite   int
	drains     int
	drainErrs  []error
	closed     bool
	writeCalls int
}

// NewMockSerialPort creates a mock serial port writing to out
func NewMockSerialPort(out io.Writer) *MockSerialPort {
	return &MockSerialPort{out: out}
}

func (m *MockSerialPort) SetMode(mode *serial.Mode) error {
	m.mode = mode
	return nil
}

func (m *MockSerialPort) Read(_ []byte) (n int, err error) {
	if m.closed {
		return 0, errPortClosed
	}
	return 0, nil
}

func (m *MockSerialPort) Write(p []byte) (n int, err error) {
	if m.closed {
		return 0, errPortClosed
	}
	call := m.writeCalls
	m.writeCalls++
	if call < len(m.writeErrs) && m.writeErrs[call] != nil {
		return 0, m.writeErrs[call]
	}
	if m.maxWrite > 0 && len(p) > m.maxWrite {
		p = p[:m.maxWrite]
	}
	n, err = m.out.Write(p)
	if err != nil {
		return n, fmt.Errorf("mock write: %w", err)
	}
	return n, nil
}

func (m *MockSerialPort) Drain() error {
	call := m.drains
	m.drains++
	if call < len(m.drainErrs) {
		return m.drainErrs[call]
	}
	return nil
}

func (*MockSerialPort) ResetInputBuffer() error {
	return nil
}

func (*MockSerialPort) ResetOutputBuffer() error {
	return nil
}

func (*MockSerialPort) SetDTR(_ bool) error {
	return nil
}

func (*MockSerialPort) SetRTS(_ bool) error {
	return nil
}

func (*MockSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (*MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return nil
}

func (m *MockSerialPort) Close() error {
	m.closed = true
	return nil
}

func (*MockSerialPort) Break(_ time.Duration) error {
	return nil
}

// Verify interface implementation
var _ serial.Port = (*MockSerialPort)(nil)

// withOpenPort routes New to port for the duration of a test.
func withOpenPort(t *testing.T, port serial.Port, openErr error) *serial.Mode {
	t.Helper()
	var opened serial.Mode
	orig := openPort
	openPort = func(_ string, mode *serial.Mode) (serial.Port, error) {
		opened = *mode
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}
	t.Cleanup(func() { openPort = orig })
	return &opened
}

func TestNewDefaultMode(t *testing.T) {
	rec := &sinks.RecordingSink{}
	mode := withOpenPort(t, NewMockSerialPort(rec), nil)

	sink, err := New("/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
	assert.Equal(t, ccsds.TransportUART, sink.Type())

	sink, err = New("/dev/ttyUSB0", WithBaudRate(9600))
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	require.NoError(t, sink.Close())
}

func TestNewOpenFailure(t *testing.T) {
	withOpenPort(t, nil, errors.New("no such device"))

	_, err := New("/dev/ttyUSB9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")
}

func TestWriteResumesShortWrites(t *testing.T) {
	rec := &sinks.RecordingSink{}
	port := NewMockSerialPort(rec)
	port.maxWrite = 3
	port.writeErrs = []error{nil, errors.New("interrupted system call")}
	sink := NewFromPort(port, "mock")

	n, err := sink.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "0123456789", rec.String())
	assert.Equal(t, 10, sink.Written())
}

func TestWriteErrorIsClassified(t *testing.T) {
	port := NewMockSerialPort(&sinks.RecordingSink{})
	port.writeErrs = []error{io.ErrClosedPipe}
	sink := NewFromPort(port, "/dev/ttyS0")

	_, err := sink.Write([]byte{1})
	require.ErrorIs(t, err, io.ErrClosedPipe)
	assert.True(t, ccsds.IsFatal(err))

	var te *ccsds.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/dev/ttyS0", te.Port)
}

func TestWriteAfterClose(t *testing.T) {
	port := NewMockSerialPort(&sinks.RecordingSink{})
	sink := NewFromPort(port, "mock")
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close is a no-op")
	assert.True(t, port.closed)

	_, err := sink.Write([]byte{1})
	require.ErrorIs(t, err, ccsds.ErrTransportClosed)
	require.NoError(t, sink.Flush())
}

func TestDrainAfterWrite(t *testing.T) {
	port := NewMockSerialPort(&sinks.RecordingSink{})
	port.drainErrs = []error{errors.New("EINTR")}
	withOpenPort(t, port, nil)

	sink, err := New("mock", WithDrainAfterWrite())
	require.NoError(t, err)
	_, err = sink.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 2, port.drains, "interrupted drain is retried")

	require.NoError(t, sink.Flush())
	assert.Equal(t, 3, port.drains)
}

func TestDrainFailure(t *testing.T) {
	port := NewMockSerialPort(&sinks.RecordingSink{})
	port.drainErrs = []error{errors.New("device gone")}
	sink := NewFromPort(port, "mock")

	err := sink.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}

func TestPorts(t *testing.T) {
	orig := listPorts
	t.Cleanup(func() { listPorts = orig })

	listPorts = func() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil }
	ports, err := Ports()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, ports)

	listPorts = func() ([]string, error) { return nil, nil }
	_, err = Ports()
	require.ErrorIs(t, err, ErrNoPorts)

	listPorts = func() ([]string, error) { return nil, errors.New("permission denied") }
	_, err = Ports()
	require.Error(t, err)
}

func TestPacketsOverJitteryLink(t *testing.T) {
	rec := &sinks.RecordingSink{}
	link := sinks.NewJitteryWriter(rec, sinks.JitterConfig{FragmentMax: 5, Seed: 3})
	port := NewMockSerialPort(link)
	sink := NewFromPort(port, "mock")

	ring, drainer, err := dump.NewBuffer(dump.NewRaw(sink), make([]byte, 96))
	require.NoError(t, err)
	enc, err := ccsds.NewEncoder(ring)
	require.NoError(t, err)

	for i := range 20 {
		require.NoError(t, enc.Start(3, "Counter", ccsds.TimeCode(i)))
		require.NoError(t, enc.FillU32(uint32(i), "count"))
		require.NoError(t, enc.Finish(3))
	}
	require.NoError(t, ring.Drain())
	require.NoError(t, drainer.Close())

	pkts, err := frame.Split(rec.Bytes())
	require.NoError(t, err)
	require.Len(t, pkts, 22)
	assert.Equal(t, []byte{0, 0, 0, 19}, pkts[21].Body)
	assert.Equal(t, uint32(19), pkts[21].TimeCode)
}
