//nolint:paralleltest // Tests modify package-level debug state, cannot run in parallel
package ccsds

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureTrace points the tracer at buf with console output off and
// restores it afterwards.
func captureTrace(t *testing.T, buf io.Writer) *bytes.Buffer {
	t.Helper()
	enabled, log, console := trace.enabled, trace.log, trace.console
	var out bytes.Buffer
	trace.enabled, trace.log, trace.console = false, buf, &out
	t.Cleanup(func() {
		trace.enabled, trace.log, trace.console = enabled, log, console
	})
	return &out
}

// cleanupSessionLog ensures session log state is clean after tests.
func cleanupSessionLog(t *testing.T) {
	t.Helper()
	if trace.file != nil {
		_ = trace.file.Close()
	}
	trace.file, trace.log, trace.path = nil, nil, ""
}

func TestDebugf_WritesToSessionLog(t *testing.T) {
	var buf bytes.Buffer
	console := captureTrace(t, &buf)

	Debugf("int: %d, string: %s, hex: %02X", 42, "test", 0xAB)

	content := buf.String()
	assert.Contains(t, content, "DEBUG: int: 42, string: test, hex: AB")
	matched, err := regexp.MatchString(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG:`, content)
	require.NoError(t, err)
	assert.True(t, matched, "Should include timestamp in format HH:MM:SS.mmm, got: %s", content)
	assert.Empty(t, console.String(), "console output is off")
}

func TestDebugln_WritesToSessionLog(t *testing.T) {
	var buf bytes.Buffer
	captureTrace(t, &buf)

	Debugln("value1", 42, "value2", true)

	assert.Contains(t, buf.String(), "DEBUG: value1 42 value2 true\n")
}

func TestDebugf_ConsoleWhenEnabled(t *testing.T) {
	console := captureTrace(t, nil)
	SetDebugEnabled(true)

	Debugf("apid=0x%03X", 5)
	assert.Equal(t, "DEBUG: apid=0x005\n", console.String())
}

func TestDebug_NilSessionWriter(t *testing.T) {
	captureTrace(t, nil)

	assert.NotPanics(t, func() {
		Debugf("test message %d", 42)
		Debugln("test", "message")
	})
}

func TestSetDebugEnabled(t *testing.T) {
	captureTrace(t, nil)

	SetDebugEnabled(true)
	assert.True(t, trace.enabled)

	SetDebugEnabled(false)
	assert.False(t, trace.enabled)
}

func TestEncoderTracesToSessionLog(t *testing.T) {
	var buf bytes.Buffer
	captureTrace(t, &buf)

	enc, _ := newTestEncoder(t, 256)
	require.NoError(t, enc.Start(3, "Barometer", NoTimeCode))
	require.NoError(t, enc.FillU16(7, "raw"))
	require.NoError(t, enc.Finish(3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "ccsds: start apid=0x003 seq=0")
	assert.Contains(t, lines[len(lines)-1], "ccsds: finish apid=0x003")
	assert.Contains(t, buf.String(), `doc apid=0x003 u16 "raw"`)
}

func TestInitSessionLog_CreatesFile(t *testing.T) {
	t.Cleanup(func() { cleanupSessionLog(t) })
	dir := t.TempDir()

	path, err := InitSessionLog(dir, Attr("Device", "/dev/ttyUSB0"), Attr("Ring", 1024))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^ccsds_\d{8}_\d{6}\.log$`, filepath.Base(path))
	assert.Equal(t, path, GetSessionLogPath())

	_, err = InitSessionLog(dir)
	require.Error(t, err, "a second session log must not replace the first")

	Debugf("hello %s", "log")
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, GetSessionLogPath())

	data, err := os.ReadFile(path) //nolint:gosec // test file in temp dir
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "=== CCSDS Telemetry Session Log ===\n"))
	assert.Contains(t, content, "Process: ")
	assert.Contains(t, content, "Device: /dev/ttyUSB0\n")
	assert.Contains(t, content, "Ring: 1024\n")
	assert.Contains(t, content, "DEBUG: hello log")
	assert.Contains(t, content, "=== Session ended after 1 trace lines ===")
}

func TestCloseSessionLog_NotOpen(t *testing.T) {
	t.Cleanup(func() { cleanupSessionLog(t) })
	require.NoError(t, CloseSessionLog())
}

func TestWriteSessionHeader(t *testing.T) {
	var buf bytes.Buffer
	writeSessionHeader(&buf, []SessionAttr{{Key: "Format", Value: "hd"}})
	assert.Contains(t, buf.String(), runtime.Version())
	assert.Contains(t, buf.String(), runtime.GOOS+"/"+runtime.GOARCH)
	assert.Contains(t, buf.String(), "Format: hd\n")
}
