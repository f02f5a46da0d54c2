package board

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// recordingPort embeds serial.Port so only Write needs a body. It flags any
// write that starts while another is in progress.
type recordingPort struct {
	serial.Port

	inFlight   atomic.Int32
	overlapped atomic.Bool

	mu      sync.Mutex
	written []string
}

func (p *recordingPort) Write(b []byte) (int, error) {
	if p.inFlight.Add(1) > 1 {
		p.overlapped.Store(true)
	}
	defer p.inFlight.Add(-1)

	// write one byte at a time so interleaving would corrupt the command
	for i := range b {
		p.mu.Lock()
		if i == 0 {
			p.written = append(p.written, "")
		}
		p.written[len(p.written)-1] += string(b[i])
		p.mu.Unlock()
		time.Sleep(50 * time.Microsecond)
	}
	return len(b), nil
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyUSB0", 115200, 32, nil)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyUSB0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 32, dev.bufSize)
	assert.NotNil(t, dev.frames)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyUSB0", 0, 0, nil)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_SetIndicatorsConcurrent(t *testing.T) {
	port := &recordingPort{}
	dev := New("/dev/ttyUSB0", 115200, 8, nil)
	dev.conn = port
	dev.connected = true

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(on bool) {
			defer wg.Done()
			assert.NoError(t, dev.SetIndicators(on, !on))
		}(i%2 == 0)
	}
	wg.Wait()

	assert.False(t, port.overlapped.Load(), "indicator writes overlapped")
	require.Len(t, port.written, 20)
	for _, cmd := range port.written {
		assert.Contains(t, []string{"10\n", "01\n"}, cmd)
	}
}

func TestSerial_NotConnected(t *testing.T) {
	dev := New("/dev/ttyUSB0", 115200, 8, nil)

	assert.Error(t, dev.SetIndicators(true, true))
	assert.NoError(t, dev.Close(), "closing a device that never connected is a no-op")
}

func TestScanFrames(t *testing.T) {
	input := strings.Join([]string{
		"# boot ok",
		"1000,18500,2000,100,500",
		"",
		"garbage line",
		"2000,-,2001,101,501",
		"3000,18600,9999,100,500", // out of range, skipped
		"4000,18700,2002,102,502",
	}, "\n")

	out := make(chan RawFrame, 10)
	scanFrames(context.Background(), strings.NewReader(input), out, zap.NewNop())
	close(out)

	var frames []RawFrame
	for f := range out {
		frames = append(frames, f)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, uint16(2000), frames[0].PH)
	assert.True(t, frames[0].TemperatureOK)
	assert.False(t, frames[1].TemperatureOK)
	assert.Equal(t, uint16(2002), frames[2].PH)
	assert.Equal(t, int32(18700), frames[2].Temperature)
}

func TestScanFrames_DropsWhenFull(t *testing.T) {
	input := "1,1,1,1,1\n2,2,2,2,2\n3,3,3,3,3\n"

	out := make(chan RawFrame, 1)
	scanFrames(context.Background(), strings.NewReader(input), out, zap.NewNop())

	require.Len(t, out, 1)
	f := <-out
	assert.Equal(t, uint16(1), f.PH, "oldest frame kept, later ones dropped")
}

func TestScanFrames_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan RawFrame, 10)
	scanFrames(ctx, strings.NewReader("1,1,1,1,1\n"), out, zap.NewNop())
	assert.Len(t, out, 0)
}
