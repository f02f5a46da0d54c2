package board

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/aquanode/pkg/calibration"
	"github.com/itohio/aquanode/pkg/config"
)

// Mock simulates the station MCU for testing and development.
type Mock struct {
	cfg *config.Config

	frames    chan RawFrame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	status bool
	link   bool

	startTime time.Time
}

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// NewMock creates a new mocked board. A nil config uses config.Default().
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		frames: make(chan RawFrame, DefaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect starts generating frames.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.done = make(chan struct{})

	go m.generateFrames()

	return nil
}

// Close stops the mocked board and closes the frames channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	done := m.done
	m.mu.Unlock()

	<-done
	close(m.frames)

	return nil
}

// Frames returns the channel of generated frames.
func (m *Mock) Frames() <-chan RawFrame {
	return m.frames
}

// SetIndicators records the LED states.
func (m *Mock) SetIndicators(status, link bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	m.status = status
	m.link = link
	return nil
}

// Indicators returns the last LED states set.
func (m *Mock) Indicators() (status, link bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.link
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateFrames() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.Mock.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			frame := m.generateFrame(now)
			select {
			case m.frames <- frame:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateFrame produces the ADC counts the real sensors would report for
// the configured water values, with a slow deterministic wobble as noise.
func (m *Mock) generateFrame(now time.Time) RawFrame {
	elapsed := now.Sub(m.startTime)
	mc := m.cfg.Mock

	wobble := func(phase float64) float64 {
		s := elapsed.Seconds()
		return 1 + mc.NoiseLevel*(math.Sin(s*0.7+phase)+math.Cos(s*0.31+phase))*0.5
	}

	return RawFrame{
		Timestamp:     now,
		Uptime:        elapsed,
		Temperature:   int32(math.Round(mc.Temperature * wobble(0) * 1000)),
		TemperatureOK: true,
		PH:            m.toADC(m.cfg.Calibration.PH, mc.PH*wobble(1)),
		Turbidity:     m.toADC(m.cfg.Calibration.Turbidity, mc.Turbidity*wobble(2)),
		TDS:           m.toADC(m.cfg.Calibration.TDS, mc.TDS*wobble(3)),
	}
}

// toADC inverts the calibration range and the ADC transfer function.
func (m *Mock) toADC(r calibration.Range, value float64) uint16 {
	voltage := r.MinVoltage + (value-r.MinValue)/(r.MaxValue-r.MinValue)*(r.MaxVoltage-r.MinVoltage)
	full := float64(calibration.MaxCount(m.cfg.ADC.Bits))
	count := math.Round(voltage / m.cfg.ADC.VRef * full)
	if count < 0 {
		return 0
	}
	if count > full {
		return uint16(full)
	}
	return uint16(count)
}
