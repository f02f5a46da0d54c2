package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	// DefaultBaudRate matches the firmware UART configuration.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 16
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the station MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	log      *zap.Logger

	conn      serial.Port
	frames    chan RawFrame
	mu        sync.RWMutex
	wmu       sync.Mutex // serializes writes to conn
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int, logger *zap.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		log:      logger.Named("board").With(zap.String("port", port)),
		frames:   make(chan RawFrame, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		scanFrames(d.ctx, port, d.frames, d.log)
	}()

	d.log.Info("connected", zap.Int("baud", d.baudRate))
	return nil
}

// Close closes the connection and the frames channel.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.log.Warn("error closing serial port", zap.Error(err))
		}
		d.conn = nil
	}

	// closing the port unblocks the scanner; wait so the channel has a single closer
	<-d.done

	d.connected = false
	close(d.frames)

	return nil
}

// Frames returns the channel of frames read from the MCU.
func (d *Serial) Frames() <-chan RawFrame {
	return d.frames
}

// SetIndicators sends the LED state command to the MCU.
func (d *Serial) SetIndicators(status, link bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	d.wmu.Lock()
	defer d.wmu.Unlock()
	if _, err := d.conn.Write([]byte(indicatorCommand(status, link))); err != nil {
		return fmt.Errorf("failed to send indicator command: %w", err)
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// scanFrames reads lines from r and forwards parsed frames to out until r is
// exhausted or ctx is cancelled. Lines starting with '#' are firmware debug
// output and are logged, not parsed.
func scanFrames(ctx context.Context, r io.Reader, out chan<- RawFrame, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			log.Debug("firmware", zap.String("line", strings.TrimSpace(line[1:])))
			continue
		}

		frame, err := parseLine(line, time.Now())
		if err != nil {
			log.Warn("failed to parse line", zap.String("line", line), zap.Error(err))
			continue
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		default:
			log.Warn("frames channel full, dropping frame")
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF && ctx.Err() == nil {
		log.Error("error reading from serial port", zap.Error(err))
	}
}
