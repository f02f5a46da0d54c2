package link

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// State is the connectivity state of the uplink.
type State int

const (
	Unknown State = iota
	Up
	Down
)

func (s State) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Checker checks connectivity once.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// DialChecker checks that a TCP connection to addr can be opened.
type DialChecker struct {
	Addr    string
	Timeout time.Duration
}

// Check implements Checker.
func (d DialChecker) Check(ctx context.Context) error {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Target returns the host:port the configured uplink talks to.
func Target(cfg *config.Config) (string, error) {
	switch cfg.Uplink.Kind {
	case config.UplinkMQTT:
		return hostPort(cfg.Uplink.MQTT.Broker)
	case config.UplinkKafka:
		if len(cfg.Uplink.Kafka.Brokers) == 0 {
			return "", fmt.Errorf("no kafka brokers configured")
		}
		b := cfg.Uplink.Kafka.Brokers[0]
		if _, _, err := net.SplitHostPort(b); err != nil {
			return "", fmt.Errorf("invalid kafka broker %q: %w", b, err)
		}
		return b, nil
	default:
		return hostPort(cfg.Network.Endpoint)
	}
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"tcp":   "1883",
	"mqtt":  "1883",
	"ssl":   "8883",
	"tls":   "8883",
	"mqtts": "8883",
}

func hostPort(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("address %q has no host", raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultPorts[strings.ToLower(u.Scheme)]
	}
	if port == "" {
		return "", fmt.Errorf("address %q has no port", raw)
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// Monitor tracks uplink connectivity, retrying failed checks before
// declaring the link down.
type Monitor struct {
	checker  Checker
	attempts int
	delay    time.Duration
	clock    clockwork.Clock
	log      *zap.Logger

	mu       sync.RWMutex
	state    State
	changed  time.Time
	onChange []func(State)
}

// NewMonitor creates a monitor. attempts is the number of checks made per
// check while the link is failing, spaced by delay.
func NewMonitor(checker Checker, attempts int, delay time.Duration, clock clockwork.Clock, logger *zap.Logger) *Monitor {
	if attempts < 1 {
		attempts = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checker:  checker,
		attempts: attempts,
		delay:    delay,
		clock:    clock,
		log:      logger.Named("link"),
	}
}

// Check tests the link and returns the resulting state. It blocks for at
// most attempts*delay plus dial time, or until ctx is done.
func (m *Monitor) Check(ctx context.Context) State {
	var err error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if err = m.checker.Check(ctx); err == nil {
			m.set(Up)
			return Up
		}

		m.log.Debug("link check failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.attempts),
			zap.Error(err))

		if attempt == m.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return m.State()
		case <-m.clock.After(m.delay):
		}
	}

	m.log.Warn("link down", zap.Int("attempts", m.attempts), zap.Error(err))
	m.set(Down)
	return Down
}

// State returns the last known state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Since returns when the state last changed.
func (m *Monitor) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changed
}

// OnChange registers a callback invoked on every state transition.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

func (m *Monitor) set(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = s
	m.changed = m.clock.Now()
	callbacks := make([]func(State), len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	m.log.Info("link state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	for _, cb := range callbacks {
		cb(s)
	}
}
