package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/aquanode/pkg/board"
	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/history"
	"github.com/itohio/aquanode/pkg/link"
	"github.com/itohio/aquanode/pkg/sample"
	"github.com/itohio/aquanode/pkg/uplink"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Status is a snapshot of the station state.
type Status struct {
	Running    bool      `json:"running"`
	Link       string    `json:"link"`
	LinkSince  time.Time `json:"link_since,omitempty"`
	LastSendOK bool      `json:"last_send_ok"`
	LastSent   time.Time `json:"last_sent,omitempty"`
	Pending    int       `json:"pending_samples"`
	Buffered   int       `json:"buffered_readings"`
}

// Station reads the board, aggregates readings and delivers reports.
type Station struct {
	cfg     *config.Config
	device  board.Device
	pub     uplink.Publisher
	monitor *link.Monitor
	clock   clockwork.Clock
	metrics *Metrics
	log     *zap.Logger

	agg     *sample.Aggregator
	history *history.Window

	mu         sync.RWMutex
	latest     sample.Reading
	seq        uint64
	taken      uint64
	running    bool
	lastSendOK bool
	lastSent   time.Time
}

// New creates a station. metrics may be nil; a nil clock uses the real clock.
func New(cfg *config.Config, device board.Device, pub uplink.Publisher, monitor *link.Monitor, clock clockwork.Clock, metrics *Metrics, logger *zap.Logger) *Station {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Station{
		cfg:        cfg,
		device:     device,
		pub:        pub,
		monitor:    monitor,
		clock:      clock,
		metrics:    metrics,
		log:        logger.Named("station"),
		agg:        sample.NewAggregator(),
		history:    history.New(cfg.Status.HistoryWindow),
		lastSendOK: true,
	}
	monitor.OnChange(s.onLinkChange)
	if metrics != nil {
		s.history.OnUpdate(func(readings []sample.Reading) {
			metrics.Buffered.Set(float64(len(readings)))
		})
	}
	return s
}

// History returns the window of recent readings.
func (s *Station) History() *history.Window {
	return s.history
}

// Status returns the current station state.
func (s *Station) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		Running:    s.running,
		Link:       s.monitor.State().String(),
		LinkSince:  s.monitor.Since(),
		LastSendOK: s.lastSendOK,
		LastSent:   s.lastSent,
		Pending:    s.agg.Pending(),
		Buffered:   s.history.Len(),
	}
}

// Run connects the board and drives the read, send and link check loops
// until ctx is done. The board is closed before Run returns.
func (s *Station) Run(ctx context.Context) error {
	if err := s.device.Connect(); err != nil {
		return fmt.Errorf("failed to connect to board: %w", err)
	}

	for _, field := range s.cfg.Placeholders() {
		s.log.Warn("configuration still holds a placeholder value", zap.String("field", field))
	}

	readings := sample.NewConverter(s.cfg, board.DefaultBufferSize, s.log)(s.device.Frames())
	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		for r := range readings {
			s.observe(r)
		}
	}()

	linkDone := make(chan struct{})
	go s.watchLink(ctx, linkDone)

	s.setRunning(true)
	s.log.Info("station started",
		zap.String("sensor_id", s.cfg.Sensor.ID),
		zap.Duration("read_interval", s.cfg.Timing.ReadInterval),
		zap.Duration("send_interval", s.cfg.Timing.SendInterval),
		zap.String("uplink", s.cfg.Uplink.Kind))

	readTicker := s.clock.NewTicker(s.cfg.Timing.ReadInterval)
	defer readTicker.Stop()
	sendTicker := s.clock.NewTicker(s.cfg.Timing.SendInterval)
	defer sendTicker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-readTicker.Chan():
			s.read()
		case <-sendTicker.Chan():
			s.send(ctx)
		}
	}

	s.setRunning(false)
	<-linkDone

	err := s.device.Close()
	<-consumeDone

	s.log.Info("station stopped", zap.Int("undelivered_samples", s.agg.Pending()))
	return err
}

// observe records the newest converted reading. Only the latest one is
// taken on the next read tick.
func (s *Station) observe(r sample.Reading) {
	s.mu.Lock()
	s.latest = r
	s.seq++
	s.mu.Unlock()
}

func (s *Station) read() {
	s.mu.Lock()
	if s.seq == s.taken {
		s.mu.Unlock()
		s.log.Debug("no new reading from board")
		return
	}
	s.taken = s.seq
	r := s.latest
	s.mu.Unlock()

	s.agg.Add(r)
	s.history.Add(r)

	if s.metrics != nil {
		s.metrics.Readings.Inc()
		s.metrics.Pending.Set(float64(s.agg.Pending()))
		if r.TemperatureOK {
			s.metrics.Reading.WithLabelValues("temperature").Set(r.Temperature)
		}
		s.metrics.Reading.WithLabelValues("ph").Set(r.PH)
		s.metrics.Reading.WithLabelValues("turbidity").Set(r.Turbidity)
		s.metrics.Reading.WithLabelValues("tds").Set(r.TDS)
	}

	s.log.Debug("reading",
		zap.Float64("temperature", r.Temperature),
		zap.Bool("temperature_ok", r.TemperatureOK),
		zap.Float64("ph", r.PH),
		zap.Float64("turbidity", r.Turbidity),
		zap.Float64("tds", r.TDS))
}

func (s *Station) send(ctx context.Context) {
	report, ok := s.agg.Flush()
	if !ok {
		s.log.Debug("nothing to send")
		s.skipped("empty")
		return
	}

	if s.monitor.State() == link.Down {
		s.log.Warn("link down, keeping report for next window", zap.Int("samples", report.Samples))
		s.agg.Restore(report)
		s.skipped("link_down")
		s.setSendResult(false)
		return
	}

	payload := uplink.NewPayload(s.cfg.Sensor, report)
	if err := s.pub.Publish(ctx, payload); err != nil {
		if errors.Is(err, uplink.ErrRejected) {
			s.log.Warn("report rejected, dropping it", zap.Int("samples", report.Samples), zap.Error(err))
			s.skipped("rejected")
			s.setSendResult(false)
			return
		}
		if ctx.Err() == nil {
			s.log.Error("failed to send report", zap.Int("samples", report.Samples), zap.Error(err))
		}
		s.agg.Restore(report)
		s.setSendResult(false)
		return
	}

	s.log.Info("report sent",
		zap.Int("samples", payload.Samples),
		zap.Float64("ph", payload.PH),
		zap.Float64("turbidity", payload.Turbidity),
		zap.Float64("tds", payload.TDS))
	s.setSendResult(true)
}

func (s *Station) watchLink(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	s.checkLink(ctx)

	ticker := s.clock.NewTicker(s.cfg.Timing.LinkCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.checkLink(ctx)
		}
	}
}

func (s *Station) checkLink(ctx context.Context) {
	state := s.monitor.Check(ctx)
	if s.metrics == nil {
		return
	}
	if state == link.Up {
		s.metrics.LinkUp.Set(1)
	} else {
		s.metrics.LinkUp.Set(0)
	}
}

func (s *Station) onLinkChange(link.State) {
	s.updateIndicators()
}

func (s *Station) skipped(reason string) {
	if s.metrics != nil {
		s.metrics.Skipped.WithLabelValues(reason).Inc()
		s.metrics.Pending.Set(float64(s.agg.Pending()))
	}
}

func (s *Station) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
	s.updateIndicators()
}

func (s *Station) setSendResult(ok bool) {
	s.mu.Lock()
	s.lastSendOK = ok
	if ok {
		s.lastSent = s.clock.Now()
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Pending.Set(float64(s.agg.Pending()))
	}
	s.updateIndicators()
}

// updateIndicators drives the status LED (running and last send ok) and the
// link LED (link up).
func (s *Station) updateIndicators() {
	s.mu.RLock()
	status := s.running && s.lastSendOK
	s.mu.RUnlock()
	up := s.monitor.State() == link.Up

	if err := s.device.SetIndicators(status, up); err != nil {
		s.log.Debug("failed to set indicators", zap.Error(err))
	}
}
