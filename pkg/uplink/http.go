package uplink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/itohio/aquanode/pkg/version"
	"go.uber.org/zap"
)

// HTTP posts payloads as JSON to the backend endpoint.
type HTTP struct {
	endpoint  string
	client    *http.Client
	userAgent string
	log       *zap.Logger
}

// Ensure HTTP implements Publisher.
var _ Publisher = (*HTTP)(nil)

// NewHTTP returns a publisher for endpoint. When metrics is not nil request
// durations are recorded.
func NewHTTP(endpoint string, timeout time.Duration, metrics *Metrics, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}

	var transport http.RoundTripper = http.DefaultTransport
	if metrics != nil {
		transport = InstrumentRoundTripperDuration(metrics.RequestDuration, transport)
	}

	return &HTTP{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: version.UserAgent(),
		log:       logger.Named("uplink.http"),
	}
}

// Publish posts the payload. 2xx is success; 4xx (except 408 and 429) is
// ErrRejected; everything else is retryable.
func (h *HTTP) Publish(ctx context.Context, p Payload) error {
	body, err := p.encode()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("X-Sensor-ID", p.SensorID)

	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		h.log.Debug("payload accepted",
			zap.String("request_id", requestID),
			zap.Int("code", resp.StatusCode))
		return nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		h.log.Warn("payload rejected",
			zap.String("request_id", requestID),
			zap.Int("code", resp.StatusCode),
			zap.ByteString("body", snippet))
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
