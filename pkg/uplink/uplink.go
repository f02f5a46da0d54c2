package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/quality"
	"github.com/itohio/aquanode/pkg/sample"
	"go.uber.org/zap"
)

// Publisher delivers reports to the backend.
type Publisher interface {
	Publish(ctx context.Context, p Payload) error
	Close() error
}

// Payload is the JSON document accepted by the backend's
// POST /api/sensor/data route. Field names follow the backend schema.
type Payload struct {
	SensorID    string    `json:"sensor_id"`
	Location    string    `json:"ubicacion,omitempty"`
	Temperature *float64  `json:"temperatura,omitempty"` // °C, omitted without a valid DS18B20 read
	PH          float64   `json:"ph"`
	Turbidity   float64   `json:"turbidez"` // NTU
	TDS         float64   `json:"tds"`      // ppm
	Timestamp   time.Time `json:"timestamp"`
	Samples     int       `json:"samples"`
	ICA         int       `json:"ica"` // water quality index of the rounded means
}

// NewPayload builds the payload for a report using the window means.
func NewPayload(sensor config.SensorConfig, r sample.Report) Payload {
	p := Payload{
		SensorID:  sensor.ID,
		Location:  sensor.Location,
		PH:        round(r.PH.Mean(), 2),
		Turbidity: round(r.Turbidity.Mean(), 1),
		TDS:       round(r.TDS.Mean(), 0),
		Timestamp: r.End.UTC(),
		Samples:   r.Samples,
	}
	if r.Temperature.Count > 0 {
		t := round(r.Temperature.Mean(), 2)
		p.Temperature = &t
	}
	p.ICA = quality.Compute(p.PH, p.Turbidity, p.TDS).Value
	return p
}

func (p Payload) encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// New creates the publisher selected by cfg.Uplink.Kind, wrapped with the
// configured retry policy.
func New(cfg *config.Config, metrics *Metrics, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		next Publisher
		err  error
	)
	switch cfg.Uplink.Kind {
	case config.UplinkHTTP:
		next = NewHTTP(cfg.Network.Endpoint, cfg.Uplink.Timeout, metrics, logger)
	case config.UplinkMQTT:
		next, err = NewMQTT(cfg.Uplink.MQTT, cfg.Sensor.ID, cfg.Uplink.Timeout, logger)
	case config.UplinkKafka:
		next = NewKafka(cfg.Uplink.Kafka, cfg.Uplink.Timeout)
	default:
		return nil, fmt.Errorf("unknown uplink kind %q", cfg.Uplink.Kind)
	}
	if err != nil {
		return nil, err
	}

	return NewRetrying(next, cfg.Retry.MaxSendAttempts, cfg.Retry.Delay, metrics, logger), nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
