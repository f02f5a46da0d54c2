package uplink

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() sample.Report {
	end := time.Date(2026, 7, 1, 12, 1, 0, 0, time.FixedZone("ECT", -5*3600))
	var r sample.Report
	r.Start = end.Add(-time.Minute)
	r.End = end
	r.Samples = 12
	for _, v := range []float64{18.12, 18.14} {
		r.Temperature.Add(v)
	}
	for _, v := range []float64{7.111, 7.113} {
		r.PH.Add(v)
	}
	r.Turbidity.Add(4.26)
	r.TDS.Add(320.4)
	return r
}

func TestNewPayload(t *testing.T) {
	cfg := config.Default()
	p := NewPayload(cfg.Sensor, testReport())

	assert.Equal(t, "ESP32_CANAL_MESIAS_001", p.SensorID)
	assert.Equal(t, "Canal Mesias - Estacion Principal", p.Location)
	require.NotNil(t, p.Temperature)
	assert.Equal(t, 18.13, *p.Temperature)
	assert.Equal(t, 7.11, p.PH)
	assert.Equal(t, 4.3, p.Turbidity)
	assert.Equal(t, 320.0, p.TDS)
	assert.Equal(t, 12, p.Samples)
	assert.Equal(t, 93, p.ICA)
	assert.Equal(t, time.UTC, p.Timestamp.Location())
}

func TestNewPayload_NoTemperature(t *testing.T) {
	r := testReport()
	r.Temperature = sample.Stats{}

	p := NewPayload(config.Default().Sensor, r)
	assert.Nil(t, p.Temperature)

	data, err := p.encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "temperatura")
}

func TestPayload_JSONFieldNames(t *testing.T) {
	p := NewPayload(config.Default().Sensor, testReport())
	data, err := p.encode()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{"sensor_id", "ubicacion", "temperatura", "ph", "turbidez", "tds", "timestamp", "samples", "ica"} {
		assert.Contains(t, m, key)
	}
}

func TestNew_Kinds(t *testing.T) {
	cfg := config.Default()

	cfg.Uplink.Kind = config.UplinkHTTP
	p, err := New(cfg, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &Retrying{}, p)
	assert.IsType(t, &HTTP{}, p.(*Retrying).next)
	assert.Equal(t, 3, p.(*Retrying).attempts)
	assert.Equal(t, 500*time.Millisecond, p.(*Retrying).delay)
	assert.NoError(t, p.Close())

	cfg.Uplink.Kind = config.UplinkKafka
	p, err = New(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Kafka{}, p.(*Retrying).next)
	assert.NoError(t, p.Close())

	cfg.Uplink.Kind = "smoke-signals"
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNew_MQTTUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Uplink.Kind = config.UplinkMQTT
	cfg.Uplink.MQTT.Broker = "tcp://127.0.0.1:1"
	cfg.Uplink.Timeout = 500 * time.Millisecond

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

// recorder is a Publisher that records payloads and replays scripted errors.
type recorder struct {
	mu       sync.Mutex
	errs     []error
	payloads []Payload
	closed   bool
}

func (r *recorder) Publish(_ context.Context, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payloads = append(r.payloads, p)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}
