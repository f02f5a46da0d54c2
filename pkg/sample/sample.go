package sample

import (
	"time"

	"github.com/itohio/aquanode/pkg/board"
	"github.com/itohio/aquanode/pkg/calibration"
	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/quality"
	"go.uber.org/zap"
)

// Reading represents a calibrated water-quality measurement.
type Reading struct {
	Timestamp     time.Time     `json:"timestamp"`
	Temperature   float64       `json:"temperature"` // °C
	TemperatureOK bool          `json:"temperature_ok"`
	PH            float64       `json:"ph"`
	Turbidity     float64       `json:"turbidity"` // NTU
	TDS           float64       `json:"tds"`       // ppm
	Voltages      Voltages      `json:"voltages"`
	Quality       quality.Index `json:"quality"`
}

// Voltages holds the analog sensor voltages a reading was computed from.
type Voltages struct {
	PH        float64 `json:"ph"`
	Turbidity float64 `json:"turbidity"`
	TDS       float64 `json:"tds"`
}

// Converter is a function type that converts a RawFrame channel to a Reading channel.
type Converter func(in <-chan board.RawFrame) <-chan Reading

// NewConverter creates a converter function that transforms RawFrames to Readings.
// The output channel is closed once the input channel is closed.
func NewConverter(cfg *config.Config, bufSize int, logger *zap.Logger) Converter {
	if bufSize <= 0 {
		bufSize = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("converter")

	return func(in <-chan board.RawFrame) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				select {
				case out <- Convert(raw, cfg):
				case <-time.After(time.Second):
					log.Warn("converter output channel full, dropping reading")
				}
			}
		}()

		return out
	}
}

// Convert converts a RawFrame to a Reading using the calibration ranges.
func Convert(raw board.RawFrame, cfg *config.Config) Reading {
	v := Voltages{
		PH:        calibration.ADCToVoltage(raw.PH, cfg.ADC.VRef, cfg.ADC.Bits),
		Turbidity: calibration.ADCToVoltage(raw.Turbidity, cfg.ADC.VRef, cfg.ADC.Bits),
		TDS:       calibration.ADCToVoltage(raw.TDS, cfg.ADC.VRef, cfg.ADC.Bits),
	}

	r := Reading{
		Timestamp:     raw.Timestamp,
		TemperatureOK: raw.TemperatureOK,
		PH:            cfg.Calibration.PH.Map(v.PH),
		Turbidity:     cfg.Calibration.Turbidity.Map(v.Turbidity),
		TDS:           cfg.Calibration.TDS.Map(v.TDS),
		Voltages:      v,
	}
	if raw.TemperatureOK {
		r.Temperature = float64(raw.Temperature) / 1000
	}
	r.Quality = quality.Compute(r.PH, r.Turbidity, r.TDS)
	return r
}
