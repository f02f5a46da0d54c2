package calibration

import (
	"fmt"
)

const (
	// DefaultADCBits is the ESP32 ADC resolution.
	DefaultADCBits = 12
	// DefaultVRef is the ESP32 ADC full-scale voltage (V) with 11 dB attenuation.
	DefaultVRef = 3.3
)

// Range is a linear mapping from a sensor output voltage to a physical value.
type Range struct {
	MinVoltage float64 `yaml:"min_voltage" json:"min_voltage"`
	MaxVoltage float64 `yaml:"max_voltage" json:"max_voltage"`
	MinValue   float64 `yaml:"min_value" json:"min_value"`
	MaxValue   float64 `yaml:"max_value" json:"max_value"`
}

// Validate checks that both the voltage domain and the value range are
// strictly increasing, so Map is well defined and monotonic.
func (r Range) Validate() error {
	if !(r.MinVoltage < r.MaxVoltage) {
		return fmt.Errorf("min voltage %.3f must be below max voltage %.3f", r.MinVoltage, r.MaxVoltage)
	}
	if !(r.MinValue < r.MaxValue) {
		return fmt.Errorf("min value %.3f must be below max value %.3f", r.MinValue, r.MaxValue)
	}
	return nil
}

// IsZero reports whether the range was left unset.
func (r Range) IsZero() bool {
	return r == Range{}
}

// Map converts a voltage to the calibrated value. Voltages outside the
// domain are clamped, so the result always lies in [MinValue, MaxValue].
func (r Range) Map(voltage float64) float64 {
	span := r.MaxVoltage - r.MinVoltage
	if span <= 0 {
		return r.MinValue
	}

	if voltage < r.MinVoltage {
		voltage = r.MinVoltage
	} else if voltage > r.MaxVoltage {
		voltage = r.MaxVoltage
	}

	return r.MinValue + (voltage-r.MinVoltage)*(r.MaxValue-r.MinValue)/span
}

// ADCToVoltage converts a raw ADC count to voltage.
// Formula: V = raw / (2^bits - 1) * vref
func ADCToVoltage(raw uint16, vref float64, bits int) float64 {
	if bits <= 0 {
		bits = DefaultADCBits
	}
	full := float64(uint32(1)<<uint(bits) - 1)
	v := float64(raw) / full * vref
	if v > vref {
		return vref
	}
	return v
}

// MaxCount returns the largest ADC count for the given resolution.
func MaxCount(bits int) uint16 {
	if bits <= 0 {
		bits = DefaultADCBits
	}
	return uint16(uint32(1)<<uint(bits) - 1)
}
