package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange_Map(t *testing.T) {
	ph := Range{MinVoltage: 0.0, MaxVoltage: 3.3, MinValue: 0.0, MaxValue: 14.0}

	tests := []struct {
		name    string
		voltage float64
		want    float64
	}{
		{name: "bottom of domain", voltage: 0.0, want: 0.0},
		{name: "top of domain", voltage: 3.3, want: 14.0},
		{name: "midpoint", voltage: 1.65, want: 7.0},
		{name: "below domain clamps", voltage: -0.5, want: 0.0},
		{name: "above domain clamps", voltage: 5.0, want: 14.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ph.Map(tt.voltage), 1e-9)
		})
	}
}

func TestRange_MapOffsetDomain(t *testing.T) {
	r := Range{MinVoltage: 0.5, MaxVoltage: 2.5, MinValue: 100, MaxValue: 300}

	assert.InDelta(t, 100.0, r.Map(0.5), 1e-9)
	assert.InDelta(t, 200.0, r.Map(1.5), 1e-9)
	assert.InDelta(t, 300.0, r.Map(2.5), 1e-9)
}

func TestRange_MapMonotonic(t *testing.T) {
	r := Range{MinVoltage: 0.0, MaxVoltage: 3.3, MinValue: 0.0, MaxValue: 2000.0}

	prev := r.Map(0)
	for v := 0.01; v <= 3.3; v += 0.01 {
		got := r.Map(v)
		assert.GreaterOrEqual(t, got, prev, "Map must not decrease at %f", v)
		prev = got
	}
}

func TestRange_MapDegenerate(t *testing.T) {
	r := Range{MinVoltage: 1.0, MaxVoltage: 1.0, MinValue: 5, MaxValue: 10}
	assert.Equal(t, 5.0, r.Map(2.0))
}

func TestRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Range
		wantErr bool
	}{
		{name: "valid", r: Range{0, 3.3, 0, 14}},
		{name: "equal voltages", r: Range{1, 1, 0, 14}, wantErr: true},
		{name: "inverted voltages", r: Range{3.3, 0, 0, 14}, wantErr: true},
		{name: "equal values", r: Range{0, 3.3, 7, 7}, wantErr: true},
		{name: "inverted values", r: Range{0, 3.3, 14, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestADCToVoltage(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		vref float64
		bits int
		want float64
	}{
		{name: "zero", raw: 0, vref: 3.3, bits: 12, want: 0.0},
		{name: "full scale", raw: 4095, vref: 3.3, bits: 12, want: 3.3},
		{name: "half scale", raw: 2047, vref: 3.3, bits: 12, want: 1.65},
		{name: "10-bit full scale", raw: 1023, vref: 5.0, bits: 10, want: 5.0},
		{name: "default resolution", raw: 4095, vref: 3.3, bits: 0, want: 3.3},
		{name: "overrange clamps", raw: 5000, vref: 3.3, bits: 12, want: 3.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ADCToVoltage(tt.raw, tt.vref, tt.bits), 0.01)
		})
	}
}

func TestMaxCount(t *testing.T) {
	assert.Equal(t, uint16(4095), MaxCount(12))
	assert.Equal(t, uint16(1023), MaxCount(10))
	assert.Equal(t, uint16(4095), MaxCount(0))
}
