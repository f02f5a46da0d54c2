//go:build tinygo

package main

import "machine"

const (
	// Timing
	SENSOR_READ_INTERVAL_MS = 5000 // Report one line every 5 seconds
	TEMP_CONVERSION_MS      = 750  // DS18B20 12-bit conversion time
	NUM_SAMPLES             = 16   // ADC reads averaged per reported value

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Sensor pins
	PIN_TEMPERATURE = machine.GPIO4  // DS18B20 one-wire bus
	PIN_PH          = machine.GPIO36 // A0
	PIN_TURBIDITY   = machine.GPIO39 // A1
	PIN_TDS         = machine.GPIO34 // A2

	// Indicator pins
	PIN_LED_STATUS = machine.GPIO2
	PIN_LED_LINK   = machine.GPIO5

	// Calibration, used for debug output only. The host maps raw counts itself.
	PH_MIN_VOLTAGE        = 0.0
	PH_MAX_VOLTAGE        = 3.3
	PH_MIN_VALUE          = 0.0
	PH_MAX_VALUE          = 14.0
	TURBIDITY_MIN_VOLTAGE = 0.0
	TURBIDITY_MAX_VOLTAGE = 3.3
	TURBIDITY_MIN_VALUE   = 0.0
	TURBIDITY_MAX_VALUE   = 1000.0 // NTU
	TDS_MIN_VOLTAGE       = 0.0
	TDS_MAX_VOLTAGE       = 3.3
	TDS_MIN_VALUE         = 0.0
	TDS_MAX_VALUE         = 2000.0 // ppm

	// Serial configuration
	// Format "uptime_ms,temp_millic,ph,turbidity,tds\n", ~40 bytes every 5s.
	// Debug lines start with '#' and are ignored by the host.
	DEBUG_MODE     = true
	UART_BAUD_RATE = 115200
)
