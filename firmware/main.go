//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"machine"
	"time"

	"github.com/chewxy/math32"
	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/onewire"
)

var (
	adcPH        machine.ADC
	adcTurbidity machine.ADC
	adcTDS       machine.ADC
	uart         = machine.UART0

	bus         onewire.Device
	thermometer ds18b20.Device
	romID       []uint8

	// Timing
	start         time.Time
	lastRead      time.Time
	tempRequested bool

	// Serial buffer for indicator commands
	serialBuffer [2]byte
	serialPos    int
)

func main() {
	PIN_LED_STATUS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_LED_LINK.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.InitADC()
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	adcPH = machine.ADC{Pin: PIN_PH}
	adcTurbidity = machine.ADC{Pin: PIN_TURBIDITY}
	adcTDS = machine.ADC{Pin: PIN_TDS}
	adcPH.Configure(adcConfig)
	adcTurbidity.Configure(adcConfig)
	adcTDS.Configure(adcConfig)

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	bus = onewire.New(PIN_TEMPERATURE)
	thermometer = ds18b20.New(bus)
	findThermometer()

	start = time.Now()
	lastRead = start

	// Both LEDs on until the host takes over
	PIN_LED_STATUS.High()
	PIN_LED_LINK.High()

	for {
		now := time.Now()

		processSerial()

		// Start the temperature conversion, then sample everything once it is done
		if !tempRequested && now.Sub(lastRead) >= SENSOR_READ_INTERVAL_MS*time.Millisecond-TEMP_CONVERSION_MS*time.Millisecond {
			if romID != nil {
				thermometer.RequestTemperature(romID)
			}
			tempRequested = true
		}
		if tempRequested && now.Sub(lastRead) >= SENSOR_READ_INTERVAL_MS*time.Millisecond {
			outputReading(now)
			lastRead = now
			tempRequested = false
		}

		time.Sleep(time.Millisecond)
	}
}

// findThermometer looks up the first DS18B20 on the bus. The bus is searched
// again on every failed read.
func findThermometer() {
	ids, err := bus.Search(onewire.SEARCH_ROM)
	if err != nil || len(ids) == 0 {
		romID = nil
		debug("no DS18B20 found")
		return
	}
	romID = ids[0]
}

func readTemperature() (int32, bool) {
	if romID == nil {
		findThermometer()
		return 0, false
	}
	t, err := thermometer.ReadTemperature(romID)
	if err != nil {
		debug("DS18B20 read failed")
		findThermometer()
		return 0, false
	}
	return t, true
}

// readADC averages NUM_SAMPLES reads scaled down to ADC_RESOLUTION bits.
func readADC(adc machine.ADC) uint16 {
	var sum uint32
	for i := 0; i < NUM_SAMPLES; i++ {
		// Get always returns a 16-bit value
		sum += uint32(adc.Get() >> (16 - ADC_RESOLUTION))
	}
	return uint16(math32.Round(float32(sum) / NUM_SAMPLES))
}

func outputReading(now time.Time) {
	temp, tempOK := readTemperature()
	ph := readADC(adcPH)
	turbidity := readADC(adcTurbidity)
	tds := readADC(adcTDS)

	// Output format: "uptime_ms,temp_millic,ph,turbidity,tds\n"
	// Example: "123456,18625,2048,310,1190"
	print(now.Sub(start).Milliseconds())
	print(",")
	if tempOK {
		print(temp)
	} else {
		print("-")
	}
	print(",")
	print(ph)
	print(",")
	print(turbidity)
	print(",")
	print(tds)
	print("\n")

	if DEBUG_MODE {
		print("# ph=")
		printFixed(mapRange(toVoltage(ph), PH_MIN_VOLTAGE, PH_MAX_VOLTAGE, PH_MIN_VALUE, PH_MAX_VALUE))
		print(" ntu=")
		printFixed(mapRange(toVoltage(turbidity), TURBIDITY_MIN_VOLTAGE, TURBIDITY_MAX_VOLTAGE, TURBIDITY_MIN_VALUE, TURBIDITY_MAX_VALUE))
		print(" ppm=")
		printFixed(mapRange(toVoltage(tds), TDS_MIN_VOLTAGE, TDS_MAX_VOLTAGE, TDS_MIN_VALUE, TDS_MAX_VALUE))
		print("\n")
	}
}

func toVoltage(count uint16) float32 {
	full := float32(uint16(1)<<ADC_RESOLUTION - 1)
	return float32(count) / full * ADC_REFERENCE_MV / 1000
}

func mapRange(v, minV, maxV, minOut, maxOut float32) float32 {
	v = math32.Max(minV, math32.Min(maxV, v))
	return minOut + (v-minV)/(maxV-minV)*(maxOut-minOut)
}

// printFixed prints v with two decimals; print has no float formatting.
func printFixed(v float32) {
	hundredths := int32(math32.Round(v * 100))
	if hundredths < 0 {
		print("-")
		hundredths = -hundredths
	}
	print(hundredths / 100)
	print(".")
	if frac := hundredths % 100; frac < 10 {
		print("0", frac)
	} else {
		print(frac)
	}
}

func debug(msg string) {
	if DEBUG_MODE {
		print("# ", msg, "\n")
	}
}

// processSerial reads indicator commands: two '0'/'1' digits (status LED,
// link LED) followed by a newline.
func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if serialPos == 2 {
				updateIndicators()
			}
			serialPos = 0
			continue
		}

		if data == ' ' || data == '\t' {
			continue
		}

		if data == '0' || data == '1' {
			if serialPos < 2 {
				serialBuffer[serialPos] = data
				serialPos++
			}
		} else {
			serialPos = 0
		}
	}
}

func updateIndicators() {
	PIN_LED_STATUS.Set(serialBuffer[0] == '1')
	PIN_LED_LINK.Set(serialBuffer[1] == '1')
}
