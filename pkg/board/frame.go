package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxADC is the largest count the firmware reports (12-bit ADC).
const MaxADC = 4095

// RawFrame represents one raw sensor read reported by the MCU.
type RawFrame struct {
	Timestamp     time.Time     // Host receive time
	Uptime        time.Duration // MCU uptime when the read was taken
	Temperature   int32         // DS18B20 reading in milli-degrees Celsius
	TemperatureOK bool          // False when the one-wire read failed
	PH            uint16        // 12-bit ADC count
	Turbidity     uint16        // 12-bit ADC count
	TDS           uint16        // 12-bit ADC count
}

// parseLine parses a line from the MCU into a RawFrame.
// Format: uptime_ms,temp_millic,ph_adc,turbidity_adc,tds_adc
// Example: 123456,18625,2048,310,1190
// A failed temperature read is reported as "-".
func parseLine(line string, received time.Time) (RawFrame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return RawFrame{}, fmt.Errorf("invalid line format: expected 5 comma-separated values, got %d", len(parts))
	}

	uptimeMillis, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return RawFrame{}, fmt.Errorf("invalid uptime: %w", err)
	}

	frame := RawFrame{
		Timestamp: received,
		Uptime:    time.Duration(uptimeMillis) * time.Millisecond,
	}

	if parts[1] != "-" {
		temp, err := strconv.ParseInt(parts[1], 10, 32)
		if err != nil {
			return RawFrame{}, fmt.Errorf("invalid temperature: %w", err)
		}
		frame.Temperature = int32(temp)
		frame.TemperatureOK = true
	}

	if frame.PH, err = parseADC("ph", parts[2]); err != nil {
		return RawFrame{}, err
	}
	if frame.Turbidity, err = parseADC("turbidity", parts[3]); err != nil {
		return RawFrame{}, err
	}
	if frame.TDS, err = parseADC("tds", parts[4]); err != nil {
		return RawFrame{}, err
	}

	return frame, nil
}

func parseADC(name, s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s reading: %w", name, err)
	}
	if v > MaxADC {
		return 0, fmt.Errorf("%s reading out of range: %d (max %d)", name, v, MaxADC)
	}
	return uint16(v), nil
}

// indicatorCommand builds the LED command: "SL\n" with S the status LED and
// L the link LED, each '0' or '1'.
func indicatorCommand(status, link bool) string {
	var cmd strings.Builder
	cmd.WriteByte(bit(status))
	cmd.WriteByte(bit(link))
	cmd.WriteByte('\n')
	return cmd.String()
}

func bit(on bool) byte {
	if on {
		return '1'
	}
	return '0'
}
