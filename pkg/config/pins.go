package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pin is an ESP32 GPIO number.
type Pin int

// Analog input aliases on the ESP32 DevKit. Only ADC1 channels are listed,
// ADC2 cannot be sampled while Wi-Fi is active.
var analogAliases = map[string]Pin{
	"A0": 36,
	"A1": 39,
	"A2": 34,
	"A3": 35,
	"A4": 32,
	"A5": 33,
}

// ParsePin accepts a bare GPIO number ("4"), a GPIO label ("GPIO36")
// or an analog alias ("A0").
func ParsePin(s string) (Pin, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if p, ok := analogAliases[s]; ok {
		return p, nil
	}
	s = strings.TrimPrefix(s, "GPIO")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	if n < 0 || n > 39 {
		return 0, fmt.Errorf("pin %d out of range (0-39)", n)
	}
	return Pin(n), nil
}

// Label returns the analog alias for the pin if one exists, else GPIOn.
func (p Pin) Label() string {
	for name, pin := range analogAliases {
		if pin == p {
			return name
		}
	}
	return fmt.Sprintf("GPIO%d", int(p))
}

// String implements fmt.Stringer.
func (p Pin) String() string {
	return p.Label()
}

// UnmarshalYAML accepts integers and pin labels.
func (p *Pin) UnmarshalYAML(value *yaml.Node) error {
	pin, err := ParsePin(value.Value)
	if err != nil {
		return err
	}
	*p = pin
	return nil
}

// MarshalYAML writes analog pins by alias and others as integers.
func (p Pin) MarshalYAML() (interface{}, error) {
	label := p.Label()
	if strings.HasPrefix(label, "GPIO") {
		return int(p), nil
	}
	return label, nil
}
