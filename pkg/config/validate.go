package config

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/multierr"
)

// Values shipped in the factory configuration that must be replaced before
// deployment.
const (
	PlaceholderSSID     = "TU_NOMBRE_WIFI"
	PlaceholderPassword = "TU_PASSWORD_WIFI"
	PlaceholderHost     = "tu-dominio.com"
)

// Validate checks the configuration invariants and returns every violation
// found, combined with multierr.
func (c *Config) Validate() error {
	var err error

	if c.Sensor.ID == "" {
		err = multierr.Append(err, fmt.Errorf("sensor.id must not be empty"))
	}

	err = multierr.Append(err, c.validateCalibration())
	err = multierr.Append(err, c.validatePins())
	err = multierr.Append(err, c.validateDurations())
	err = multierr.Append(err, c.validateRetry())

	if c.Debug.BaudRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("debug.baud_rate must be positive, got %d", c.Debug.BaudRate))
	}
	if c.ADC.VRef <= 0 {
		err = multierr.Append(err, fmt.Errorf("adc.vref must be positive, got %g", c.ADC.VRef))
	}
	if c.ADC.Bits <= 0 || c.ADC.Bits > 16 {
		err = multierr.Append(err, fmt.Errorf("adc.bits must be in 1..16, got %d", c.ADC.Bits))
	}

	err = multierr.Append(err, c.validateUplink())

	return err
}

func (c *Config) validateCalibration() error {
	var err error
	ranges := []struct {
		name string
		r    interface{ Validate() error }
	}{
		{"calibration.ph", c.Calibration.PH},
		{"calibration.turbidity", c.Calibration.Turbidity},
		{"calibration.tds", c.Calibration.TDS},
	}
	for _, r := range ranges {
		if e := r.r.Validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.name, e))
		}
	}
	return err
}

// validatePins ensures no two logical pins share a physical GPIO.
func (c *Config) validatePins() error {
	var err error
	pins := []struct {
		name string
		pin  Pin
	}{
		{"temperature", c.Pins.Temperature},
		{"ph", c.Pins.PH},
		{"turbidity", c.Pins.Turbidity},
		{"tds", c.Pins.TDS},
		{"led_status", c.Pins.LEDStatus},
		{"led_link", c.Pins.LEDLink},
	}

	seen := make(map[Pin]string, len(pins))
	for _, p := range pins {
		if other, ok := seen[p.pin]; ok {
			err = multierr.Append(err, fmt.Errorf("pins.%s and pins.%s both use %s", other, p.name, p.pin))
			continue
		}
		seen[p.pin] = p.name
	}
	return err
}

func (c *Config) validateDurations() error {
	var err error
	durations := []struct {
		name string
		ok   bool
	}{
		{"timing.read_interval", c.Timing.ReadInterval > 0},
		{"timing.send_interval", c.Timing.SendInterval > 0},
		{"timing.link_check_interval", c.Timing.LinkCheckInterval > 0},
		{"uplink.timeout", c.Uplink.Timeout > 0},
		{"status.history_window", c.Status.HistoryWindow > 0},
		{"mock.sample_rate", c.Mock.SampleRate > 0},
	}
	for _, d := range durations {
		if !d.ok {
			err = multierr.Append(err, fmt.Errorf("%s must be positive", d.name))
		}
	}

	if c.Timing.ReadInterval > 0 && c.Timing.SendInterval > 0 && c.Timing.SendInterval < c.Timing.ReadInterval {
		err = multierr.Append(err, fmt.Errorf("timing.send_interval %s is shorter than timing.read_interval %s",
			c.Timing.SendInterval, c.Timing.ReadInterval))
	}
	return err
}

func (c *Config) validateRetry() error {
	var err error
	if c.Retry.MaxLinkAttempts <= 0 {
		err = multierr.Append(err, fmt.Errorf("retry.max_link_attempts must be positive, got %d", c.Retry.MaxLinkAttempts))
	}
	if c.Retry.MaxSendAttempts <= 0 {
		err = multierr.Append(err, fmt.Errorf("retry.max_send_attempts must be positive, got %d", c.Retry.MaxSendAttempts))
	}
	if c.Retry.Delay <= 0 {
		err = multierr.Append(err, fmt.Errorf("retry.delay must be positive, got %s", c.Retry.Delay))
	}
	return err
}

func (c *Config) validateUplink() error {
	switch c.Uplink.Kind {
	case UplinkHTTP:
		u, err := url.Parse(c.Network.Endpoint)
		if err != nil {
			return fmt.Errorf("network.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("network.endpoint must be an http(s) URL, got %q", c.Network.Endpoint)
		}
		if u.Host == "" {
			return fmt.Errorf("network.endpoint has no host: %q", c.Network.Endpoint)
		}
	case UplinkMQTT:
		if c.Uplink.MQTT.Broker == "" || c.Uplink.MQTT.Topic == "" {
			return fmt.Errorf("uplink.mqtt requires broker and topic")
		}
	case UplinkKafka:
		if len(c.Uplink.Kafka.Brokers) == 0 || c.Uplink.Kafka.Topic == "" {
			return fmt.Errorf("uplink.kafka requires brokers and topic")
		}
	default:
		return fmt.Errorf("uplink.kind must be one of %s, %s, %s; got %q",
			UplinkHTTP, UplinkMQTT, UplinkKafka, c.Uplink.Kind)
	}
	return nil
}

// Placeholders lists the fields still holding factory placeholder values.
// These are deployment mistakes, not validation errors.
func (c *Config) Placeholders() []string {
	var fields []string
	if c.Network.SSID == PlaceholderSSID {
		fields = append(fields, "network.ssid")
	}
	if c.Network.Password == PlaceholderPassword {
		fields = append(fields, "network.password")
	}
	if strings.Contains(c.Network.Endpoint, PlaceholderHost) {
		fields = append(fields, "network.endpoint")
	}
	return fields
}
