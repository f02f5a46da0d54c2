package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/aquanode/pkg/calibration"
	"gopkg.in/yaml.v3"
)

// Uplink kinds.
const (
	UplinkHTTP  = "http"
	UplinkMQTT  = "mqtt"
	UplinkKafka = "kafka"
)

// Config represents the station configuration.
type Config struct {
	Network     NetworkConfig     `yaml:"network"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Timing      TimingConfig      `yaml:"timing"`
	Pins        PinConfig         `yaml:"pins"`
	Calibration CalibrationConfig `yaml:"calibration"`
	ADC         ADCConfig         `yaml:"adc"`
	Debug       DebugConfig       `yaml:"debug"`
	Retry       RetryConfig       `yaml:"retry"`
	Serial      SerialConfig      `yaml:"serial"`
	Uplink      UplinkConfig      `yaml:"uplink"`
	Status      StatusConfig      `yaml:"status"`
	Mock        MockConfig        `yaml:"mock"`
}

// NetworkConfig contains Wi-Fi credentials and the backend endpoint.
type NetworkConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	Endpoint string `yaml:"endpoint"`
}

// SensorConfig identifies the station.
type SensorConfig struct {
	ID       string `yaml:"id"`
	Location string `yaml:"location"`
}

// TimingConfig contains the loop intervals.
type TimingConfig struct {
	ReadInterval      time.Duration `yaml:"read_interval"`
	SendInterval      time.Duration `yaml:"send_interval"`
	LinkCheckInterval time.Duration `yaml:"link_check_interval"` // Wi-Fi check
}

// PinConfig contains the hardware pin assignment.
type PinConfig struct {
	Temperature Pin `yaml:"temperature"` // DS18B20 one-wire bus
	PH          Pin `yaml:"ph"`
	Turbidity   Pin `yaml:"turbidity"`
	TDS         Pin `yaml:"tds"`
	LEDStatus   Pin `yaml:"led_status"`
	LEDLink     Pin `yaml:"led_link"`
}

// CalibrationConfig contains the voltage-to-value ranges per analog sensor.
type CalibrationConfig struct {
	PH        calibration.Range `yaml:"ph"`
	Turbidity calibration.Range `yaml:"turbidity"` // NTU
	TDS       calibration.Range `yaml:"tds"`       // ppm
}

// ADCConfig describes the analog front end.
type ADCConfig struct {
	VRef float64 `yaml:"vref"`
	Bits int     `yaml:"bits"`
}

// DebugConfig contains debugging switches.
type DebugConfig struct {
	Enabled  bool `yaml:"enabled"`
	BaudRate int  `yaml:"baud_rate"`
}

// RetryConfig contains the retry policy.
type RetryConfig struct {
	MaxLinkAttempts int           `yaml:"max_link_attempts"` // Wi-Fi
	MaxSendAttempts int           `yaml:"max_send_attempts"` // HTTP
	Delay           time.Duration `yaml:"delay"`
}

// SerialConfig contains serial port configuration for the MCU link.
type SerialConfig struct {
	Port string `yaml:"port"`
}

// UplinkConfig selects where reports are published.
type UplinkConfig struct {
	Kind    string        `yaml:"kind"` // http, mqtt or kafka
	Timeout time.Duration `yaml:"timeout"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// MQTTConfig contains MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// StatusConfig contains the local status API settings.
type StatusConfig struct {
	Addr          string        `yaml:"addr"`
	HistoryWindow time.Duration `yaml:"history_window"`
}

// MockConfig contains mock board configuration.
type MockConfig struct {
	Temperature float64       `yaml:"temperature"` // °C
	PH          float64       `yaml:"ph"`
	Turbidity   float64       `yaml:"turbidity"` // NTU
	TDS         float64       `yaml:"tds"`       // ppm
	NoiseLevel  float64       `yaml:"noise_level"`
	SampleRate  time.Duration `yaml:"sample_rate"`
}

// Default returns the factory configuration of the station.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			SSID:     PlaceholderSSID,
			Password: PlaceholderPassword,
			Endpoint: "https://" + PlaceholderHost + "/api/sensor/data",
			// local development: "http://192.168.1.100:5000/api/sensor/data"
		},
		Sensor: SensorConfig{
			ID:       "ESP32_CANAL_MESIAS_001",
			Location: "Canal Mesias - Estacion Principal",
		},
		Timing: TimingConfig{
			ReadInterval:      5 * time.Second,
			SendInterval:      60 * time.Second,
			LinkCheckInterval: 30 * time.Second,
		},
		Pins: PinConfig{
			Temperature: 4,
			PH:          analogAliases["A0"],
			Turbidity:   analogAliases["A1"],
			TDS:         analogAliases["A2"],
			LEDStatus:   2,
			LEDLink:     5,
		},
		Calibration: CalibrationConfig{
			PH:        calibration.Range{MinVoltage: 0.0, MaxVoltage: 3.3, MinValue: 0.0, MaxValue: 14.0},
			Turbidity: calibration.Range{MinVoltage: 0.0, MaxVoltage: 3.3, MinValue: 0.0, MaxValue: 1000.0},
			TDS:       calibration.Range{MinVoltage: 0.0, MaxVoltage: 3.3, MinValue: 0.0, MaxValue: 2000.0},
		},
		ADC: ADCConfig{
			VRef: calibration.DefaultVRef,
			Bits: calibration.DefaultADCBits,
		},
		Debug: DebugConfig{
			Enabled:  true,
			BaudRate: 115200,
		},
		Retry: RetryConfig{
			MaxLinkAttempts: 20,
			MaxSendAttempts: 3,
			Delay:           500 * time.Millisecond,
		},
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0", // CP2102 on most ESP32 DevKits
		},
		Uplink: UplinkConfig{
			Kind:    UplinkHTTP,
			Timeout: 10 * time.Second,
			MQTT: MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "aquanode/readings",
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "aquanode.readings",
			},
		},
		Status: StatusConfig{
			Addr:          ":8080",
			HistoryWindow: 10 * time.Minute,
		},
		Mock: MockConfig{
			Temperature: 18.5,
			PH:          7.2,
			Turbidity:   4.0,
			TDS:         320,
			NoiseLevel:  0.01,
			SampleRate:  time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. Load does not validate.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with secrets masked, suitable for logs and APIs.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Uplink.Kafka.Brokers = append([]string(nil), c.Uplink.Kafka.Brokers...)
	if cp.Network.Password != "" {
		cp.Network.Password = "********"
	}
	return &cp
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.ID == "" {
		c.Sensor.ID = def.Sensor.ID
	}
	if c.Network.Endpoint == "" {
		c.Network.Endpoint = def.Network.Endpoint
	}

	if c.Timing.ReadInterval == 0 {
		c.Timing.ReadInterval = def.Timing.ReadInterval
	}
	if c.Timing.SendInterval == 0 {
		c.Timing.SendInterval = def.Timing.SendInterval
	}
	if c.Timing.LinkCheckInterval == 0 {
		c.Timing.LinkCheckInterval = def.Timing.LinkCheckInterval
	}

	if c.Calibration.PH.IsZero() {
		c.Calibration.PH = def.Calibration.PH
	}
	if c.Calibration.Turbidity.IsZero() {
		c.Calibration.Turbidity = def.Calibration.Turbidity
	}
	if c.Calibration.TDS.IsZero() {
		c.Calibration.TDS = def.Calibration.TDS
	}

	if c.ADC.VRef == 0 {
		c.ADC.VRef = def.ADC.VRef
	}
	if c.ADC.Bits == 0 {
		c.ADC.Bits = def.ADC.Bits
	}

	if c.Debug.BaudRate == 0 {
		c.Debug.BaudRate = def.Debug.BaudRate
	}

	if c.Retry.MaxLinkAttempts == 0 {
		c.Retry.MaxLinkAttempts = def.Retry.MaxLinkAttempts
	}
	if c.Retry.MaxSendAttempts == 0 {
		c.Retry.MaxSendAttempts = def.Retry.MaxSendAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = def.Retry.Delay
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}

	if c.Uplink.Kind == "" {
		c.Uplink.Kind = def.Uplink.Kind
	}
	if c.Uplink.Timeout == 0 {
		c.Uplink.Timeout = def.Uplink.Timeout
	}
	if c.Uplink.MQTT.Broker == "" {
		c.Uplink.MQTT.Broker = def.Uplink.MQTT.Broker
	}
	if c.Uplink.MQTT.Topic == "" {
		c.Uplink.MQTT.Topic = def.Uplink.MQTT.Topic
	}
	if len(c.Uplink.Kafka.Brokers) == 0 {
		c.Uplink.Kafka.Brokers = def.Uplink.Kafka.Brokers
	}
	if c.Uplink.Kafka.Topic == "" {
		c.Uplink.Kafka.Topic = def.Uplink.Kafka.Topic
	}

	if c.Status.Addr == "" {
		c.Status.Addr = def.Status.Addr
	}
	if c.Status.HistoryWindow == 0 {
		c.Status.HistoryWindow = def.Status.HistoryWindow
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
