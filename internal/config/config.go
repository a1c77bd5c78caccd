// Package config loads the daemon's optional YAML configuration file.
// Command-line flags override whatever the file sets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/beating-heart/internal/gpio"
	"github.com/sweeney/beating-heart/internal/input"
	"github.com/sweeney/beating-heart/internal/mqtt"
)

// Input backends.
const (
	InputTerminal = "terminal"
	InputGPIO     = "gpio"
)

// Display backends.
const (
	DisplayTerminal = "terminal"
	DisplayHeadless = "headless"
)

// BrokerOff disables MQTT entirely.
const BrokerOff = "off"

// Config is the full daemon configuration.
type Config struct {
	BPM        int    `yaml:"bpm"`
	PanicLevel int    `yaml:"panic_level"`
	Input      string `yaml:"input"`   // "terminal" or "gpio"
	Display    string `yaml:"display"` // "terminal" or "headless"

	GPIO GPIOConfig `yaml:"gpio"`
	Pads PadsConfig `yaml:"pads"`
	MQTT MQTTConfig `yaml:"mqtt"`

	HTTP   string        `yaml:"http"`   // empty disables the status server
	Report time.Duration `yaml:"report"` // 0 disables periodic reports
	Log    string        `yaml:"log"`    // log file; empty discards logs in terminal display mode
}

// GPIOConfig selects the button lines.
type GPIOConfig struct {
	Chip string `yaml:"chip"`
	PinA int    `yaml:"pin_a"`
	PinB int    `yaml:"pin_b"`
}

// PadsConfig selects the ADC device and channels for the touch pads.
type PadsConfig struct {
	IIO         string `yaml:"iio"`
	Pad1Channel int    `yaml:"pad1_channel"`
	Pad2Channel int    `yaml:"pad2_channel"`
}

// MQTTConfig configures the broker connection and gesture feed.
type MQTTConfig struct {
	Broker     string        `yaml:"broker"`
	GestureTTL time.Duration `yaml:"gesture_ttl"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() Config {
	return Config{
		BPM:        60,
		PanicLevel: 4,
		Input:      InputTerminal,
		Display:    DisplayTerminal,
		GPIO: GPIOConfig{
			Chip: gpio.DefaultChip,
			PinA: gpio.DefaultPinA,
			PinB: gpio.DefaultPinB,
		},
		Pads: PadsConfig{
			IIO:         input.DefaultIIODevice,
			Pad1Channel: 1,
			Pad2Channel: 2,
		},
		MQTT: MQTTConfig{
			Broker:     BrokerOff,
			GestureTTL: mqtt.DefaultGestureTTL,
		},
		HTTP:   ":8080",
		Report: 15 * time.Minute,
	}
}

// Load reads path and overlays it on Default. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.BPM < 1 {
		return fmt.Errorf("bpm must be >= 1, got %d", c.BPM)
	}
	if c.PanicLevel < 1 {
		return fmt.Errorf("panic_level must be >= 1, got %d", c.PanicLevel)
	}

	switch c.Input {
	case InputTerminal, InputGPIO:
	default:
		return fmt.Errorf("unknown input %q (expected: %s or %s)", c.Input, InputTerminal, InputGPIO)
	}

	switch c.Display {
	case DisplayTerminal, DisplayHeadless:
	default:
		return fmt.Errorf("unknown display %q (expected: %s or %s)", c.Display, DisplayTerminal, DisplayHeadless)
	}

	// Keys come from the terminal, so it must be on screen.
	if c.Input == InputTerminal && c.Display != DisplayTerminal {
		return fmt.Errorf("input %q requires display %q", InputTerminal, DisplayTerminal)
	}

	if c.Input == InputGPIO {
		if c.GPIO.Chip == "" {
			return fmt.Errorf("gpio.chip is required for gpio input")
		}
		if c.GPIO.PinA < 0 || c.GPIO.PinB < 0 {
			return fmt.Errorf("gpio pins must be >= 0, got a=%d b=%d", c.GPIO.PinA, c.GPIO.PinB)
		}
		if c.GPIO.PinA == c.GPIO.PinB {
			return fmt.Errorf("gpio.pin_a and gpio.pin_b must differ, both are %d", c.GPIO.PinA)
		}
		if c.Pads.Pad1Channel < 0 || c.Pads.Pad2Channel < 0 {
			return fmt.Errorf("pad channels must be >= 0, got %d and %d", c.Pads.Pad1Channel, c.Pads.Pad2Channel)
		}
	}

	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required (use %q to disable)", BrokerOff)
	}
	if c.MQTT.GestureTTL < 0 {
		return fmt.Errorf("mqtt.gesture_ttl must be >= 0, got %v", c.MQTT.GestureTTL)
	}
	if c.Report < 0 {
		return fmt.Errorf("report must be >= 0, got %v", c.Report)
	}

	return nil
}

// MQTTEnabled reports whether a broker is configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTT.Broker != BrokerOff
}
