package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/rgbtree/internal/sequence"
)

type SPI struct {
	Port    string `yaml:"port"`     // e.g. /dev/spidev0.0, empty picks the first bus
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2000000
}

type Serial struct {
	Port string `yaml:"port"` // e.g. /dev/ttyACM0
	Baud int    `yaml:"baud"`
}

type Preview struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type MQTT struct {
	Broker      string `yaml:"broker"` // host:port, empty disables remote control
	ClientID    string `yaml:"client_id,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type Config struct {
	Driver     string `yaml:"driver"` // "spi" | "serial" | "sim"
	FPS        int    `yaml:"fps"`
	Brightness int    `yaml:"brightness"` // 0..30, applied to every frame
	Effect     string `yaml:"effect"`
	LogLevel   string `yaml:"log_level"`

	SPI     SPI              `yaml:"spi"`
	Serial  Serial           `yaml:"serial,omitempty"`
	Program sequence.Program `yaml:"program,omitempty"`
	Preview Preview          `yaml:"preview"`
	MQTT    MQTT             `yaml:"mqtt,omitempty"`
}

// Default matches the stock tree on a Raspberry Pi header.
func Default() Config {
	return Config{
		Driver:     "spi",
		FPS:        2,
		Brightness: 30,
		Effect:     "swirl",
		LogLevel:   "info",
		SPI:        SPI{SpeedHz: 2000000},
		Serial:     Serial{Baud: 115200},
		Preview:    Preview{Addr: ":8080"},
		MQTT:       MQTT{TopicPrefix: "rgbtree"},
	}
}

// Load reads path over Default, then validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects unusable settings and fills defaults for empty optional ones.
func (c *Config) Validate() error {
	switch c.Driver {
	case "spi", "serial", "sim":
	case "":
		c.Driver = "spi"
	default:
		return fmt.Errorf("driver %q must be spi, serial or sim", c.Driver)
	}
	if c.Driver == "serial" && c.Serial.Port == "" {
		return errors.New("serial.port is required for driver serial")
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %d", c.FPS)
	}
	if c.Brightness < 0 || c.Brightness > 30 {
		return fmt.Errorf("brightness must be within [0,30], got %d", c.Brightness)
	}
	if c.SPI.SpeedHz < 0 {
		return fmt.Errorf("spi.speed_hz must be >= 0, got %d", c.SPI.SpeedHz)
	}
	if c.Serial.Baud <= 0 {
		c.Serial.Baud = 115200
	}
	for i, clip := range c.Program.Clips {
		if clip.Effect == "" {
			return fmt.Errorf("program.clips[%d]: effect is required", i)
		}
		if clip.DurationS <= 0 {
			return fmt.Errorf("program.clips[%d]: duration_s must be > 0", i)
		}
	}
	if c.Preview.Enabled && c.Preview.Addr == "" {
		c.Preview.Addr = ":8080"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "rgbtree"
	}
	return nil
}
