package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/airwave-labs/modeswatch/internal/modes"
	"github.com/airwave-labs/modeswatch/internal/sdr/rtl"
)

// Config is the top-level application configuration: global settings,
// the demodulator's confidence/timeout policy, and the capture
// device's parameters.
type Config struct {
	Settings    Settings     `yaml:"settings"`
	Demodulator modes.Config `yaml:"demodulator"`
	Device      rtl.Config   `yaml:"device"`
}

// Settings holds global application settings.
type Settings struct {
	LogLevel      string `yaml:"logLevel"`
	QueueCapacity int    `yaml:"queueCapacity"`
	StatsInterval string `yaml:"statsInterval"`
}

// LoadConfig reads and parses a YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}

	return &config, nil
}
