package modes

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the core's externally-configurable surface: the
// confidence level required to promote an AP-class ICAO, and the
// timeout after which a silent ICAO is evicted.
type Config struct {
	ICAOConfidenceLevel ConfidenceLevel `yaml:"icaoConfidenceLevel"`
	ICAOTimeOut         int             `yaml:"icaoTimeOut"` // seconds
}

// Timeout returns the configured ICAO timeout as a time.Duration,
// falling back to DefaultICAOTimeout when unset.
func (c Config) Timeout() time.Duration {
	if c.ICAOTimeOut <= 0 {
		return DefaultICAOTimeout
	}
	return time.Duration(c.ICAOTimeOut) * time.Second
}

func (l ConfidenceLevel) String() string {
	switch l {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (l *ConfidenceLevel) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "low":
		*l = ConfidenceLow
	case "medium", "":
		*l = ConfidenceMedium
	case "high":
		*l = ConfidenceHigh
	default:
		return fmt.Errorf("modes.ConfidenceLevel: invalid value %q, want one of low, medium, high", value.Value)
	}
	return nil
}

func (l ConfidenceLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}
