package rtl

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultCenterFrequency is 1090 MHz, the Mode S/ADS-B downlink
	// frequency.
	DefaultCenterFrequency = 1_090_000_000

	// DefaultSampleRate is 2 Msps, the rate assumed by the bit slicer's
	// 2-samples-per-bit timing.
	DefaultSampleRate = 2_000_000

	SampleRateMin = 1_000_000
	SampleRateMax = 3_200_000
)

// Config is the `rtl_sdr` tool configuration for a raw I/Q capture
// fixed on the Mode S downlink frequency.
//
// Usage: rtl_sdr -f 1090000000 -s 2000000 -d 0 -
type Config struct {
	CenterFrequency int64 `yaml:"centerFrequency" json:"centerFrequency"` // -f frequency (default: 1090MHz)
	SampleRate      int64 `yaml:"sampleRate" json:"sampleRate"`           // -s sample_rate (default: 2Msps)

	DeviceIndex int `yaml:"deviceIndex" json:"deviceIndex"` // -d device_index (default: 0)

	Gain     int `yaml:"gain" json:"gain"`         // -g tuner_gain (default: automatic)
	PPMError int `yaml:"ppmError" json:"ppmError"` // -p ppm_error (default: 0)

	BiasTee bool `yaml:"biasTee" json:"biasTee"` // -T enable bias-tee (default: off)
}

// WithDefaults returns a copy of c with zero-valued fields replaced by
// the Mode S defaults.
func (c Config) WithDefaults() Config {
	if c.CenterFrequency == 0 {
		c.CenterFrequency = DefaultCenterFrequency
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	return c
}

func (c *Config) Validate() error {
	if c.CenterFrequency <= 0 {
		return fmt.Errorf("rtl.Config: center frequency must be positive: %d", c.CenterFrequency)
	}
	if c.SampleRate < SampleRateMin || c.SampleRate > SampleRateMax {
		return fmt.Errorf("rtl.Config: sample rate must be between %d and %d: %d given", SampleRateMin, SampleRateMax, c.SampleRate)
	}
	if c.DeviceIndex < 0 {
		return fmt.Errorf("rtl.Config: device index must not be negative: %d", c.DeviceIndex)
	}
	return nil
}

// Args returns the command line arguments for `rtl_sdr`.
// See `man rtl_sdr` for more information.
func (c *Config) Args() ([]string, error) {
	resolved := (*c).WithDefaults()
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"-f", strconv.FormatInt(resolved.CenterFrequency, 10),
		"-s", strconv.FormatInt(resolved.SampleRate, 10),
		"-d", strconv.Itoa(resolved.DeviceIndex),
	}

	if resolved.Gain > 0 {
		args = append(args, "-g", strconv.Itoa(resolved.Gain))
	}

	if resolved.PPMError != 0 {
		args = append(args, "-p", strconv.Itoa(resolved.PPMError))
	}

	if resolved.BiasTee {
		args = append(args, "-T")
	}

	args = append(args, "-") // dump raw samples to stdout

	return args, nil
}

func (c *Config) String() string {
	args, err := c.Args()
	if err != nil {
		return fmt.Sprintf("rtl.Config: failed to build args: %s", err)
	}
	return fmt.Sprintf("%s %s", Runtime, strings.Join(args, " "))
}
