package generator

import (
	"errors"
	"fmt"
)

const (
	DefaultDevices int   = 5
	DefaultDays    int   = 7
	DefaultSeed    int64 = 42
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Devices int   `yaml:"devices"`
	Days    int   `yaml:"days"`
	Seed    int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Devices: DefaultDevices,
		Days:    DefaultDays,
		Seed:    DefaultSeed,
	}
}

func (c Config) Validate() error {
	if c.Devices <= 0 {
		return fmt.Errorf("%w: number of devices must be positive, got %d", ErrInvalidConfiguration, c.Devices)
	}
	if c.Days <= 0 {
		return fmt.Errorf("%w: number of days must be positive, got %d", ErrInvalidConfiguration, c.Days)
	}
	return nil
}
