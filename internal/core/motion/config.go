package motion

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultVelocityDamping = 10.0
	DefaultAcceleration    = 10.0
	DefaultReboundFactor   = 2.1
)

var ErrInvalidConfig = errors.New("invalid motion config")

// Config holds integrator tuning.
type Config struct {
	// VelocityDamping is the exponential decay rate of velocity per second.
	VelocityDamping float64 `yaml:"velocity_damping"`
	// Acceleration is the velocity gained per second of held intent.
	Acceleration float64 `yaml:"acceleration"`
	// ReboundFactor scales the counter-move applied after a collision. Above 2
	// the camera ends up behind where the tick started.
	ReboundFactor float64 `yaml:"rebound_factor"`
}

func DefaultConfig() Config {
	return Config{
		VelocityDamping: DefaultVelocityDamping,
		Acceleration:    DefaultAcceleration,
		ReboundFactor:   DefaultReboundFactor,
	}
}

func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, name, v)
		}
		return nil
	}
	if err := check("velocity_damping", c.VelocityDamping); err != nil {
		return err
	}
	if err := check("acceleration", c.Acceleration); err != nil {
		return err
	}
	if err := check("rebound_factor", c.ReboundFactor); err != nil {
		return err
	}
	if c.ReboundFactor == 0 {
		return fmt.Errorf("%w: rebound_factor must be positive", ErrInvalidConfig)
	}
	return nil
}

// Rebounds reports whether a collision pushes the camera back past its
// starting point rather than leaving it partway into the move.
func (c Config) Rebounds() bool {
	return c.ReboundFactor > 2
}
