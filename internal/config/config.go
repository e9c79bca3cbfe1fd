package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/collision"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/motion"
	"gopkg.in/yaml.v3"
)

const (
	ModelInertial = "inertial"
	ModelStep     = "step"
)

// MaxTickRate keeps the tick interval at a millisecond or longer.
const MaxTickRate = 1000

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrReadConfig    = errors.New("failed to read configuration")
)

// Config is the full runtime configuration of a navigation session.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// Model picks the motion model: "inertial" (damped velocity) or "step"
	// (fixed distance per tick, no inertia).
	Model        string        `yaml:"model"`
	StepDistance float64       `yaml:"step_distance"`
	Motion       motion.Config `yaml:"motion"`
	Probe        ProbeConfig   `yaml:"probe"`
	Camera       CameraConfig  `yaml:"camera"`
	Input        InputConfig   `yaml:"input"`
	Server       ServerConfig  `yaml:"server"`
	// Scene is the path of the obstacle scene file, if any.
	Scene string `yaml:"scene"`
}

type ProbeConfig struct {
	Size     float64 `yaml:"size"`
	Segments int     `yaml:"segments"`
}

type CameraConfig struct {
	Position    [3]float64 `yaml:"position"`
	Yaw         float64    `yaml:"yaw"`
	Pitch       float64    `yaml:"pitch"`
	Sensitivity float64    `yaml:"sensitivity"`
}

type InputConfig struct {
	Mode     string              `yaml:"mode"`
	Bindings map[string][]string `yaml:"bindings"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// TickRate is the number of simulation ticks per second.
	TickRate int `yaml:"tick_rate"`
	// BroadcastEvery sends a pose snapshot to clients every n ticks.
	BroadcastEvery int `yaml:"broadcast_every"`
	// QueueSize bounds pending input events between ticks.
	QueueSize    int           `yaml:"queue_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func Default() Config {
	return Config{
		LogLevel:     "info",
		Model:        ModelInertial,
		StepDistance: motion.DefaultStep,
		Motion:       motion.DefaultConfig(),
		Probe: ProbeConfig{
			Size:     collision.DefaultProbeSize,
			Segments: collision.DefaultProbeSegments,
		},
		Camera: CameraConfig{
			Position:    [3]float64{0, 1, 0},
			Sensitivity: 0.002,
		},
		Input: InputConfig{Mode: input.ModeRefCount.String()},
		Server: ServerConfig{
			Addr:           ":8080",
			TickRate:       60,
			BroadcastEvery: 2,
			QueueSize:      256,
			WriteTimeout:   5 * time.Second,
		},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Model != ModelInertial && c.Model != ModelStep {
		return fmt.Errorf("%w: model must be %q or %q", ErrInvalidConfig, ModelInertial, ModelStep)
	}
	if c.Model == ModelStep && c.StepDistance <= 0 {
		return fmt.Errorf("%w: step_distance must be positive", ErrInvalidConfig)
	}
	if err := c.Motion.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Probe.Size <= 0 {
		return fmt.Errorf("%w: probe.size must be positive", ErrInvalidConfig)
	}
	if c.Probe.Segments < 1 || c.Probe.Segments > 16 {
		return fmt.Errorf("%w: probe.segments must be in [1, 16]", ErrInvalidConfig)
	}
	if c.Camera.Sensitivity < 0 {
		return fmt.Errorf("%w: camera.sensitivity must not be negative", ErrInvalidConfig)
	}
	if _, err := c.InputMode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.KeyMap(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Server.TickRate <= 0 || c.Server.TickRate > MaxTickRate {
		return fmt.Errorf("%w: server.tick_rate must be in [1, %d]", ErrInvalidConfig, MaxTickRate)
	}
	if c.Server.BroadcastEvery < 1 {
		return fmt.Errorf("%w: server.broadcast_every must be at least 1", ErrInvalidConfig)
	}
	if c.Server.QueueSize < 1 {
		return fmt.Errorf("%w: server.queue_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func (c Config) InputMode() (input.Mode, error) {
	return input.ParseMode(c.Input.Mode)
}

// KeyMap returns the configured bindings, or the default arrows+WASD map when
// none are configured.
func (c Config) KeyMap() (input.KeyMap, error) {
	if len(c.Input.Bindings) == 0 {
		return input.DefaultKeyMap(), nil
	}
	return input.ParseKeyMap(c.Input.Bindings)
}

func (c Config) StartPosition() mgl64.Vec3 {
	return mgl64.Vec3(c.Camera.Position)
}

// TickInterval is the wall-clock period of one simulation tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Server.TickRate)
}
