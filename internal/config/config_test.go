package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/motion"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, motion.DefaultConfig(), cfg.Motion)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, cfg.StartPosition())
	assert.Equal(t, time.Second/60, cfg.TickInterval())

	km, err := cfg.KeyMap()
	require.NoError(t, err)
	assert.Equal(t, input.DefaultKeyMap().Len(), km.Len())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
log_level: debug
motion:
  rebound_factor: 3
probe:
  segments: 4
input:
  mode: latch
  bindings:
    forward: [KeyI]
    backward: [KeyK]
    left: [KeyJ]
    right: [KeyL]
server:
  tick_rate: 30
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3.0, cfg.Motion.ReboundFactor)
	assert.Equal(t, motion.DefaultAcceleration, cfg.Motion.Acceleration)
	assert.Equal(t, 4, cfg.Probe.Segments)
	assert.Equal(t, 1.2, cfg.Probe.Size)

	mode, err := cfg.InputMode()
	require.NoError(t, err)
	assert.Equal(t, input.ModeLatch, mode)

	km, err := cfg.KeyMap()
	require.NoError(t, err)
	assert.Equal(t, input.ActionForward, km.Lookup("KeyI"))
	assert.Equal(t, input.ActionNone, km.Lookup("KeyW"))
}

func TestParseEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestTickRateBounds(t *testing.T) {
	cfg := Default()
	cfg.Server.TickRate = MaxTickRate
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Millisecond, cfg.TickInterval())

	cfg.Server.TickRate = MaxTickRate + 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "speed: 3\n",
		"negative damping": "motion:\n  velocity_damping: -1\n",
		"zero probe":       "probe:\n  size: 0\n",
		"bad mode":         "input:\n  mode: toggle\n",
		"bad action":       "input:\n  bindings:\n    jump: [Space]\n",
		"zero tick rate":   "server:\n  tick_rate: 0\n",
		"huge tick rate":   "server:\n  tick_rate: 2000000000\n",
		"bad model":        "model: teleport\n",
		"zero step":        "model: step\nstep_distance: 0\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse(strings.NewReader("probe:\n  size: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Parse(strings.NewReader("motion: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scene: gallery.yaml\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gallery.yaml", cfg.Scene)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}
