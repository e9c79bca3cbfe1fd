package motion

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/physics"
)

// recordingCamera sums relative moves along its own axes.
type recordingCamera struct {
	forward, right float64
	moves          int
}

func (c *recordingCamera) MoveForward(d float64) { c.forward += d; c.moves++ }
func (c *recordingCamera) MoveRight(d float64)   { c.right += d; c.moves++ }
func (c *recordingCamera) Pose() physics.Pose {
	p := physics.IdentityPose()
	p.Position = mgl64.Vec3{c.right, 0, -c.forward}
	return p
}

type fixedDetector struct {
	colliding bool
	calls     int
}

func (d *fixedDetector) Test(physics.Pose) bool { d.calls++; return d.colliding }

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newRig(cfg Config, colliding bool) (*Integrator, *input.State, *recordingCamera, *fixedDetector) {
	in := input.NewState()
	cam := &recordingCamera{}
	det := &fixedDetector{colliding: colliding}
	i := NewIntegrator(cfg, in, cam, det)
	i.SetLocked(true)
	return i, in, cam, det
}

func TestUnlockedTickIsNoop(t *testing.T) {
	i, in, cam, det := newRig(DefaultConfig(), true)
	i.SetLocked(false)
	in.OnKeyAction(input.ActionForward, true)

	res := i.Tick(0.1)
	assert.False(t, res.Active)
	assert.Zero(t, cam.moves)
	assert.Zero(t, det.calls)
	assert.Equal(t, mgl64.Vec3{}, i.Velocity())
	assert.Zero(t, i.Stats().Ticks)
}

// Damp, then accelerate: from rest, one forward tick gives
// v.z = 0 - 1*10*0.1 = -1 and a forward move of -v.z*dt = 0.1.
func TestForwardTickFromRest(t *testing.T) {
	i, in, cam, det := newRig(DefaultConfig(), false)
	in.OnKeyAction(input.ActionForward, true)

	res := i.Tick(0.1)
	require.True(t, res.Active)
	assert.InDelta(t, -1.0, i.Velocity().Z(), 1e-12)
	assert.InDelta(t, 0, i.Velocity().X(), 1e-12)
	assert.InDelta(t, 0.1, cam.forward, 1e-12)
	assert.InDelta(t, 0, cam.right, 1e-12)
	assert.Equal(t, 1, det.calls)
	assert.False(t, res.Collided)
	assert.InDelta(t, 0.1, res.Forward, 1e-12)
}

func TestSecondTickDampsBeforeAccelerating(t *testing.T) {
	i, in, cam, _ := newRig(DefaultConfig(), false)
	in.OnKeyAction(input.ActionForward, true)
	i.Tick(0.05)
	// v = -0.5
	i.Tick(0.05)
	// damp: -0.5 - (-0.5*0.5) = -0.25, then -0.5 more
	assert.InDelta(t, -0.75, i.Velocity().Z(), 1e-12)
	assert.InDelta(t, 0.5*0.05+0.75*0.05, cam.forward, 1e-12)
}

func TestLateralSignConvention(t *testing.T) {
	i, in, cam, _ := newRig(DefaultConfig(), false)
	in.OnKeyAction(input.ActionRight, true)
	i.Tick(0.1)
	assert.InDelta(t, -1.0, i.Velocity().X(), 1e-12)
	assert.InDelta(t, 0.1, cam.right, 1e-12)

	j, in2, cam2, _ := newRig(DefaultConfig(), false)
	in2.OnKeyAction(input.ActionBackward, true)
	in2.OnKeyAction(input.ActionLeft, true)
	j.Tick(0.1)
	assert.Less(t, cam2.forward, 0.0)
	assert.Less(t, cam2.right, 0.0)
}

func TestDiagonalSpeedMatchesAxisSpeed(t *testing.T) {
	axis, in, axisCam, _ := newRig(DefaultConfig(), false)
	in.OnKeyAction(input.ActionForward, true)

	diag, in2, diagCam, _ := newRig(DefaultConfig(), false)
	in2.OnKeyAction(input.ActionForward, true)
	in2.OnKeyAction(input.ActionRight, true)

	for n := 0; n < 10; n++ {
		axis.Tick(1.0 / 60)
		diag.Tick(1.0 / 60)
	}
	axisDist := math.Hypot(axisCam.forward, axisCam.right)
	diagDist := math.Hypot(diagCam.forward, diagCam.right)
	assert.InDelta(t, axisDist, diagDist, 1e-12)
	assert.InDelta(t, diagCam.forward, diagCam.right, 1e-12)

	assert.InDelta(t, axis.Velocity().Len(), diag.Velocity().Len(), 1e-12)
}

func TestDampingNeverFlipsSign(t *testing.T) {
	for _, dt := range []float64{0.001, 0.016, 0.05, 0.1, 0.2, 1, 5} {
		i, _, _, _ := newRig(DefaultConfig(), false)
		i.SetVelocity(mgl64.Vec3{3, 0, -4})
		prevX, prevZ := 3.0, -4.0
		for n := 0; n < 20; n++ {
			i.Tick(dt)
			v := i.Velocity()
			assert.GreaterOrEqual(t, v.X(), 0.0, "dt=%v", dt)
			assert.LessOrEqual(t, v.Z(), 0.0, "dt=%v", dt)
			assert.LessOrEqual(t, v.X(), prevX)
			assert.GreaterOrEqual(t, v.Z(), prevZ)
			prevX, prevZ = v.X(), v.Z()
		}
	}
}

func TestNoCollisionKeepsUncorrectedMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityDamping = 0
	i, _, cam, _ := newRig(cfg, false)
	i.SetVelocity(mgl64.Vec3{2, 0, 5})

	res := i.Tick(0.1)
	assert.False(t, res.Collided)
	assert.InDelta(t, -0.5, cam.forward, 1e-12)
	assert.InDelta(t, -0.2, cam.right, 1e-12)
	assert.Equal(t, 2, cam.moves)
}

// With v.z = 5 and dt = 0.1 the move is -0.5, the rebound +1.05, net +0.55.
func TestCollisionReboundOvershoots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityDamping = 0
	i, _, cam, _ := newRig(cfg, true)
	i.SetVelocity(mgl64.Vec3{0, 0, 5})

	res := i.Tick(0.1)
	require.True(t, res.Collided)
	assert.InDelta(t, 0.55, cam.forward, 1e-12)
	assert.InDelta(t, 0.55, res.Forward, 1e-12)
	assert.InDelta(t, -0.5*(1-cfg.ReboundFactor), cam.forward, 1e-12)
	assert.Equal(t, 4, cam.moves)
	assert.Equal(t, uint64(1), i.Stats().Collisions)
	assert.True(t, cfg.Rebounds())
}

func TestZeroOrInvalidElapsedMovesNothing(t *testing.T) {
	i, in, cam, det := newRig(DefaultConfig(), false)
	in.OnKeyAction(input.ActionForward, true)
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		res := i.Tick(dt)
		assert.True(t, res.Active)
	}
	assert.Zero(t, cam.moves)
	assert.Zero(t, det.calls)
}

func TestUpdateUsesClockDelta(t *testing.T) {
	clk := &manualClock{now: time.Unix(100, 0)}
	in := input.NewState()
	in.OnKeyAction(input.ActionForward, true)
	cam := &recordingCamera{}
	i := NewIntegrator(DefaultConfig(), in, cam, nil, WithClock(clk))

	// unlocked: time passes, nothing happens
	clk.Advance(10 * time.Second)
	assert.False(t, i.Update().Active)

	i.SetLocked(true)
	clk.Advance(100 * time.Millisecond)
	res := i.Update()
	require.True(t, res.Active)
	assert.InDelta(t, 0.1, res.DT, 1e-9)
	assert.InDelta(t, 0.1, cam.forward, 1e-9)

	clk.Advance(50 * time.Millisecond)
	res = i.Update()
	assert.InDelta(t, 0.05, res.DT, 1e-9)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{VelocityDamping: -1, Acceleration: 10, ReboundFactor: 2.1},
		{VelocityDamping: 10, Acceleration: math.NaN(), ReboundFactor: 2.1},
		{VelocityDamping: 10, Acceleration: 10, ReboundFactor: 0},
		{VelocityDamping: 10, Acceleration: 10, ReboundFactor: math.Inf(1)},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig, "%+v", c)
	}
	assert.False(t, Config{ReboundFactor: 1.5}.Rebounds())
}
