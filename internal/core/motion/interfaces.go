package motion

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/physics"
)

// Mover is the part of the camera the integrator drives. It only ever issues
// relative moves along the camera's own axes.
type Mover interface {
	MoveForward(distance float64)
	MoveRight(distance float64)
}

// Camera is a Mover that can also report its pose for collision tests.
type Camera interface {
	Mover
	physics.Transform
}

// Body is a freely positioned probe carrier.
type Body interface {
	physics.Transform
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
}

// Detector reports whether a pose penetrates an obstacle.
type Detector interface {
	Test(pose physics.Pose) bool
}

// Intent supplies the pre-normalization (dx, dz) movement intent.
type Intent interface {
	Intent() (dx, dz int)
}

// Actions exposes individual action flags.
type Actions interface {
	Pressed(a input.Action) bool
}

// Clock supplies the time used to derive the per-tick elapsed seconds.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock's monotonic reading.
var SystemClock Clock = ClockFunc(time.Now)

var _ Intent = (*input.State)(nil)
var _ Actions = (*input.State)(nil)
