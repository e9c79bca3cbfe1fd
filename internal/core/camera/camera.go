package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/physics"
)

const DefaultSensitivity = 0.002

var (
	worldUp    = mgl64.Vec3{0, 1, 0}
	localRight = mgl64.Vec3{1, 0, 0}
)

// FirstPerson is a yaw/pitch camera driven by relative moves, in the manner of
// pointer-lock controls: forward motion stays on the horizontal plane no matter
// where the camera looks.
type FirstPerson struct {
	mu          sync.RWMutex
	position    mgl64.Vec3
	yaw         float64
	pitch       float64
	sensitivity float64
}

type Option func(*FirstPerson)

func WithSensitivity(s float64) Option {
	return func(c *FirstPerson) {
		if s > 0 {
			c.sensitivity = s
		}
	}
}

// WithRotation sets the initial yaw and pitch in radians.
func WithRotation(yaw, pitch float64) Option {
	return func(c *FirstPerson) {
		c.yaw = yaw
		c.pitch = clampPitch(pitch)
	}
}

func New(position mgl64.Vec3, opts ...Option) *FirstPerson {
	c := &FirstPerson{position: position, sensitivity: DefaultSensitivity}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MoveForward moves along the horizontal forward axis.
func (c *FirstPerson) MoveForward(distance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	forward := worldUp.Cross(c.rightLocked())
	c.position = c.position.Add(forward.Mul(distance))
}

// MoveRight moves along the camera's right axis.
func (c *FirstPerson) MoveRight(distance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.position.Add(c.rightLocked().Mul(distance))
}

// Look applies a pointer movement delta. Pitch is clamped to straight up/down.
func (c *FirstPerson) Look(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw -= dx * c.sensitivity
	c.pitch = clampPitch(c.pitch - dy*c.sensitivity)
}

func (c *FirstPerson) Pose() physics.Pose {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return physics.Pose{Position: c.position, Orientation: c.orientationLocked()}
}

func (c *FirstPerson) Position() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *FirstPerson) SetPosition(p mgl64.Vec3) {
	c.mu.Lock()
	c.position = p
	c.mu.Unlock()
}

// Rotation returns yaw and pitch in radians.
func (c *FirstPerson) Rotation() (yaw, pitch float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.yaw, c.pitch
}

// Forward returns the full view direction including pitch.
func (c *FirstPerson) Forward() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orientationLocked().Rotate(mgl64.Vec3{0, 0, -1})
}

// orientation is yaw about world Y followed by pitch about local X.
func (c *FirstPerson) orientationLocked() mgl64.Quat {
	return mgl64.QuatRotate(c.yaw, worldUp).Mul(mgl64.QuatRotate(c.pitch, localRight))
}

func (c *FirstPerson) rightLocked() mgl64.Vec3 {
	return c.orientationLocked().Rotate(localRight)
}

func clampPitch(p float64) float64 {
	const limit = math.Pi / 2
	return math.Max(-limit, math.Min(limit, p))
}
