package motion

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/core/physics"
)

// TickResult summarises what one tick did.
type TickResult struct {
	// Active is false when the tick was skipped because the integrator is unlocked.
	Active bool
	DT     float64
	// Forward and Right are the net distances commanded along the camera axes,
	// rebound included.
	Forward  float64
	Right    float64
	Collided bool
	Velocity mgl64.Vec3
}

// Stats are running counters since construction.
type Stats struct {
	Ticks      uint64
	Collisions uint64
}

// Integrator turns held intent and elapsed time into damped camera motion and
// undoes a move, with overshoot, when the detector reports a collision.
//
// Tick and Update must be called from one goroutine. SetLocked may be called
// from anywhere.
type Integrator struct {
	cfg      Config
	intent   Intent
	camera   Camera
	detector Detector
	clock    Clock
	logger   log.Log

	locked atomic.Bool

	mu        sync.Mutex
	velocity  mgl64.Vec3
	direction mgl64.Vec3
	prevTime  time.Time

	ticks      atomic.Uint64
	collisions atomic.Uint64
}

type Option func(*Integrator)

func WithClock(c Clock) Option {
	return func(i *Integrator) {
		if c != nil {
			i.clock = c
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(i *Integrator) {
		if l != nil {
			i.logger = l
		}
	}
}

func NewIntegrator(cfg Config, intent Intent, camera Camera, detector Detector, opts ...Option) *Integrator {
	i := &Integrator{
		cfg:      cfg,
		intent:   intent,
		camera:   camera,
		detector: detector,
		clock:    SystemClock,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.prevTime = i.clock.Now()
	return i
}

func (i *Integrator) Config() Config { return i.cfg }

func (i *Integrator) Locked() bool { return i.locked.Load() }

// SetLocked gates the simulation. Locking restarts the elapsed-time clock so
// the first tick after a pause does not integrate the whole pause.
func (i *Integrator) SetLocked(locked bool) {
	if i.locked.Swap(locked) == locked {
		return
	}
	if locked {
		i.mu.Lock()
		i.prevTime = i.clock.Now()
		i.mu.Unlock()
	}
	i.logger.Debug("lock state changed", log.Bool("locked", locked))
}

func (i *Integrator) Velocity() mgl64.Vec3 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.velocity
}

// SetVelocity overrides the current velocity, e.g. when teleporting.
func (i *Integrator) SetVelocity(v mgl64.Vec3) {
	i.mu.Lock()
	i.velocity = v
	i.mu.Unlock()
}

func (i *Integrator) Stats() Stats {
	return Stats{Ticks: i.ticks.Load(), Collisions: i.collisions.Load()}
}

// Update derives the elapsed time from the clock and runs one tick.
func (i *Integrator) Update() TickResult {
	if !i.Locked() {
		return TickResult{}
	}
	now := i.clock.Now()
	i.mu.Lock()
	dt := now.Sub(i.prevTime).Seconds()
	i.mu.Unlock()

	res := i.Tick(dt)

	i.mu.Lock()
	i.prevTime = now
	i.mu.Unlock()
	return res
}

// Tick advances the simulation by dt seconds. It does nothing while unlocked.
func (i *Integrator) Tick(dt float64) TickResult {
	if !i.Locked() {
		return TickResult{}
	}
	i.ticks.Add(1)
	if !(dt > 0) || math.IsInf(dt, 0) {
		return TickResult{Active: true, Velocity: i.Velocity()}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// damp first, clamped so decay alone never reverses the velocity
	decay := math.Min(i.cfg.VelocityDamping*dt, 1)
	i.velocity[0] -= i.velocity[0] * decay
	i.velocity[2] -= i.velocity[2] * decay

	dx, dz := i.intent.Intent()
	i.direction[0], i.direction[2] = physics.Normalize2(float64(dx), float64(dz))

	if dz != 0 {
		i.velocity[2] -= i.direction[2] * i.cfg.Acceleration * dt
	}
	if dx != 0 {
		i.velocity[0] -= i.direction[0] * i.cfg.Acceleration * dt
	}

	// velocity points opposite to the displacement
	right := -i.velocity[0] * dt
	forward := -i.velocity[2] * dt
	i.camera.MoveRight(right)
	i.camera.MoveForward(forward)

	res := TickResult{Active: true, DT: dt}
	if i.detector != nil && i.detector.Test(i.camera.Pose()) {
		backRight := i.velocity[0] * dt * i.cfg.ReboundFactor
		backForward := i.velocity[2] * dt * i.cfg.ReboundFactor
		i.camera.MoveRight(backRight)
		i.camera.MoveForward(backForward)
		right += backRight
		forward += backForward
		res.Collided = true
		i.collisions.Add(1)
		i.logger.Debug("collision rebound",
			log.Float64("forward", forward),
			log.Float64("right", right),
			log.Float64("dt", dt),
		)
	}

	res.Forward = forward
	res.Right = right
	res.Velocity = i.velocity
	return res
}
