package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/fpnav/internal/config"
	"github.com/zeusync/fpnav/internal/core/camera"
	"github.com/zeusync/fpnav/internal/core/collision"
	"github.com/zeusync/fpnav/internal/core/events"
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/input"
	"github.com/zeusync/fpnav/internal/core/motion"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/core/physics"
)

const source = "session"

// Session wires input, camera, integrator and collision probes into one
// simulated actor and runs its ticks.
//
// Events from other goroutines go through Submit and are applied at the start
// of the next tick, on the tick goroutine, so a tick never observes half of an
// input burst.
type Session struct {
	id     string
	cfg    config.Config
	logger log.Log

	bus        bus.EventBus
	queue      chan bus.Event
	input      *input.State
	camera     *camera.FirstPerson
	registry   *collision.Registry
	resolver   *collision.Resolver
	integrator *motion.Integrator
	stepper    *motion.Stepper

	tick     atomic.Uint64
	collided atomic.Bool
	running  atomic.Bool
}

type Option func(*options)

type options struct {
	clock motion.Clock
	bus   bus.EventBus
}

// WithClock replaces the wall clock used for clock-driven ticks.
func WithClock(c motion.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithBus shares an event bus with other components.
func WithBus(b bus.EventBus) Option {
	return func(o *options) { o.bus = b }
}

func New(cfg config.Config, logger log.Log, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	o := options{clock: motion.SystemClock}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = bus.New()
	}

	mode, err := cfg.InputMode()
	if err != nil {
		return nil, err
	}
	keyMap, err := cfg.KeyMap()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.With(log.String("session", id))

	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: logger,
		bus:    o.bus,
		queue:  make(chan bus.Event, cfg.Server.QueueSize),
		input:  input.NewState(input.WithMode(mode), input.WithKeyMap(keyMap)),
		camera: camera.New(cfg.StartPosition(),
			camera.WithRotation(cfg.Camera.Yaw, cfg.Camera.Pitch),
			camera.WithSensitivity(cfg.Camera.Sensitivity),
		),
		registry: collision.NewRegistry(logger),
	}
	s.resolver = collision.NewResolver(
		collision.NewBoundingVolume(cfg.Probe.Size, cfg.Probe.Segments),
		s.registry,
		logger,
	)
	s.integrator = motion.NewIntegrator(cfg.Motion, s.input, s.camera, s.resolver,
		motion.WithClock(o.clock),
		motion.WithLogger(logger),
	)
	if cfg.Model == config.ModelStep {
		s.stepper = motion.NewStepper(cfg.StepDistance, s.input, s.camera, s.resolver)
	}

	if err := s.subscribe(); err != nil {
		return nil, err
	}
	if !cfg.Motion.Rebounds() {
		logger.Warn("rebound factor does not clear the obstacle",
			log.Float64("rebound_factor", cfg.Motion.ReboundFactor))
	}
	return s, nil
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Bus() bus.EventBus              { return s.bus }
func (s *Session) Input() *input.State            { return s.input }
func (s *Session) Camera() *camera.FirstPerson    { return s.camera }
func (s *Session) Registry() *collision.Registry  { return s.registry }
func (s *Session) Integrator() *motion.Integrator { return s.integrator }
func (s *Session) Resolver() *collision.Resolver  { return s.resolver }
func (s *Session) Locked() bool                   { return s.integrator.Locked() }

func (s *Session) subscribe() error {
	handlers := map[string]bus.EventHandler{
		events.TypeKey: func(e bus.Event) error {
			k, ok := e.Data().(events.Key)
			if !ok {
				return fmt.Errorf("%w: %T for %s", ErrUnexpectedEvent, e.Data(), e.Type())
			}
			s.input.OnKey(k.Key, k.Pressed)
			return nil
		},
		events.TypeAction: func(e bus.Event) error {
			a, ok := e.Data().(events.Action)
			if !ok {
				return fmt.Errorf("%w: %T for %s", ErrUnexpectedEvent, e.Data(), e.Type())
			}
			s.input.OnKeyAction(a.Action, a.Pressed)
			return nil
		},
		events.TypeLock: func(e bus.Event) error {
			l, ok := e.Data().(events.Lock)
			if !ok {
				return fmt.Errorf("%w: %T for %s", ErrUnexpectedEvent, e.Data(), e.Type())
			}
			s.integrator.SetLocked(l.Locked)
			s.logger.Info("lock changed", log.Bool("locked", l.Locked), log.String("source", e.Source()))
			return nil
		},
		events.TypeLook: func(e bus.Event) error {
			l, ok := e.Data().(events.Look)
			if !ok {
				return fmt.Errorf("%w: %T for %s", ErrUnexpectedEvent, e.Data(), e.Type())
			}
			if s.integrator.Locked() {
				s.camera.Look(l.DX, l.DY)
			}
			return nil
		},
	}
	// fixed order keeps delivery deterministic
	for _, typ := range []string{events.TypeKey, events.TypeAction, events.TypeLock, events.TypeLook} {
		if _, err := s.bus.Subscribe(typ, handlers[typ]); err != nil {
			return err
		}
	}
	return nil
}

// Submit queues an event for the next tick. It never blocks.
func (s *Session) Submit(e bus.Event) error {
	select {
	case s.queue <- e:
		return nil
	default:
		s.logger.Warn("event dropped", log.String("type", e.Type()), log.String("source", e.Source()))
		return ErrQueueFull
	}
}

// AddObstacle registers a collidable. Safe to call from a loader goroutine
// while ticks are running.
func (s *Session) AddObstacle(o collision.Obstacle) bool {
	return s.registry.Register(o)
}

// OnSnapshot subscribes fn to the per-tick snapshot. fn runs on the tick
// goroutine and must not block.
func (s *Session) OnSnapshot(fn func(Snapshot)) (bus.Subscription, error) {
	return s.bus.Subscribe(events.TypeTick, func(e bus.Event) error {
		if snap, ok := e.Data().(Snapshot); ok {
			fn(snap)
		}
		return nil
	})
}

// Advance runs one tick with an explicit elapsed time.
func (s *Session) Advance(dt float64) Snapshot {
	s.drain()
	if s.stepper != nil {
		return s.stepTick()
	}
	return s.integrate(s.integrator.Tick(dt))
}

// Step runs one tick with the elapsed time taken from the clock.
func (s *Session) Step() Snapshot {
	s.drain()
	if s.stepper != nil {
		return s.stepTick()
	}
	return s.integrate(s.integrator.Update())
}

// Run ticks at the configured rate until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	s.logger.Info("session running",
		log.Int("tick_rate", s.cfg.Server.TickRate),
		log.String("model", s.cfg.Model),
	)
	for {
		select {
		case <-ctx.Done():
			stats := s.integrator.Stats()
			s.logger.Info("session stopped",
				log.Uint64("ticks", s.tick.Load()),
				log.Uint64("collisions", stats.Collisions),
			)
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Snapshot reports the current state without ticking.
func (s *Session) Snapshot() Snapshot {
	yaw, pitch := s.camera.Rotation()
	return Snapshot{
		Session:   s.id,
		Tick:      s.tick.Load(),
		Position:  physics.Vec(s.camera.Position()),
		Yaw:       yaw,
		Pitch:     pitch,
		Velocity:  physics.Vec(s.integrator.Velocity()),
		Locked:    s.integrator.Locked(),
		Collided:  s.collided.Load(),
		Obstacles: s.registry.Len(),
	}
}

func (s *Session) drain() {
	for {
		select {
		case e := <-s.queue:
			if err := s.bus.Publish(e); err != nil {
				s.logger.Error("event rejected", log.String("type", e.Type()), log.Error(err))
			}
		default:
			return
		}
	}
}

func (s *Session) stepTick() Snapshot {
	if !s.integrator.Locked() {
		return s.finish(false, false, nil)
	}
	res := s.stepper.Tick()
	return s.finish(true, res.Collided, res)
}

func (s *Session) finish(active, collided bool, result any) Snapshot {
	if active {
		s.tick.Add(1)
		s.collided.Store(collided)
	}
	if collided {
		if err := s.bus.Publish(bus.NewEvent(events.TypeCollision, source, result)); err != nil {
			s.logger.Error("collision handler failed", log.Error(err))
		}
	}
	snap := s.Snapshot()
	if active {
		if err := s.bus.Publish(bus.NewEvent(events.TypeTick, source, snap)); err != nil {
			s.logger.Error("tick handler failed", log.Error(err))
		}
	}
	return snap
}

func (s *Session) integrate(res motion.TickResult) Snapshot {
	return s.finish(res.Active, res.Collided, res)
}
