package motion

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/input"
)

const DefaultStep = 0.1

// Stepper moves a body a fixed distance along one world axis per tick, with no
// inertia. Only the highest priority held action counts, in the order forward,
// backward, left, right. On collision the body is pushed back twice the step.
type Stepper struct {
	step     float64
	actions  Actions
	body     Body
	detector Detector
}

// StepResult is the net world displacement of one Stepper tick.
type StepResult struct {
	Action   input.Action
	Delta    mgl64.Vec3
	Collided bool
}

func NewStepper(step float64, actions Actions, body Body, detector Detector) *Stepper {
	if step <= 0 {
		step = DefaultStep
	}
	return &Stepper{step: step, actions: actions, body: body, detector: detector}
}

var stepPriority = [...]struct {
	action input.Action
	dir    mgl64.Vec3
}{
	{input.ActionForward, mgl64.Vec3{0, 0, -1}},
	{input.ActionBackward, mgl64.Vec3{0, 0, 1}},
	{input.ActionLeft, mgl64.Vec3{-1, 0, 0}},
	{input.ActionRight, mgl64.Vec3{1, 0, 0}},
}

func (s *Stepper) Tick() StepResult {
	var res StepResult
	var dir mgl64.Vec3
	for _, p := range stepPriority {
		if s.actions.Pressed(p.action) {
			res.Action, dir = p.action, p.dir
			break
		}
	}

	start := s.body.Position()
	s.body.SetPosition(start.Add(dir.Mul(s.step)))

	// the probe runs even when idle so something moving into the body is seen
	if s.detector != nil && s.detector.Test(s.body.Pose()) {
		res.Collided = true
		s.body.SetPosition(s.body.Position().Sub(dir.Mul(2 * s.step)))
	}
	res.Delta = s.body.Position().Sub(start)
	return res
}
