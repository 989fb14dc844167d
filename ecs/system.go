package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query fields
// for accessing entities, as well as custom state fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(frame *UpdateFrame)

func (f SystemFunc) Execute(frame *UpdateFrame) { f(frame) }

// LifecycleSystem drives the scene's component hooks from a Scheduler. FixedUpdate
// runs on an accumulator in FixedStep increments, at most MaxFixedSteps per frame;
// Update runs once per frame.
type LifecycleSystem struct {
	FixedStep     float64
	MaxFixedSteps int

	accumulator float64
}

func (s *LifecycleSystem) Execute(frame *UpdateFrame) {
	if s.FixedStep > 0 {
		s.accumulator += frame.DeltaTime
		steps := 0
		for s.accumulator >= s.FixedStep {
			if s.MaxFixedSteps > 0 && steps >= s.MaxFixedSteps {
				// drop the backlog rather than spiral
				s.accumulator = 0
				break
			}
			frame.Scene.FixedUpdate(float32(s.FixedStep))
			s.accumulator -= s.FixedStep
			steps++
		}
	}
	frame.Scene.Update(float32(frame.DeltaTime))
}
