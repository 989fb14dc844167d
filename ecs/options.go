package ecs

import "go.uber.org/zap"

const (
	// DefaultHierarchyWarnDepth is the ancestor depth past which a walk logs a one-time warning.
	DefaultHierarchyWarnDepth = 100
	// DefaultMaxHierarchyDepth is the hard stop for every ancestor walk.
	DefaultMaxHierarchyDepth = 1000
	// DefaultMaxAwakeIterations caps how many rounds of newly created entities one Update will wake.
	DefaultMaxAwakeIterations = 100
)

// SceneOption configures a Scene.
type SceneOption func(*Scene)

// WithLogger sets the scene's logger. The default discards everything.
func WithLogger(log *zap.Logger) SceneOption {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHierarchyLimits overrides the soft warning depth and the hard maximum depth of
// hierarchy walks. Non-positive values keep the defaults.
func WithHierarchyLimits(warnDepth, maxDepth int) SceneOption {
	return func(s *Scene) {
		if warnDepth > 0 {
			s.warnDepth = warnDepth
		}
		if maxDepth > 0 {
			s.maxDepth = maxDepth
		}
	}
}

// WithMaxAwakeIterations overrides DefaultMaxAwakeIterations.
func WithMaxAwakeIterations(n int) SceneOption {
	return func(s *Scene) {
		if n > 0 {
			s.maxAwakeIterations = n
		}
	}
}

// RegistryOption configures a ComponentRegistry.
type RegistryOption func(*ComponentRegistry)

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(log *zap.Logger) RegistryOption {
	return func(r *ComponentRegistry) {
		if log != nil {
			r.log = log
		}
	}
}
