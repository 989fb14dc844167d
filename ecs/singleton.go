package ecs

import (
	"reflect"
	"unsafe"
)

// Singleton provides efficient access to a single value that is not associated with
// any entity. Use this for scene-wide state such as input or game settings.
type Singleton[T any] struct {
	scene         *Scene
	componentPtr  unsafe.Pointer
	componentType reflect.Type
}

// NewSingleton creates a new Singleton accessor for the given scene.
// If initializer is provided and the singleton doesn't exist yet,
// it will be created with the initializer value. Otherwise, a zero value is used.
// This guarantees the singleton exists in the scene after the call.
func NewSingleton[T any](scene *Scene, initializer ...T) *Singleton[T] {
	componentType := reflect.TypeFor[T]()

	entry := scene.getSingletonEntry(componentType)
	if entry == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		scene.AddSingleton(value)
		entry = scene.getSingletonEntry(componentType)
	}

	return &Singleton[T]{
		scene:         scene,
		componentPtr:  entry.dataPtr,
		componentType: componentType,
	}
}

// Init initializes the Singleton with a scene reference.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(scene *Scene) {
	s.scene = scene
	s.componentType = reflect.TypeFor[T]()
	s.updateCache()
}

// Get returns a pointer to the singleton value.
// Returns nil if the singleton has not been added to the scene.
func (s *Singleton[T]) Get() *T {
	if s.componentPtr == nil {
		s.updateCache()
	}
	if s.componentPtr == nil {
		return nil
	}
	return (*T)(s.componentPtr)
}

func (s *Singleton[T]) updateCache() {
	if s.scene == nil {
		return
	}
	if entry := s.scene.getSingletonEntry(s.componentType); entry != nil {
		s.componentPtr = entry.dataPtr
	} else {
		s.componentPtr = nil
	}
}

// Exists returns true if the singleton has been added to the scene
func (s *Singleton[T]) Exists() bool {
	if s.componentPtr == nil {
		s.updateCache()
	}
	return s.componentPtr != nil
}
