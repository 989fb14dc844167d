package ecs_test

import (
	"slices"
	"sync"

	"github.com/plus3/scenecore/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

// Custom primitive types for testing non-struct components
type Temperature float64

type Inventory struct {
	Items []string
}

// hookLog records hook calls across components in call order.
type hookLog struct {
	mu     sync.Mutex
	events []string
}

func (l *hookLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *hookLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

func (l *hookLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Tracked implements every lifecycle hook and logs "<Label>:<hook>".
type Tracked struct {
	Label string
	log   *hookLog
}

func (c *Tracked) OnAwake(e ecs.Entity)                  { c.log.add(c.Label + ":awake") }
func (c *Tracked) OnStart(e ecs.Entity)                  { c.log.add(c.Label + ":start") }
func (c *Tracked) OnEnable(e ecs.Entity)                 { c.log.add(c.Label + ":enable") }
func (c *Tracked) OnDisable(e ecs.Entity)                { c.log.add(c.Label + ":disable") }
func (c *Tracked) OnUpdate(e ecs.Entity, dt float32)     { c.log.add(c.Label + ":update") }
func (c *Tracked) OnLateUpdate(e ecs.Entity, dt float32) { c.log.add(c.Label + ":lateupdate") }
func (c *Tracked) OnFixedUpdate(e ecs.Entity, dt float32) {
	c.log.add(c.Label + ":fixedupdate")
}
func (c *Tracked) OnDestroy(e ecs.Entity) { c.log.add(c.Label + ":destroy") }

// DestroyProbe only implements OnDestroy and records whether Tracked was still
// attached when it ran.
type DestroyProbe struct {
	Label string
	log   *hookLog
}

func (c *DestroyProbe) OnDestroy(e ecs.Entity) {
	if ecs.HasComponent[Tracked](e) {
		c.log.add(c.Label + ":destroy+tracked")
		return
	}
	c.log.add(c.Label + ":destroy")
}

func newTestRegistry(opts ...ecs.RegistryOption) *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry(opts...)
	ecs.RegisterComponent[Position](registry, "Position")
	ecs.RegisterComponent[Velocity](registry, "Velocity")
	ecs.RegisterComponent[Name](registry, "Name")
	ecs.RegisterComponent[Health](registry, "Health")
	ecs.RegisterComponent[Temperature](registry, "Temperature")
	ecs.RegisterComponent[Inventory](registry, "Inventory")
	ecs.RegisterComponent[Tracked](registry, "Tracked")
	ecs.RegisterComponent[DestroyProbe](registry, "DestroyProbe")
	return registry
}

func newTestScene(opts ...ecs.SceneOption) *ecs.Scene {
	return ecs.NewScene(newTestRegistry(), opts...)
}

// chain creates n entities, each parented to the previous one, and returns them
// root first.
func chain(scene *ecs.Scene, n int) []ecs.EntityId {
	ids := make([]ecs.EntityId, n)
	for i := range ids {
		ids[i] = scene.CreateEntity("").ID()
		if i > 0 {
			scene.SetParent(ids[i], ids[i-1])
		}
	}
	return ids
}
