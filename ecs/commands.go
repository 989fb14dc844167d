package ecs

import "reflect"

// Commands provides a buffer for deferred scene operations that are executed at the end of a frame.
// This prevents structural changes to the scene while systems iterate query snapshots.
type Commands struct {
	spawns   []spawnCommand
	destroys []EntityId
	adds     []addComponentCommand
	removes  []removeComponentCommand
	parents  []setParentCommand
	defers   []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

type setParentCommand struct {
	child, parent EntityId
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Destroy queues the destruction of an entity and its descendants.
func (c *Commands) Destroy(entity EntityId) {
	c.destroys = append(c.destroys, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// SetParent queues a reparent. Rejections are logged by the scene when flushed.
func (c *Commands) SetParent(child, parent EntityId) {
	c.parents = append(c.parents, setParentCommand{child: child, parent: parent})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.parents) + len(c.defers)
}

// Flush applies all commands to the scene, resetting the buffer state. Destroys run
// first; operations targeting an entity that no longer exists are dropped.
func (c *Commands) Flush(scene *Scene) {
	for _, cmd := range c.destroys {
		scene.DestroyEntity(cmd)
	}

	for _, cmd := range c.removes {
		scene.RemoveComponent(cmd.entity, cmd.compType)
	}

	for _, cmd := range c.adds {
		// ErrEntityNotFound just means the target was destroyed earlier in the frame
		_ = scene.AddComponent(cmd.entity, cmd.component)
	}

	for _, cmd := range c.parents {
		scene.SetParent(cmd.child, cmd.parent)
	}

	for _, cmd := range c.spawns {
		scene.Spawn(cmd.components...)
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.spawns = c.spawns[:0]
	c.destroys = c.destroys[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.parents = c.parents[:0]
	c.defers = c.defers[:0]
}
