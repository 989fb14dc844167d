package ecs

import "fmt"

// EntityId encodes the slot index (lower 32 bits) and the slot generation (upper 32 bits).
// Generations start at 1, so the zero value is never issued and doubles as InvalidEntityId.
type EntityId uint64

// InvalidEntityId is the sentinel for "no entity" (no parent, no camera, ...).
const InvalidEntityId EntityId = 0

// InvalidIndex marks a missing file-local index in serialized scenes.
const InvalidIndex uint32 = 0xFFFFFFFF

// NewEntityId creates an EntityId from a slot index and generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

// IsValid reports whether the id could refer to an entity. It says nothing about
// liveness: use Scene.EntityExists for that.
func (e EntityId) IsValid() bool {
	return e != InvalidEntityId
}

func (e EntityId) String() string {
	if !e.IsValid() {
		return "entity(invalid)"
	}
	return fmt.Sprintf("entity(%d:%d)", e.Index(), e.Generation())
}

// Entity is a lightweight handle pairing an EntityId with the Scene that issued it.
// It carries no ownership; every operation revalidates the id against the scene.
type Entity struct {
	scene *Scene
	id    EntityId
}

// NewEntity wraps an id for the given scene.
func NewEntity(scene *Scene, id EntityId) Entity {
	return Entity{scene: scene, id: id}
}

func (e Entity) ID() EntityId  { return e.id }
func (e Entity) Scene() *Scene { return e.scene }

// Exists reports whether the entity is still alive in its scene.
func (e Entity) Exists() bool {
	return e.scene != nil && e.scene.EntityExists(e.id)
}

// Name returns the entity's display name, or "" if it no longer exists.
func (e Entity) Name() string {
	if e.scene == nil {
		return ""
	}
	return e.scene.EntityName(e.id)
}

// Transform returns the entity's TransformComponent, or nil.
func (e Entity) Transform() *TransformComponent {
	if e.scene == nil {
		return nil
	}
	return GetComponent[TransformComponent](e)
}
