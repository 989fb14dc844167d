package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View represents a query for entities with a specific combination of components
// The type T should be a struct with embedded pointer fields for each component type
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
type View[T any] struct {
	scene       *Scene
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
}

// NewView creates a new view for the given struct type
// The struct T should have embedded or named fields that are pointers to component types
// Embedded fields are always required
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
func NewView[T any](scene *Scene) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	types := make([]reflect.Type, 0, structType.NumField())
	optional := make([]bool, 0, structType.NumField())
	fieldOffset := make([]uintptr, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		types = append(types, fieldType.Elem())
		fieldOffset = append(fieldOffset, field.Offset)

		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}
		optional = append(optional, isOptional)
	}

	return &View[T]{
		scene:       scene,
		types:       types,
		optional:    optional,
		fieldOffset: fieldOffset,
	}
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	ok := false
	v.scene.Read(func(tx ReadTx) {
		ok = v.fill(tx, id, unsafe.Pointer(ptr))
	})
	return ok
}

func (v *View[T]) fill(tx ReadTx, id EntityId, structPtr unsafe.Pointer) bool {
	if !tx.EntityExists(id) {
		return false
	}
	for i, componentType := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		component := tx.Component(id, componentType)
		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		*(*unsafe.Pointer)(fieldPtr) = componentPointer(component)
	}
	return true
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetEntity is Get for an Entity handle.
func (v *View[T]) GetEntity(e Entity) *T {
	if e.scene != v.scene {
		return nil
	}
	return v.Get(e.id)
}

// driver returns the index of the first required type, whose pool bounds the search.
func (v *View[T]) driver() int {
	for i := range v.types {
		if !v.optional[i] {
			return i
		}
	}
	return -1
}

// collect gathers every matching entity and its populated view under one read lock.
func (v *View[T]) collect(ids *[]EntityId, values *[]T) {
	v.scene.Read(func(tx ReadTx) {
		var candidates iter.Seq[EntityId]
		if d := v.driver(); d >= 0 {
			pool := tx.s.pools[v.types[d]]
			if pool == nil {
				return
			}
			candidates = pool.Iter()
		} else {
			candidates = func(yield func(EntityId) bool) {
				for _, id := range tx.activeEntities() {
					if !yield(id) {
						return
					}
				}
			}
		}

		var result T
		resultPtr := unsafe.Pointer(&result)
		for id := range candidates {
			if !v.fill(tx, id, resultPtr) {
				continue
			}
			*ids = append(*ids, id)
			*values = append(*values, result)
		}
	})
}

// Iter returns an iterator over all entities that have all the required components for this view
// The iterator yields (EntityId, T) pairs where T is the populated view struct
// Optional components are set to nil if not present
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var ids []EntityId
		var values []T
		v.collect(&ids, &values)
		for i := range ids {
			if !yield(ids[i], values[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entity IDs)
// This is useful when you only care about the component data, not which entity it belongs to
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with components copied from the view struct
func (v *View[T]) Spawn(data T) EntityId {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	for i, componentType := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}

		component := reflect.NewAt(componentType, componentPtr).Elem().Interface()
		components = append(components, component)
	}

	return v.scene.Spawn(components...)
}
