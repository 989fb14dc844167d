package ecs

import "iter"

// Query wraps a View with a per-frame cache. Execute snapshots every matching entity
// once; systems then iterate the snapshot without touching the scene lock.
type Query[T any] struct {
	view  *View[T]
	scene *Scene

	cachedEntities   []EntityId
	cachedComponents []T
	cacheValid       bool
}

// NewQuery creates a new Query over scene.
func NewQuery[T any](scene *Scene) *Query[T] {
	return &Query[T]{
		view:  NewView[T](scene),
		scene: scene,
	}
}

// Init initializes or re-initializes the Query with a scene.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(scene *Scene) {
	q.view = NewView[T](scene)
	q.scene = scene
	q.cacheValid = false
}

// Execute builds the entity and component caches for this frame.
// Called automatically by the Scheduler before systems run.
func (q *Query[T]) Execute() {
	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]
	q.view.collect(&q.cachedEntities, &q.cachedComponents)
	q.cacheValid = true
}

// Len returns the number of entities matched by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.cachedEntities)
}

// Iter returns an iterator over entity IDs and component data.
// Panics if Execute() has not been called this frame.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(EntityId, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
// Panics if Execute() has not been called this frame.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}
