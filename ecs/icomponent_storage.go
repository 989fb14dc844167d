package ecs

import "iter"

// iComponentStorage is the type-erased view of one component pool. Pools are keyed
// by entity; storage slots are an implementation detail.
type iComponentStorage interface {
	Add(id EntityId, item any) any
	Get(id EntityId) any
	Has(id EntityId) bool
	Delete(id EntityId) bool
	Len() int
	Iter() iter.Seq[EntityId]
	Compact()
}
