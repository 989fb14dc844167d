package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// ComponentRegistry is the single source of truth for which component types exist,
// the order they serialize and dispatch in, and how to operate on one given only an
// entity and a type name. Registration happens during an app-controlled startup
// phase; the first dispatch or serialize call finalizes the registry and from then
// on it is immutable.
type ComponentRegistry struct {
	mu         sync.RWMutex
	factories  map[reflect.Type]func() iComponentStorage
	metaByName map[string]*ComponentMeta
	metaByType map[reflect.Type]*ComponentMeta
	registered []*ComponentMeta
	sorted     []*ComponentMeta
	finalize   sync.Once
	finalized  atomic.Bool
	log        *zap.Logger
}

// NewComponentRegistry creates a new component registry. TransformComponent is
// registered up front under "Transform" since every scene entity carries one.
func NewComponentRegistry(opts ...RegistryOption) *ComponentRegistry {
	r := &ComponentRegistry{
		factories:  make(map[reflect.Type]func() iComponentStorage),
		metaByName: make(map[string]*ComponentMeta),
		metaByType: make(map[reflect.Type]*ComponentMeta),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	RegisterComponent[TransformComponent](r, TransformTypeName)
	return r
}

// RegisterComponent registers component type T under name. Every component gets
// create/has/remove/serialize/deserialize operations; lifecycle hooks are bound
// only when *T implements them.
//
// Registering the same name or type twice, or registering after the registry has
// been finalized, is a programmer error and panics.
func RegisterComponent[T any](r *ComponentRegistry, name string) *ComponentMeta {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized.Load() {
		panic(fmt.Sprintf("component %q registered after the registry was finalized", name))
	}
	if _, dup := r.metaByName[name]; dup {
		panic(fmt.Sprintf("component name %q registered twice", name))
	}
	if existing, dup := r.metaByType[t]; dup {
		panic(fmt.Sprintf("component type %s already registered as %q", t, existing.Name))
	}

	meta := newComponentMeta[T](name, SerializationOrder(name), len(r.registered))
	r.metaByName[name] = meta
	r.metaByType[t] = meta
	r.registered = append(r.registered, meta)
	r.factories[t] = func() iComponentStorage {
		return newGenericComponentStorage[T]()
	}
	return meta
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[t]
}

const (
	genericBlockSize = 64
)

// genericComponentStorage stores components of type T in fixed-size blocks. Blocks are
// heap allocated individually so pointers handed out stay put when the pool grows;
// they only move on Compact.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	owners    []EntityId
	freeSlots []int
	nextIndex int
	bySlot    *intmap.Map[uint32, int]
}

func newGenericComponentStorage[T any]() *genericComponentStorage[T] {
	return &genericComponentStorage[T]{
		bySlot: intmap.New[uint32, int](64),
	}
}

func (cs *genericComponentStorage[T]) ptr(index int) *T {
	return &cs.blocks[index/genericBlockSize][index%genericBlockSize]
}

// slotOf returns the storage slot holding id's component, or -1.
func (cs *genericComponentStorage[T]) slotOf(id EntityId) int {
	index, ok := cs.bySlot.Get(id.Index())
	if !ok || cs.owners[index] != id {
		return -1
	}
	return index
}

// Add stores item (a T, a *T, or nil for the zero value) for id and returns a *T.
// Returns nil when item has the wrong type.
func (cs *genericComponentStorage[T]) Add(id EntityId, item any) any {
	var concreteItem T
	switch v := item.(type) {
	case nil:
	case *T:
		concreteItem = *v
	case T:
		concreteItem = v
	default:
		return nil
	}
	return cs.add(id, concreteItem)
}

func (cs *genericComponentStorage[T]) add(id EntityId, item T) *T {
	if index := cs.slotOf(id); index >= 0 {
		p := cs.ptr(index)
		*p = item
		return p
	}

	var index int
	if len(cs.freeSlots) > 0 {
		index = cs.freeSlots[len(cs.freeSlots)-1]
		cs.freeSlots = cs.freeSlots[:len(cs.freeSlots)-1]
		cs.owners[index] = id
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
		}
		cs.owners = append(cs.owners, id)
	}

	cs.bySlot.Put(id.Index(), index)
	p := cs.ptr(index)
	*p = item
	return p
}

// Get returns a *T for id, or nil.
func (cs *genericComponentStorage[T]) Get(id EntityId) any {
	if p := cs.get(id); p != nil {
		return p
	}
	return nil
}

func (cs *genericComponentStorage[T]) get(id EntityId) *T {
	index := cs.slotOf(id)
	if index < 0 {
		return nil
	}
	return cs.ptr(index)
}

func (cs *genericComponentStorage[T]) Has(id EntityId) bool {
	return cs.slotOf(id) >= 0
}

// Delete zeroes the slot and returns it to the free list.
func (cs *genericComponentStorage[T]) Delete(id EntityId) bool {
	index := cs.slotOf(id)
	if index < 0 {
		return false
	}
	var zero T
	*cs.ptr(index) = zero
	cs.owners[index] = InvalidEntityId
	cs.freeSlots = append(cs.freeSlots, index)
	cs.bySlot.Del(id.Index())
	return true
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.nextIndex - len(cs.freeSlots)
}

// Compact reorganizes component storage to remove empty slots.
func (cs *genericComponentStorage[T]) Compact() {
	total := cs.Len()
	if total == 0 {
		cs.blocks = nil
		cs.owners = nil
		cs.freeSlots = nil
		cs.nextIndex = 0
		cs.bySlot.Clear()
		return
	}

	numNewBlocks := (total + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([]*[genericBlockSize]T, numNewBlocks)
	for i := range newBlocks {
		newBlocks[i] = new([genericBlockSize]T)
	}
	newOwners := make([]EntityId, 0, total)

	cs.bySlot.Clear()
	writePos := 0
	for readIdx := 0; readIdx < cs.nextIndex; readIdx++ {
		owner := cs.owners[readIdx]
		if !owner.IsValid() {
			continue
		}
		newBlocks[writePos/genericBlockSize][writePos%genericBlockSize] = *cs.ptr(readIdx)
		newOwners = append(newOwners, owner)
		cs.bySlot.Put(owner.Index(), writePos)
		writePos++
	}

	cs.blocks = newBlocks
	cs.owners = newOwners
	cs.freeSlots = nil
	cs.nextIndex = writePos
}

// Iter yields the owning entity of every live component in storage order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			if owner := cs.owners[i]; owner.IsValid() {
				if !yield(owner) {
					return
				}
			}
		}
	}
}
