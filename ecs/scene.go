package ecs

import (
	"math"
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

type entitySlot struct {
	generation uint32
	alive      bool
	retired    bool
	dying      bool
	name       string
	enabled    bool
	awoken     bool
	started    bool
	transient  bool
	marked     bool
}

type timedDestruction struct {
	id        EntityId
	remaining float32
}

type singletonEntry struct {
	value   reflect.Value
	dataPtr unsafe.Pointer
}

// Scene owns entity slots, one pool per component type, and the single lock that
// guards existence checks, pool access and hierarchy mutation.
//
// Component hooks always run with the lock released, so a hook may freely call
// back into the scene.
type Scene struct {
	mu       sync.RWMutex
	registry *ComponentRegistry
	log      *zap.Logger

	pools    map[reflect.Type]iComponentStorage
	slots    []entitySlot
	freeList []uint32
	count    int

	mainCamera  EntityId
	newEntities []EntityId
	pending     []EntityId
	timed       []timedDestruction
	singletons  map[reflect.Type]*singletonEntry

	warnDepth          int
	maxDepth           int
	maxAwakeIterations int

	warnMu sync.Mutex
	warned map[EntityId]map[string]struct{}
}

// NewScene creates an empty scene backed by registry.
func NewScene(registry *ComponentRegistry, opts ...SceneOption) *Scene {
	s := &Scene{
		registry:           registry,
		log:                zap.NewNop(),
		pools:              make(map[reflect.Type]iComponentStorage),
		singletons:         make(map[reflect.Type]*singletonEntry),
		warnDepth:          DefaultHierarchyWarnDepth,
		maxDepth:           DefaultMaxHierarchyDepth,
		maxAwakeIterations: DefaultMaxAwakeIterations,
		warned:             make(map[EntityId]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the component registry this scene dispatches through.
func (s *Scene) Registry() *ComponentRegistry { return s.registry }

// Logger returns the scene's logger.
func (s *Scene) Logger() *zap.Logger { return s.log }

// ReadTx is proof that the scene's lock is held for reading. It is only valid inside
// the callback that received it.
type ReadTx struct {
	s *Scene
}

// Tx is proof that the scene's lock is held for writing.
type Tx struct {
	ReadTx
}

// Read runs fn with the scene's read lock held. fn must not call locking Scene or
// TransformComponent methods; use the token instead.
func (s *Scene) Read(fn func(tx ReadTx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(ReadTx{s: s})
}

// Write runs fn with the scene's write lock held.
func (s *Scene) Write(fn func(tx Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(Tx{ReadTx{s: s}})
}

// Scene returns the scene the token belongs to.
func (tx ReadTx) Scene() *Scene { return tx.s }

func (tx ReadTx) slot(id EntityId) *entitySlot {
	if !id.IsValid() {
		return nil
	}
	index := id.Index()
	if int(index) >= len(tx.s.slots) {
		return nil
	}
	slot := &tx.s.slots[index]
	if !slot.alive || slot.generation != id.Generation() {
		return nil
	}
	return slot
}

// EntityExists reports whether id refers to a live entity.
func (tx ReadTx) EntityExists(id EntityId) bool {
	return tx.slot(id) != nil
}

// HasComponent reports whether id is alive and has a component of type t.
func (tx ReadTx) HasComponent(id EntityId, t reflect.Type) bool {
	if tx.slot(id) == nil {
		return false
	}
	pool := tx.s.pools[t]
	return pool != nil && pool.Has(id)
}

// Component returns a pointer to id's component of type t, or nil.
func (tx ReadTx) Component(id EntityId, t reflect.Type) any {
	if tx.slot(id) == nil {
		return nil
	}
	pool := tx.s.pools[t]
	if pool == nil {
		return nil
	}
	return pool.Get(id)
}

// addComponent stores comp (a value or a pointer to one) on id, replacing any
// existing component of the same type.
func (tx Tx) addComponent(id EntityId, comp any) any {
	t := reflect.TypeOf(comp)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	pool := tx.s.poolForType(t)

	// replacing a transform keeps the entity's place in the hierarchy
	var parent EntityId
	var children []EntityId
	old, replacing := pool.Get(id).(*TransformComponent)
	if replacing {
		parent, children = old.parent, old.children
	}

	p := pool.Add(id, comp)
	if o, ok := p.(Owned); ok {
		o.SetOwner(NewEntity(tx.s, id))
	}
	if nt, ok := p.(*TransformComponent); ok && replacing {
		nt.parent, nt.children = parent, children
	}
	return p
}

// removeComponent deletes id's component of type t. A transform is unlinked from
// the hierarchy first.
func (tx Tx) removeComponent(id EntityId, t reflect.Type) bool {
	pool := tx.s.pools[t]
	if pool == nil || !pool.Has(id) {
		return false
	}
	if t == transformType {
		tx.SetParent(id, InvalidEntityId)
		tx.DetachAllChildren(id)
	}
	return pool.Delete(id)
}

// poolForType returns the pool for t, creating it from the registry's factory. The
// write lock must be held. Panics for unregistered types.
func (s *Scene) poolForType(t reflect.Type) iComponentStorage {
	if pool, ok := s.pools[t]; ok {
		return pool
	}
	factory := s.registry.getFactory(t)
	if factory == nil {
		panic("component type not registered: " + t.String())
	}
	pool := factory()
	s.pools[t] = pool
	return pool
}

// createEntity allocates a slot and attaches a default TransformComponent.
func (tx Tx) createEntity(name string) EntityId {
	s := tx.s
	var index uint32
	if n := len(s.freeList); n > 0 {
		index = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
	} else {
		index = uint32(len(s.slots))
		s.slots = append(s.slots, entitySlot{})
	}

	slot := &s.slots[index]
	slot.generation++
	*slot = entitySlot{
		generation: slot.generation,
		alive:      true,
		name:       name,
		enabled:    true,
	}
	id := NewEntityId(index, slot.generation)
	s.count++
	s.newEntities = append(s.newEntities, id)

	tx.addComponent(id, TransformComponent{})
	return id
}

// freeEntity releases id's slot. Slots whose generation would wrap are retired.
func (tx Tx) freeEntity(id EntityId) {
	slot := tx.slot(id)
	if slot == nil {
		return
	}
	for _, pool := range tx.s.pools {
		pool.Delete(id)
	}
	if tx.s.mainCamera == id {
		tx.s.mainCamera = InvalidEntityId
	}
	tx.s.forgetWarnings(id)
	generation := slot.generation
	*slot = entitySlot{generation: generation}
	tx.s.count--
	if generation == math.MaxUint32 {
		slot.retired = true
		return
	}
	tx.s.freeList = append(tx.s.freeList, id.Index())
}

// CreateEntity creates an enabled entity carrying a default TransformComponent.
func (s *Scene) CreateEntity(name string) Entity {
	var id EntityId
	s.Write(func(tx Tx) {
		id = tx.createEntity(name)
	})
	return NewEntity(s, id)
}

// Spawn creates an unnamed entity with the provided components in addition to its
// TransformComponent. A TransformComponent in components replaces the default one.
// Panics if any component type is not registered.
func (s *Scene) Spawn(components ...any) EntityId {
	var id EntityId
	s.Write(func(tx Tx) {
		id = tx.createEntity("")
		for _, comp := range components {
			tx.addComponent(id, comp)
		}
	})
	return id
}

// EntityExists reports whether id refers to a live entity.
func (s *Scene) EntityExists(id EntityId) bool {
	var ok bool
	s.Read(func(tx ReadTx) {
		ok = tx.EntityExists(id)
	})
	return ok
}

// GetEntity returns a handle for id if it is alive.
func (s *Scene) GetEntity(id EntityId) (Entity, bool) {
	if !s.EntityExists(id) {
		return Entity{}, false
	}
	return NewEntity(s, id), true
}

// EntityName returns id's name, or "" if it is not alive.
func (s *Scene) EntityName(id EntityId) string {
	var name string
	s.Read(func(tx ReadTx) {
		if slot := tx.slot(id); slot != nil {
			name = slot.name
		}
	})
	return name
}

// SetName renames id. Returns false if it is not alive.
func (s *Scene) SetName(id EntityId, name string) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if slot := tx.slot(id); slot != nil {
			slot.name = name
			ok = true
		}
	})
	return ok
}

// FindEntityByName returns the live entity with the lowest slot index named name.
func (s *Scene) FindEntityByName(name string) (Entity, bool) {
	var id EntityId
	s.Read(func(tx ReadTx) {
		for i := range tx.s.slots {
			slot := &tx.s.slots[i]
			if slot.alive && slot.name == name {
				id = NewEntityId(uint32(i), slot.generation)
				return
			}
		}
	})
	if !id.IsValid() {
		return Entity{}, false
	}
	return NewEntity(s, id), true
}

// ActiveEntities returns every live entity in slot order.
func (s *Scene) ActiveEntities() []EntityId {
	var ids []EntityId
	s.Read(func(tx ReadTx) {
		ids = tx.activeEntities()
	})
	return ids
}

func (tx ReadTx) activeEntities() []EntityId {
	ids := make([]EntityId, 0, tx.s.count)
	for i := range tx.s.slots {
		if slot := &tx.s.slots[i]; slot.alive {
			ids = append(ids, NewEntityId(uint32(i), slot.generation))
		}
	}
	return ids
}

// EntityCount returns the number of live entities.
func (s *Scene) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// RootEntities returns live entities with no live parent. Orphans count as roots.
func (s *Scene) RootEntities() []EntityId {
	var roots []EntityId
	s.Read(func(tx ReadTx) {
		for _, id := range tx.activeEntities() {
			if tx.isRoot(id) {
				roots = append(roots, id)
			}
		}
	})
	return roots
}

// SetTransient excludes (or re-includes) id from scene saves.
func (s *Scene) SetTransient(id EntityId, transient bool) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if slot := tx.slot(id); slot != nil {
			slot.transient = transient
			ok = true
		}
	})
	return ok
}

func (s *Scene) IsTransient(id EntityId) bool {
	var transient bool
	s.Read(func(tx ReadTx) {
		if slot := tx.slot(id); slot != nil {
			transient = slot.transient
		}
	})
	return transient
}

// SetMainCamera designates id as the main camera. Returns false if id is not alive.
func (s *Scene) SetMainCamera(id EntityId) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if tx.EntityExists(id) {
			tx.s.mainCamera = id
			ok = true
		}
	})
	return ok
}

// MainCamera returns the main camera entity, or InvalidEntityId.
func (s *Scene) MainCamera() EntityId {
	var id EntityId
	s.Read(func(tx ReadTx) {
		if tx.EntityExists(tx.s.mainCamera) {
			id = tx.s.mainCamera
		}
	})
	return id
}

// GetComponent returns a pointer to id's component of type t, or nil.
func (s *Scene) GetComponent(id EntityId, t reflect.Type) any {
	var c any
	s.Read(func(tx ReadTx) {
		c = tx.Component(id, t)
	})
	return c
}

// HasComponent reports whether id has a component of type t.
func (s *Scene) HasComponent(id EntityId, t reflect.Type) bool {
	var ok bool
	s.Read(func(tx ReadTx) {
		ok = tx.HasComponent(id, t)
	})
	return ok
}

// AddComponent stores component on id, replacing an existing one of the same type.
// Panics if the component type is not registered.
func (s *Scene) AddComponent(id EntityId, component any) error {
	var err error
	s.Write(func(tx Tx) {
		if !tx.EntityExists(id) {
			err = ErrEntityNotFound
			return
		}
		tx.addComponent(id, component)
	})
	return err
}

// RemoveComponent removes id's component of type t. Returns false if there was none.
func (s *Scene) RemoveComponent(id EntityId, t reflect.Type) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if !tx.EntityExists(id) {
			return
		}
		ok = tx.removeComponent(id, t)
	})
	return ok
}

// Compact packs every component pool. Component pointers obtained earlier are invalid
// afterwards.
func (s *Scene) Compact() {
	s.Write(func(tx Tx) {
		for _, pool := range tx.s.pools {
			pool.Compact()
		}
	})
}

// AddSingleton stores a value that belongs to no entity, replacing any existing
// singleton of the same type.
func (s *Scene) AddSingleton(value any) {
	t := reflect.TypeOf(value)
	v := reflect.New(t)
	v.Elem().Set(reflect.ValueOf(value))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.singletons[t] = &singletonEntry{value: v, dataPtr: v.UnsafePointer()}
}

// ReadSingleton points *out (a **T) at the singleton of type T and reports whether
// one exists.
func (s *Scene) ReadSingleton(out any) bool {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Ptr {
		panic("ReadSingleton expects a pointer to a pointer")
	}
	entry := s.getSingletonEntry(v.Elem().Type().Elem())
	if entry == nil {
		return false
	}
	v.Elem().Set(entry.value)
	return true
}

func (s *Scene) getSingletonEntry(t reflect.Type) *singletonEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.singletons[t]
}

// warnOnce reports whether this is the first warning of kind for id.
func (s *Scene) warnOnce(id EntityId, kind string) bool {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	kinds := s.warned[id]
	if _, seen := kinds[kind]; seen {
		return false
	}
	if kinds == nil {
		kinds = make(map[string]struct{})
		s.warned[id] = kinds
	}
	kinds[kind] = struct{}{}
	return true
}

func (s *Scene) forgetWarnings(id EntityId) {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	delete(s.warned, id)
}

// ComponentReader is implemented by anything that can look up a component by entity and type.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns id's component of type T through reader, or nil.
func ReadComponent[T any](reader ComponentReader, id EntityId) *T {
	c, _ := reader.GetComponent(id, reflect.TypeFor[T]()).(*T)
	return c
}
