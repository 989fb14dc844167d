package ecs

import (
	"cmp"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// FinalizeRegistration builds the sorted meta list. Only the first call does any work;
// every dispatch and serialize call invokes it implicitly.
func (r *ComponentRegistry) FinalizeRegistration() {
	r.finalize.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		sorted := slices.Clone(r.registered)
		slices.SortStableFunc(sorted, func(a, b *ComponentMeta) int {
			if c := cmp.Compare(a.Order, b.Order); c != 0 {
				return c
			}
			return cmp.Compare(a.seq, b.seq)
		})
		r.sorted = sorted
		r.finalized.Store(true)

		for _, m := range sorted {
			r.log.Debug("component registered", zap.Uint32("order", m.Order), zap.String("name", m.Name))
		}
	})
}

// IsFinalized reports whether the sorted list has been built.
func (r *ComponentRegistry) IsFinalized() bool {
	return r.finalized.Load()
}

func (r *ComponentRegistry) metas() []*ComponentMeta {
	r.FinalizeRegistration()
	return r.sorted
}

// GetAllMetasSorted returns a copy of the metas in serialization order.
func (r *ComponentRegistry) GetAllMetasSorted() []*ComponentMeta {
	return slices.Clone(r.metas())
}

// GetMetaByName returns the meta registered under name, or nil.
func (r *ComponentRegistry) GetMetaByName(name string) *ComponentMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metaByName[name]
}

// MetaForType returns the meta registered for the Go type t, or nil.
func (r *ComponentRegistry) MetaForType(t reflect.Type) *ComponentMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metaByType[t]
}

// RemoveAllComponents runs every present OnDestroy hook in reverse order, then removes
// every present component in reverse order. Hooks still see their siblings.
func (r *ComponentRegistry) RemoveAllComponents(e Entity) {
	r.DispatchOnDestroy(e)
	metas := r.metas()
	for i := len(metas) - 1; i >= 0; i-- {
		if m := metas[i]; m.Has(e) {
			m.Remove(e)
		}
	}
}

func (r *ComponentRegistry) dispatch(e Entity, hook func(*ComponentMeta) func(Entity)) {
	for _, m := range r.metas() {
		if fn := hook(m); fn != nil && m.Has(e) {
			fn(e)
		}
	}
}

func (r *ComponentRegistry) dispatchDt(e Entity, dt float32, hook func(*ComponentMeta) func(Entity, float32)) {
	for _, m := range r.metas() {
		if fn := hook(m); fn != nil && m.Has(e) {
			fn(e, dt)
		}
	}
}

func (r *ComponentRegistry) DispatchOnAwake(e Entity) {
	r.dispatch(e, func(m *ComponentMeta) func(Entity) { return m.OnAwake })
}

func (r *ComponentRegistry) DispatchOnStart(e Entity) {
	r.dispatch(e, func(m *ComponentMeta) func(Entity) { return m.OnStart })
}

func (r *ComponentRegistry) DispatchOnEnable(e Entity) {
	r.dispatch(e, func(m *ComponentMeta) func(Entity) { return m.OnEnable })
}

func (r *ComponentRegistry) DispatchOnDisable(e Entity) {
	r.dispatch(e, func(m *ComponentMeta) func(Entity) { return m.OnDisable })
}

// DispatchOnDestroy walks the sorted list in reverse.
func (r *ComponentRegistry) DispatchOnDestroy(e Entity) {
	metas := r.metas()
	for i := len(metas) - 1; i >= 0; i-- {
		if m := metas[i]; m.OnDestroy != nil && m.Has(e) {
			m.OnDestroy(e)
		}
	}
}

func (r *ComponentRegistry) DispatchOnUpdate(e Entity, dt float32) {
	r.dispatchDt(e, dt, func(m *ComponentMeta) func(Entity, float32) { return m.OnUpdate })
}

func (r *ComponentRegistry) DispatchOnLateUpdate(e Entity, dt float32) {
	r.dispatchDt(e, dt, func(m *ComponentMeta) func(Entity, float32) { return m.OnLateUpdate })
}

func (r *ComponentRegistry) DispatchOnFixedUpdate(e Entity, dt float32) {
	r.dispatchDt(e, dt, func(m *ComponentMeta) func(Entity, float32) { return m.OnFixedUpdate })
}
