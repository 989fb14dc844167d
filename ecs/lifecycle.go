package ecs

import "go.uber.org/zap"

// Update runs one frame of the entity lifecycle:
//
//  1. wake entities created since the last frame (OnAwake, then OnEnable if enabled),
//     repeating while hooks keep creating entities
//  2. OnStart for every awake, enabled entity that has not started
//  3. OnUpdate, then OnLateUpdate, for every started, enabled entity
//  4. tick timed destructions and destroy everything marked
func (s *Scene) Update(dt float32) {
	s.awakeNewEntities()

	for _, id := range s.entitiesWhere(needsStart) {
		if s.markStarted(id) {
			s.registry.DispatchOnStart(NewEntity(s, id))
		}
	}

	running := s.entitiesWhere(isRunning)
	for _, id := range running {
		s.registry.DispatchOnUpdate(NewEntity(s, id), dt)
	}
	for _, id := range running {
		s.registry.DispatchOnLateUpdate(NewEntity(s, id), dt)
	}

	s.tickTimedDestructions(dt)
	s.ProcessPendingDestructions()
}

// FixedUpdate dispatches OnFixedUpdate to every started, enabled entity.
func (s *Scene) FixedUpdate(dt float32) {
	for _, id := range s.entitiesWhere(isRunning) {
		s.registry.DispatchOnFixedUpdate(NewEntity(s, id), dt)
	}
}

func needsStart(slot *entitySlot) bool {
	return slot.awoken && slot.enabled && !slot.started && !slot.dying
}

func isRunning(slot *entitySlot) bool {
	return slot.started && slot.enabled && !slot.dying
}

func (s *Scene) entitiesWhere(pred func(*entitySlot) bool) []EntityId {
	var ids []EntityId
	s.Read(func(tx ReadTx) {
		for i := range tx.s.slots {
			if slot := &tx.s.slots[i]; slot.alive && pred(slot) {
				ids = append(ids, NewEntityId(uint32(i), slot.generation))
			}
		}
	})
	return ids
}

func (s *Scene) markStarted(id EntityId) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if slot := tx.slot(id); slot != nil && needsStart(slot) {
			slot.started = true
			ok = true
		}
	})
	return ok
}

func (s *Scene) awakeNewEntities() {
	for round := 0; ; round++ {
		var batch []EntityId
		s.Write(func(tx Tx) {
			batch, tx.s.newEntities = tx.s.newEntities, nil
		})
		if len(batch) == 0 {
			return
		}
		if round >= s.maxAwakeIterations {
			s.log.Warn("awake did not settle, deferring entities to next frame",
				zap.Int("rounds", round),
				zap.Int("deferred", len(batch)))
			s.Write(func(tx Tx) {
				tx.s.newEntities = append(batch, tx.s.newEntities...)
			})
			return
		}

		for _, id := range batch {
			var woke, enabled bool
			s.Write(func(tx Tx) {
				slot := tx.slot(id)
				if slot == nil || slot.awoken || slot.dying {
					return
				}
				slot.awoken = true
				woke, enabled = true, slot.enabled
			})
			if !woke {
				continue
			}
			e := NewEntity(s, id)
			s.registry.DispatchOnAwake(e)
			if enabled {
				s.registry.DispatchOnEnable(e)
			}
		}
	}
}

// SetEnabled toggles id. Awake entities receive OnEnable or OnDisable on a change.
func (s *Scene) SetEnabled(id EntityId, enabled bool) bool {
	var ok, changed, awoken bool
	s.Write(func(tx Tx) {
		slot := tx.slot(id)
		if slot == nil {
			return
		}
		ok = true
		if slot.enabled != enabled {
			slot.enabled = enabled
			changed, awoken = true, slot.awoken
		}
	})
	if changed && awoken {
		e := NewEntity(s, id)
		if enabled {
			s.registry.DispatchOnEnable(e)
		} else {
			s.registry.DispatchOnDisable(e)
		}
	}
	return ok
}

func (s *Scene) IsEnabled(id EntityId) bool {
	var enabled bool
	s.Read(func(tx ReadTx) {
		if slot := tx.slot(id); slot != nil {
			enabled = slot.enabled
		}
	})
	return enabled
}

// collectSubtree returns root and its live descendants, children before parents.
func (tx ReadTx) collectSubtree(root EntityId) []EntityId {
	type frame struct {
		id       EntityId
		expanded bool
	}
	seen := map[EntityId]struct{}{root: {}}
	stack := []frame{{id: root}}
	var out []EntityId

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.expanded {
			out = append(out, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		top.expanded = true
		id := top.id
		t := tx.transform(id)
		if t == nil {
			continue
		}
		for i := len(t.children) - 1; i >= 0; i-- {
			child := t.children[i]
			if _, dup := seen[child]; dup {
				continue
			}
			if ct := tx.transform(child); ct == nil || ct.parent != id {
				continue
			}
			seen[child] = struct{}{}
			stack = append(stack, frame{id: child})
		}
	}
	return out
}

// DestroyEntity destroys id and all of its descendants immediately. Enabled, awake
// entities get OnDisable first; then every entity's components are removed through
// the registry, children first. Returns false if id is not alive.
func (s *Scene) DestroyEntity(id EntityId) bool {
	var subtree, disable []EntityId
	s.Write(func(tx Tx) {
		if slot := tx.slot(id); slot == nil || slot.dying {
			return
		}
		tx.SetParent(id, InvalidEntityId)
		subtree = tx.collectSubtree(id)
		for _, e := range subtree {
			slot := tx.slot(e)
			slot.dying = true
			if slot.enabled && slot.awoken {
				disable = append(disable, e)
			}
			if tx.s.mainCamera == e {
				tx.s.mainCamera = InvalidEntityId
			}
		}
	})
	if len(subtree) == 0 {
		return false
	}

	for _, e := range disable {
		s.registry.DispatchOnDisable(NewEntity(s, e))
	}
	for _, e := range subtree {
		s.registry.RemoveAllComponents(NewEntity(s, e))
	}

	s.Write(func(tx Tx) {
		for _, e := range subtree {
			tx.freeEntity(e)
		}
	})
	return true
}

// MarkForDestruction flags id and its descendants; they are destroyed at the end of
// the next Update or by ProcessPendingDestructions.
func (s *Scene) MarkForDestruction(id EntityId) bool {
	var ok bool
	s.Write(func(tx Tx) {
		slot := tx.slot(id)
		if slot == nil {
			return
		}
		ok = true
		if slot.marked {
			return
		}
		for _, e := range tx.collectSubtree(id) {
			tx.slot(e).marked = true
		}
		tx.s.pending = append(tx.s.pending, id)
	})
	return ok
}

// MarkForTimedDestruction marks id for destruction once delay seconds of Update time
// have passed.
func (s *Scene) MarkForTimedDestruction(id EntityId, delay float32) bool {
	var ok bool
	s.Write(func(tx Tx) {
		if tx.EntityExists(id) {
			tx.s.timed = append(tx.s.timed, timedDestruction{id: id, remaining: delay})
			ok = true
		}
	})
	return ok
}

func (s *Scene) IsMarkedForDestruction(id EntityId) bool {
	var marked bool
	s.Read(func(tx ReadTx) {
		if slot := tx.slot(id); slot != nil {
			marked = slot.marked
		}
	})
	return marked
}

func (s *Scene) tickTimedDestructions(dt float32) {
	var expired []EntityId
	s.Write(func(tx Tx) {
		kept := tx.s.timed[:0]
		for _, td := range tx.s.timed {
			if !tx.EntityExists(td.id) {
				continue
			}
			td.remaining -= dt
			if td.remaining <= 0 {
				expired = append(expired, td.id)
				continue
			}
			kept = append(kept, td)
		}
		tx.s.timed = kept
	})
	for _, id := range expired {
		s.MarkForDestruction(id)
	}
}

// ProcessPendingDestructions destroys every marked entity and returns how many
// roots were destroyed.
func (s *Scene) ProcessPendingDestructions() int {
	var pending []EntityId
	s.Write(func(tx Tx) {
		pending, tx.s.pending = tx.s.pending, nil
	})
	destroyed := 0
	for _, id := range pending {
		if s.DestroyEntity(id) {
			destroyed++
		}
	}
	return destroyed
}
