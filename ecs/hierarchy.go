package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var transformType = reflect.TypeFor[TransformComponent]()

func (tx ReadTx) transform(id EntityId) *TransformComponent {
	if tx.slot(id) == nil {
		return nil
	}
	pool := typedPool[TransformComponent](tx)
	if pool == nil {
		return nil
	}
	return pool.get(id)
}

// Transform returns a snapshot of id's transform.
func (tx ReadTx) Transform(id EntityId) (TransformState, bool) {
	t := tx.transform(id)
	if t == nil {
		return TransformState{}, false
	}
	return t.state(), true
}

func (tx ReadTx) isRoot(id EntityId) bool {
	t := tx.transform(id)
	return t == nil || tx.transform(t.parent) == nil
}

// IsDescendantOf walks up from id's parent looking for ancestor. The walk stops at a
// root, at a dead or transform-less parent, or at the scene's maximum depth.
func (tx ReadTx) IsDescendantOf(id, ancestor EntityId) bool {
	if !ancestor.IsValid() {
		return false
	}
	found, exhausted := tx.ancestorWalk(id, ancestor, tx.s.maxDepth)
	if exhausted && tx.s.warnOnce(id, "descendant-depth") {
		tx.s.log.Error("hierarchy walk exceeded maximum depth",
			zap.Stringer("entity", id),
			zap.Int("max_depth", tx.s.maxDepth))
	}
	return found
}

// ancestorWalk follows parent links from id for at most limit hops. found reports
// that ancestor was reached; exhausted that the limit ran out first.
func (tx ReadTx) ancestorWalk(id, ancestor EntityId, limit int) (found, exhausted bool) {
	t := tx.transform(id)
	if t == nil {
		return false, false
	}
	cur := t.parent
	for depth := 0; cur.IsValid(); depth++ {
		if depth >= limit {
			return false, true
		}
		parent := tx.transform(cur)
		if parent == nil {
			return false, false
		}
		if cur == ancestor {
			return true, false
		}
		cur = parent.parent
	}
	return false, false
}

// exactWalkLimit bounds an ancestor walk by the live entity count. An acyclic chain
// has fewer hops than that, so running out means the chain loops.
func (tx ReadTx) exactWalkLimit() int {
	return tx.s.count
}

// ModelMatrix composes id's local matrix with every live ancestor's, nearest parent
// first. A walk that reaches the maximum depth returns what it has so far.
func (tx ReadTx) ModelMatrix(id EntityId) mgl32.Mat4 {
	t := tx.transform(id)
	if t == nil {
		return mgl32.Ident4()
	}
	m := t.localMatrix()
	cur := t.parent
	for depth := 0; cur.IsValid(); depth++ {
		if depth == tx.s.warnDepth && tx.s.warnOnce(id, "model-depth-warn") {
			tx.s.log.Warn("deep transform hierarchy",
				zap.Stringer("entity", id),
				zap.Int("depth", depth))
		}
		if depth >= tx.s.maxDepth {
			if tx.s.warnOnce(id, "model-depth-max") {
				tx.s.log.Error("model matrix walk exceeded maximum depth",
					zap.Stringer("entity", id),
					zap.Int("max_depth", tx.s.maxDepth))
			}
			break
		}
		parent := tx.transform(cur)
		if parent == nil {
			break
		}
		m = parent.localMatrix().Mul4(m)
		cur = parent.parent
	}
	return m
}

// SetParent makes parent the parent of child. InvalidEntityId detaches. Checks run in
// order: unchanged, self parent, missing child, missing parent, cycle. Any rejection
// leaves the hierarchy untouched.
func (tx Tx) SetParent(child, parent EntityId) HierarchyResult {
	ct := tx.transform(child)
	res := tx.validateParent(child, ct, parent)
	if res != HierarchyOk {
		if res != HierarchyUnchanged {
			tx.s.log.Warn("rejected reparent",
				zap.Stringer("entity", child),
				zap.Stringer("parent", parent),
				zap.Stringer("result", res))
		}
		return res
	}

	if old := tx.transform(ct.parent); old != nil {
		old.removeChild(child)
	}
	ct.parent = parent
	if pt := tx.transform(parent); pt != nil {
		pt.children = append(pt.children, child)
	}
	return HierarchyOk
}

func (tx Tx) validateParent(child EntityId, ct *TransformComponent, parent EntityId) HierarchyResult {
	if ct != nil && ct.parent == parent {
		return HierarchyUnchanged
	}
	if child == parent {
		return HierarchyRejectedSelfParent
	}
	if ct == nil {
		return HierarchyRejectedMissingSelf
	}
	if !parent.IsValid() {
		return HierarchyOk
	}
	if slot := tx.slot(parent); slot == nil || slot.dying || tx.transform(parent) == nil {
		return HierarchyRejectedMissingParent
	}
	// exact at any depth; a walk that never ends is treated as a cycle
	if found, exhausted := tx.ancestorWalk(parent, child, tx.exactWalkLimit()); found || exhausted {
		return HierarchyRejectedCycle
	}
	return HierarchyOk
}

// DetachAllChildren releases every child of id and returns how many were detached.
// Entries for children that are gone or claim another parent are dropped.
func (tx Tx) DetachAllChildren(id EntityId) int {
	t := tx.transform(id)
	if t == nil {
		return 0
	}
	detached := 0
	for len(t.children) > 0 {
		child := t.children[0]
		if ct := tx.transform(child); ct != nil && ct.parent == id {
			tx.SetParent(child, InvalidEntityId)
			detached++
			continue
		}
		t.children = t.children[1:]
	}
	t.children = nil
	return detached
}

func (t *TransformComponent) removeChild(child EntityId) {
	if i := slices.Index(t.children, child); i >= 0 {
		t.children = slices.Delete(t.children, i, i+1)
	}
}

// CheckHierarchy verifies every live transform's links and returns one line per
// inconsistency: a parent that does not list its child exactly once, a child entry
// that points elsewhere, or an ancestor chain that revisits the entity or never ends.
func (s *Scene) CheckHierarchy() []string {
	var problems []string
	s.Read(func(tx ReadTx) {
		for _, id := range tx.activeEntities() {
			t := tx.transform(id)
			if t == nil {
				continue
			}
			if pt := tx.transform(t.parent); pt != nil {
				n := 0
				for _, c := range pt.children {
					if c == id {
						n++
					}
				}
				if n != 1 {
					problems = append(problems, fmt.Sprintf("%s: parent %s lists it %d times", id, t.parent, n))
				}
			}
			for _, c := range t.children {
				if ct := tx.transform(c); ct == nil || ct.parent != id {
					problems = append(problems, fmt.Sprintf("%s: child entry %s does not point back", id, c))
				}
			}
			switch found, exhausted := tx.ancestorWalk(id, id, tx.exactWalkLimit()); {
			case found:
				problems = append(problems, fmt.Sprintf("%s: is its own ancestor", id))
			case exhausted:
				problems = append(problems, fmt.Sprintf("%s: ancestor chain does not end", id))
			}
		}
	})
	return problems
}

// SetParent is the locking form of Tx.SetParent.
func (s *Scene) SetParent(child, parent EntityId) HierarchyResult {
	var res HierarchyResult
	s.Write(func(tx Tx) {
		res = tx.SetParent(child, parent)
	})
	return res
}

// SetParentByID reparents this transform's entity. The whole check-and-mutate
// sequence runs under one write lock.
func (t *TransformComponent) SetParentByID(parent EntityId) HierarchyResult {
	s := t.owner.scene
	if s == nil {
		return HierarchyRejectedMissingSelf
	}
	return s.SetParent(t.owner.id, parent)
}

// DetachFromParent makes this transform a root.
func (t *TransformComponent) DetachFromParent() HierarchyResult {
	return t.SetParentByID(InvalidEntityId)
}

// DetachAllChildren makes every child of this transform a root.
func (t *TransformComponent) DetachAllChildren() int {
	s := t.owner.scene
	if s == nil {
		return 0
	}
	var n int
	s.Write(func(tx Tx) {
		n = tx.DetachAllChildren(t.owner.id)
	})
	return n
}

// IsDescendantOf reports whether ancestor is a live ancestor of this transform.
func (t *TransformComponent) IsDescendantOf(ancestor EntityId) bool {
	s := t.owner.scene
	if s == nil {
		return false
	}
	var ok bool
	s.Read(func(tx ReadTx) {
		ok = tx.IsDescendantOf(t.owner.id, ancestor)
	})
	return ok
}

// BuildModelMatrix returns the world matrix of this transform.
func (t *TransformComponent) BuildModelMatrix() mgl32.Mat4 {
	s := t.owner.scene
	if s == nil {
		return t.localMatrix()
	}
	var m mgl32.Mat4
	s.Read(func(tx ReadTx) {
		m = tx.ModelMatrix(t.owner.id)
	})
	return m
}
