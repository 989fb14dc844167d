package ecs

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// PhysicsBody is the authoritative source of position and rotation for a transform
// whose entity has a rigid body.
type PhysicsBody interface {
	Position() mgl32.Vec3
	SetPosition(p mgl32.Vec3)
	Rotation() mgl32.Quat
	SetRotation(q mgl32.Quat)
}

// TransformComponent holds an entity's local TRS and its place in the scene hierarchy.
// All fields are guarded by the owning scene's lock; the exported methods take it
// themselves and must not be called from inside Scene.Read or Scene.Write.
type TransformComponent struct {
	owner       Entity
	initialized bool

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
	body     PhysicsBody

	parent   EntityId
	children []EntityId

	// parent file index read by ReadFromDataStream, resolved by Scene.Load
	pendingParent uint32
}

// NewTransform returns a transform at position with identity rotation and unit scale.
func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		initialized:   true,
		position:      position,
		rotation:      mgl32.QuatIdent(),
		scale:         mgl32.Vec3{1, 1, 1},
		pendingParent: InvalidIndex,
	}
}

// SetOwner implements Owned. A zero-valued transform gets identity rotation and unit scale.
func (t *TransformComponent) SetOwner(e Entity) {
	t.owner = e
	if !t.initialized {
		*t = NewTransform(mgl32.Vec3{})
		t.owner = e
	}
	// hierarchy links never survive a copy into another entity
	t.parent = InvalidEntityId
	t.children = nil
}

// Owner returns the entity this transform belongs to.
func (t *TransformComponent) Owner() Entity { return t.owner }

func (t *TransformComponent) read(fn func()) {
	if s := t.owner.scene; s != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (t *TransformComponent) write(fn func()) {
	if s := t.owner.scene; s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (t *TransformComponent) pos() mgl32.Vec3 {
	if t.body != nil {
		return t.body.Position()
	}
	return t.position
}

func (t *TransformComponent) rot() mgl32.Quat {
	if t.body != nil {
		return t.body.Rotation()
	}
	return t.rotation
}

func (t *TransformComponent) localMatrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.pos().Elem())
	rotate := t.rot().Mat4()
	scale := mgl32.Scale3D(t.scale.Elem())
	return translate.Mul4(rotate).Mul4(scale)
}

func (t *TransformComponent) GetPosition() mgl32.Vec3 {
	var p mgl32.Vec3
	t.read(func() { p = t.pos() })
	return p
}

func (t *TransformComponent) SetPosition(p mgl32.Vec3) {
	t.write(func() {
		if t.body != nil {
			t.body.SetPosition(p)
			return
		}
		t.position = p
	})
}

func (t *TransformComponent) GetRotation() mgl32.Quat {
	var q mgl32.Quat
	t.read(func() { q = t.rot() })
	return q
}

func (t *TransformComponent) SetRotation(q mgl32.Quat) {
	t.write(func() {
		if t.body != nil {
			t.body.SetRotation(q)
			return
		}
		t.rotation = q
	})
}

func (t *TransformComponent) GetScale() mgl32.Vec3 {
	var s mgl32.Vec3
	t.read(func() { s = t.scale })
	return s
}

func (t *TransformComponent) SetScale(s mgl32.Vec3) {
	t.write(func() { t.scale = s })
}

// LocalMatrix returns T * R * S for this transform alone.
func (t *TransformComponent) LocalMatrix() mgl32.Mat4 {
	var m mgl32.Mat4
	t.read(func() { m = t.localMatrix() })
	return m
}

// AttachBody makes body the source of position and rotation. The body is seeded with
// the current values. Passing nil copies the body's state back and detaches it.
func (t *TransformComponent) AttachBody(body PhysicsBody) {
	t.write(func() {
		if body == nil {
			if t.body != nil {
				t.position = t.body.Position()
				t.rotation = t.body.Rotation()
			}
			t.body = nil
			return
		}
		body.SetPosition(t.position)
		body.SetRotation(t.rotation)
		t.body = body
	})
}

func (t *TransformComponent) HasBody() bool {
	var ok bool
	t.read(func() { ok = t.body != nil })
	return ok
}

// GetParentEntityID returns the stored parent id, which may be stale.
func (t *TransformComponent) GetParentEntityID() EntityId {
	var p EntityId
	t.read(func() { p = t.parent })
	return p
}

// GetChildEntityIDs returns a copy of the child list.
func (t *TransformComponent) GetChildEntityIDs() []EntityId {
	var children []EntityId
	t.read(func() { children = slices.Clone(t.children) })
	return children
}

func (t *TransformComponent) GetChildCount() int {
	var n int
	t.read(func() { n = len(t.children) })
	return n
}

// HasParent reports whether the transform has a live parent.
func (t *TransformComponent) HasParent() bool {
	return !t.IsRoot()
}

// IsRoot reports whether the transform has no live parent. Orphans are roots.
func (t *TransformComponent) IsRoot() bool {
	s := t.owner.scene
	if s == nil {
		return true
	}
	root := true
	s.Read(func(tx ReadTx) {
		root = !tx.EntityExists(t.parent)
	})
	return root
}

// OnDestroy detaches the transform from its parent and releases all of its children.
func (t *TransformComponent) OnDestroy(e Entity) {
	if e.scene == nil {
		return
	}
	e.scene.Write(func(tx Tx) {
		tx.SetParent(e.id, InvalidEntityId)
		tx.DetachAllChildren(e.id)
	})
}

// WriteToDataStream writes position, rotation, scale and the parent's file index.
// Scene files use slot indices as file indices.
func (t *TransformComponent) WriteToDataStream(ds *DataStream) error {
	t.read(func() {
		ds.WriteVec3(t.pos())
		ds.WriteQuat(t.rot())
		ds.WriteVec3(t.scale)
		parent := InvalidIndex
		if s := t.owner.scene; s != nil && (ReadTx{s: s}).EntityExists(t.parent) {
			parent = t.parent.Index()
		}
		ds.WriteU32(parent)
	})
	return nil
}

// ReadFromDataStream restores the local TRS. The parent file index is kept pending
// until the loading scene has created every entity in the batch.
func (t *TransformComponent) ReadFromDataStream(e Entity, ds *DataStream) error {
	position := ds.ReadVec3()
	rotation := ds.ReadQuat()
	scale := ds.ReadVec3()
	parent := ds.ReadU32()
	if err := ds.Err(); err != nil {
		return err
	}
	t.write(func() {
		if t.body != nil {
			t.body.SetPosition(position)
			t.body.SetRotation(rotation)
		}
		t.position = position
		t.rotation = rotation
		t.scale = scale
		t.pendingParent = parent
	})
	return nil
}

// TransformState is a snapshot of a transform taken under the scene lock.
type TransformState struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Parent   EntityId
	Children []EntityId
}

func (t *TransformComponent) state() TransformState {
	return TransformState{
		Position: t.pos(),
		Rotation: t.rot(),
		Scale:    t.scale,
		Parent:   t.parent,
		Children: slices.Clone(t.children),
	}
}
