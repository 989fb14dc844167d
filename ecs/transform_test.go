package ecs_test

import (
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var reflectTransform = reflect.TypeFor[ecs.TransformComponent]()

func transformOf(scene *ecs.Scene, id ecs.EntityId) *ecs.TransformComponent {
	return ecs.NewEntity(scene, id).Transform()
}

func TestNewEntityHasDefaultTransform(t *testing.T) {
	scene := newTestScene()
	tr := scene.CreateEntity("e").Transform()
	require.NotNil(t, tr)
	assert.Equal(t, mgl32.Vec3{}, tr.GetPosition())
	assert.Equal(t, mgl32.QuatIdent(), tr.GetRotation())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, tr.GetScale())
	assert.True(t, tr.IsRoot())
	assert.Equal(t, mgl32.Ident4(), tr.BuildModelMatrix())
}

func TestSetParentLinksBothWays(t *testing.T) {
	scene := newTestScene()
	parent := scene.CreateEntity("parent").ID()
	a := scene.CreateEntity("a").ID()
	b := scene.CreateEntity("b").ID()

	assert.Equal(t, ecs.HierarchyOk, scene.SetParent(a, parent))
	assert.Equal(t, ecs.HierarchyOk, transformOf(scene, b).SetParentByID(parent))

	pt := transformOf(scene, parent)
	assert.Equal(t, []ecs.EntityId{a, b}, pt.GetChildEntityIDs())
	assert.Equal(t, 2, pt.GetChildCount())
	assert.Equal(t, parent, transformOf(scene, a).GetParentEntityID())
	assert.True(t, transformOf(scene, a).HasParent())
	assert.True(t, transformOf(scene, a).IsDescendantOf(parent))
	assert.False(t, pt.IsDescendantOf(a))
	assert.Equal(t, []ecs.EntityId{parent}, scene.RootEntities())

	// moving a to b updates both child lists
	assert.Equal(t, ecs.HierarchyOk, scene.SetParent(a, b))
	assert.Equal(t, []ecs.EntityId{b}, pt.GetChildEntityIDs())
	assert.Equal(t, []ecs.EntityId{a}, transformOf(scene, b).GetChildEntityIDs())
	assert.True(t, transformOf(scene, a).IsDescendantOf(parent))
	assert.Empty(t, scene.CheckHierarchy())
}

func TestSetParentRejections(t *testing.T) {
	scene := newTestScene()
	ids := chain(scene, 3)
	a, b, c := ids[0], ids[1], ids[2]

	t.Run("unchanged", func(t *testing.T) {
		assert.Equal(t, ecs.HierarchyUnchanged, scene.SetParent(b, a))
		assert.Equal(t, ecs.HierarchyUnchanged, scene.SetParent(a, ecs.InvalidEntityId))
	})

	t.Run("self", func(t *testing.T) {
		assert.Equal(t, ecs.HierarchyRejectedSelfParent, scene.SetParent(b, b))
	})

	t.Run("cycle", func(t *testing.T) {
		assert.Equal(t, ecs.HierarchyRejectedCycle, scene.SetParent(a, c))
		assert.Equal(t, ecs.HierarchyRejectedCycle, scene.SetParent(a, b))
		assert.Equal(t, ecs.InvalidEntityId, transformOf(scene, a).GetParentEntityID())
		assert.Equal(t, []ecs.EntityId{b}, transformOf(scene, a).GetChildEntityIDs())
	})

	t.Run("missing parent", func(t *testing.T) {
		gone := scene.CreateEntity("gone").ID()
		scene.DestroyEntity(gone)
		assert.Equal(t, ecs.HierarchyRejectedMissingParent, scene.SetParent(c, gone))
		assert.Equal(t, b, transformOf(scene, c).GetParentEntityID())
	})

	t.Run("missing self", func(t *testing.T) {
		gone := scene.CreateEntity("gone").ID()
		scene.DestroyEntity(gone)
		assert.Equal(t, ecs.HierarchyRejectedMissingSelf, scene.SetParent(gone, a))
		assert.Equal(t, []ecs.EntityId{b}, transformOf(scene, a).GetChildEntityIDs())
	})

	t.Run("parent without transform", func(t *testing.T) {
		bare := scene.CreateEntity("bare")
		require.True(t, ecs.RemoveComponent[ecs.TransformComponent](bare))
		assert.Equal(t, ecs.HierarchyRejectedMissingParent, scene.SetParent(c, bare.ID()))
	})

	assert.Empty(t, scene.CheckHierarchy())
}

func TestHierarchyResultStrings(t *testing.T) {
	tests := []struct {
		result   ecs.HierarchyResult
		text     string
		accepted bool
	}{
		{ecs.HierarchyOk, "ok", true},
		{ecs.HierarchyUnchanged, "unchanged", true},
		{ecs.HierarchyRejectedSelfParent, "rejected: self parent", false},
		{ecs.HierarchyRejectedMissingParent, "rejected: missing parent", false},
		{ecs.HierarchyRejectedCycle, "rejected: cycle", false},
		{ecs.HierarchyRejectedMissingSelf, "rejected: missing self", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.result.String())
			assert.Equal(t, tt.accepted, tt.result.Accepted())
		})
	}
}

func TestDetach(t *testing.T) {
	scene := newTestScene()
	parent := scene.CreateEntity("parent").ID()
	children := make([]ecs.EntityId, 4)
	for i := range children {
		children[i] = scene.CreateEntity("child").ID()
		require.Equal(t, ecs.HierarchyOk, scene.SetParent(children[i], parent))
	}

	ct := transformOf(scene, children[0])
	assert.Equal(t, ecs.HierarchyOk, ct.DetachFromParent())
	assert.Equal(t, ecs.HierarchyUnchanged, ct.DetachFromParent())
	assert.True(t, ct.IsRoot())

	pt := transformOf(scene, parent)
	assert.Equal(t, 3, pt.DetachAllChildren())
	assert.Equal(t, 0, pt.DetachAllChildren())
	assert.Empty(t, pt.GetChildEntityIDs())
	for _, c := range children {
		assert.True(t, transformOf(scene, c).IsRoot())
	}
	assert.Len(t, scene.RootEntities(), 5)
	assert.Empty(t, scene.CheckHierarchy())
}

func TestRemovingTransformReleasesChildren(t *testing.T) {
	scene := newTestScene()
	ids := chain(scene, 3)

	require.True(t, scene.RemoveComponent(ids[1], reflectTransform))
	assert.Empty(t, transformOf(scene, ids[0]).GetChildEntityIDs())
	assert.True(t, transformOf(scene, ids[2]).IsRoot())
	assert.Equal(t, ecs.InvalidEntityId, transformOf(scene, ids[2]).GetParentEntityID())
	assert.Empty(t, scene.CheckHierarchy())
}

func TestReplacingTransformKeepsHierarchy(t *testing.T) {
	scene := newTestScene()
	ids := chain(scene, 3)

	require.NoError(t, scene.AddComponent(ids[1], ecs.NewTransform(mgl32.Vec3{5, 0, 0})))
	mid := transformOf(scene, ids[1])
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, mid.GetPosition())
	assert.Equal(t, ids[0], mid.GetParentEntityID())
	assert.Equal(t, []ecs.EntityId{ids[2]}, mid.GetChildEntityIDs())
	assert.Empty(t, scene.CheckHierarchy())
}

func TestModelMatrixComposesParents(t *testing.T) {
	scene := newTestScene()
	parent := scene.CreateEntity("parent")
	child := scene.CreateEntity("child")
	require.Equal(t, ecs.HierarchyOk, scene.SetParent(child.ID(), parent.ID()))

	pt := parent.Transform()
	pt.SetPosition(mgl32.Vec3{10, 0, 0})
	pt.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	pt.SetScale(mgl32.Vec3{2, 2, 2})
	child.Transform().SetPosition(mgl32.Vec3{1, 0, 0})

	world := child.Transform().BuildModelMatrix().Col(3).Vec3()
	assert.InDelta(t, 10, world.X(), 1e-4)
	assert.InDelta(t, 0, world.Y(), 1e-4)
	assert.InDelta(t, -2, world.Z(), 1e-4)

	assert.Equal(t, child.Transform().LocalMatrix(), mgl32.Translate3D(1, 0, 0))

	var fromTx mgl32.Mat4
	scene.Read(func(tx ecs.ReadTx) {
		fromTx = tx.ModelMatrix(child.ID())
	})
	assert.Equal(t, child.Transform().BuildModelMatrix(), fromTx)
}

func TestDeepHierarchyIsBounded(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	scene := newTestScene(ecs.WithLogger(zap.New(core)))

	ids := chain(scene, 2000)
	for _, id := range ids {
		transformOf(scene, id).SetPosition(mgl32.Vec3{1, 0, 0})
	}

	leaf := transformOf(scene, ids[len(ids)-1])
	m := leaf.BuildModelMatrix()
	m = leaf.BuildModelMatrix()

	// the walk stops after the maximum number of ancestors
	assert.InDelta(t, float64(ecs.DefaultMaxHierarchyDepth+1), m.Col(3).X(), 1e-3)

	// each limit is reported once per entity, however often it is hit
	assert.Equal(t, 1, logs.FilterMessage("deep transform hierarchy").Len())
	assert.Equal(t, 1, logs.FilterMessage("model matrix walk exceeded maximum depth").Len())

	// ancestors beyond the cap are not found
	assert.True(t, leaf.IsDescendantOf(ids[len(ids)-2]))
	assert.False(t, leaf.IsDescendantOf(ids[0]))
}

func TestHierarchyLimitsOption(t *testing.T) {
	scene := newTestScene(ecs.WithHierarchyLimits(2, 4))
	ids := chain(scene, 10)
	for _, id := range ids {
		transformOf(scene, id).SetPosition(mgl32.Vec3{0, 1, 0})
	}
	m := transformOf(scene, ids[9]).BuildModelMatrix()
	assert.InDelta(t, 5, m.Col(3).Y(), 1e-5)
}

func TestCycleRejectedBeyondDepthCap(t *testing.T) {
	scene := newTestScene(ecs.WithHierarchyLimits(2, 4))
	ids := chain(scene, 8)
	root, leaf := ids[0], ids[len(ids)-1]

	assert.Equal(t, ecs.HierarchyRejectedCycle, scene.SetParent(root, leaf))
	assert.False(t, transformOf(scene, root).HasParent())
	assert.Equal(t, ecs.HierarchyRejectedCycle, scene.SetParent(ids[1], leaf))
	assert.Equal(t, root, transformOf(scene, ids[1]).GetParentEntityID())
	assert.Empty(t, scene.CheckHierarchy())

	// walking up from the leaf ends at the root
	cur, hops := leaf, 0
	for cur.IsValid() {
		cur = transformOf(scene, cur).GetParentEntityID()
		hops++
		require.LessOrEqual(t, hops, len(ids))
	}
	assert.Equal(t, len(ids), hops)

	// reparenting outside the chain is still allowed
	other := scene.CreateEntity("other").ID()
	assert.Equal(t, ecs.HierarchyOk, scene.SetParent(root, other))
	assert.Empty(t, scene.CheckHierarchy())
}

func TestCycleRejectedOnLongChain(t *testing.T) {
	scene := newTestScene()
	ids := chain(scene, ecs.DefaultMaxHierarchyDepth+100)

	assert.Equal(t, ecs.HierarchyRejectedCycle, scene.SetParent(ids[0], ids[len(ids)-1]))
	assert.False(t, transformOf(scene, ids[0]).HasParent())
}

func TestRandomReparentingStaysAcyclic(t *testing.T) {
	scene := newTestScene()
	rng := rand.New(rand.NewPCG(1, 2))

	ids := make([]ecs.EntityId, 50)
	for i := range ids {
		ids[i] = scene.CreateEntity("").ID()
	}

	for range 5000 {
		child := ids[rng.IntN(len(ids))]
		parent := ecs.InvalidEntityId
		if rng.IntN(5) > 0 {
			parent = ids[rng.IntN(len(ids))]
		}
		scene.SetParent(child, parent)
	}

	require.Empty(t, scene.CheckHierarchy())
	for _, id := range ids {
		steps := 0
		for cur := transformOf(scene, id).GetParentEntityID(); cur.IsValid(); cur = transformOf(scene, cur).GetParentEntityID() {
			steps++
			require.Less(t, steps, len(ids), "ancestor chain of %s does not end", id)
		}
	}
}

func TestConcurrentReparenting(t *testing.T) {
	scene := newTestScene()
	ids := make([]ecs.EntityId, 64)
	for i := range ids {
		ids[i] = scene.CreateEntity("").ID()
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, seed*7+1))
			for range 500 {
				child := ids[rng.IntN(len(ids))]
				switch rng.IntN(4) {
				case 0:
					transformOf(scene, child).DetachFromParent()
				case 1:
					transformOf(scene, child).BuildModelMatrix()
					transformOf(scene, child).IsDescendantOf(ids[rng.IntN(len(ids))])
				default:
					scene.SetParent(child, ids[rng.IntN(len(ids))])
				}
			}
		}(uint64(w))
	}
	wg.Wait()

	assert.Empty(t, scene.CheckHierarchy())
}

func TestTransactionAccessors(t *testing.T) {
	scene := newTestScene()
	ids := chain(scene, 3)

	scene.Write(func(tx ecs.Tx) {
		assert.Equal(t, ecs.HierarchyOk, tx.SetParent(ids[2], ids[0]))
		assert.Equal(t, ecs.HierarchyRejectedCycle, tx.SetParent(ids[0], ids[2]))
	})

	scene.Read(func(tx ecs.ReadTx) {
		state, ok := tx.Transform(ids[0])
		require.True(t, ok)
		assert.Equal(t, []ecs.EntityId{ids[1], ids[2]}, state.Children)
		assert.Equal(t, ecs.InvalidEntityId, state.Parent)
		assert.True(t, tx.IsDescendantOf(ids[2], ids[0]))
		assert.False(t, tx.IsDescendantOf(ids[2], ids[1]))

		_, ok = tx.Transform(ecs.InvalidEntityId)
		assert.False(t, ok)
	})

	scene.Write(func(tx ecs.Tx) {
		assert.Equal(t, 2, tx.DetachAllChildren(ids[0]))
	})
	assert.Len(t, scene.RootEntities(), 3)
}

type fakeBody struct {
	position mgl32.Vec3
	rotation mgl32.Quat
}

func (b *fakeBody) Position() mgl32.Vec3     { return b.position }
func (b *fakeBody) SetPosition(p mgl32.Vec3) { b.position = p }
func (b *fakeBody) Rotation() mgl32.Quat     { return b.rotation }
func (b *fakeBody) SetRotation(q mgl32.Quat) { b.rotation = q }

func TestPhysicsBodyDrivesTransform(t *testing.T) {
	scene := newTestScene()
	tr := scene.CreateEntity("body").Transform()
	tr.SetPosition(mgl32.Vec3{1, 2, 3})

	body := &fakeBody{}
	tr.AttachBody(body)
	assert.True(t, tr.HasBody())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, body.position)

	body.position = mgl32.Vec3{4, 5, 6}
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, tr.GetPosition())
	tr.SetPosition(mgl32.Vec3{7, 8, 9})
	assert.Equal(t, mgl32.Vec3{7, 8, 9}, body.position)

	tr.AttachBody(nil)
	assert.False(t, tr.HasBody())
	assert.Equal(t, mgl32.Vec3{7, 8, 9}, tr.GetPosition())
}
