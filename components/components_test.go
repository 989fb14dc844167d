package components_test

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/components"
	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScene() *ecs.Scene {
	registry := ecs.NewComponentRegistry()
	components.RegisterBuiltins(registry)
	return ecs.NewScene(registry)
}

func roundTrip(t *testing.T, scene *ecs.Scene, src ecs.Entity) ecs.Entity {
	t.Helper()
	ds := ecs.NewDataStream()
	require.NoError(t, scene.Registry().SerializeEntityComponents(src, ds))

	dst := scene.CreateEntity(src.Name() + " copy")
	_, err := scene.Registry().DeserializeEntityComponents(dst, ecs.NewDataStreamFromBytes(ds.Bytes()))
	require.NoError(t, err)
	return dst
}

func TestBuiltinOrder(t *testing.T) {
	scene := newScene()

	var names []string
	for _, m := range scene.Registry().GetAllMetasSorted() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		ecs.TransformTypeName,
		components.ModelName,
		components.CameraName,
		components.TextName,
		components.TerrainName,
		components.ColliderName,
		components.ScriptName,
		components.UIName,
	}, names)
}

func TestComponentsRoundTrip(t *testing.T) {
	scene := newScene()
	src := scene.CreateEntity("prop")

	model := components.Model{MeshPath: "meshes/crate.glb", MaterialPath: "materials/wood.mat", CastShadows: true}
	camera := components.Camera{FOV: 60, Near: 0.1, Far: 500, Aspect: 16.0 / 9.0}
	text := components.Text{Content: "hello", Size: 12}
	terrain := components.Terrain{HeightmapPath: "maps/hills.png", Size: 256}
	collider := components.Collider{Shape: components.ShapeSphere, Extents: mgl32.Vec3{1, 2, 3}, IsTrigger: true, Mass: 4}
	script := components.Script{BehaviourName: "door"}
	ui := components.UI{Layout: "hud"}

	for _, c := range []any{model, camera, text, terrain, collider, script, ui} {
		require.NoError(t, scene.AddComponent(src.ID(), c))
	}

	dst := roundTrip(t, scene, src)

	assert.Equal(t, &model, ecs.GetComponent[components.Model](dst))
	assert.Equal(t, &camera, ecs.GetComponent[components.Camera](dst))
	assert.Equal(t, &text, ecs.GetComponent[components.Text](dst))
	assert.Equal(t, &terrain, ecs.GetComponent[components.Terrain](dst))
	assert.Equal(t, &script, ecs.GetComponent[components.Script](dst))
	assert.Equal(t, &ui, ecs.GetComponent[components.UI](dst))

	got := ecs.GetComponent[components.Collider](dst)
	require.NotNil(t, got)
	assert.Equal(t, collider.Shape, got.Shape)
	assert.Equal(t, collider.Extents, got.Extents)
	assert.Equal(t, collider.IsTrigger, got.IsTrigger)
	assert.Equal(t, collider.Mass, got.Mass)
}

func TestColliderRequiresTransform(t *testing.T) {
	scene := newScene()
	e := scene.CreateEntity("loose")
	_, err := ecs.AddComponent(e, components.Collider{Shape: components.ShapeBox})
	require.NoError(t, err)

	payload := ecs.NewDataStream()
	require.NoError(t, ecs.GetComponent[components.Collider](e).WriteToDataStream(payload))

	require.True(t, scene.RemoveComponent(e.ID(), reflect.TypeFor[ecs.TransformComponent]()))

	meta := scene.Registry().GetMetaByName(components.ColliderName)
	require.NotNil(t, meta)
	err = meta.Deserialize(e, ecs.NewDataStreamFromBytes(payload.Bytes()))
	assert.ErrorIs(t, err, components.ErrColliderWithoutTransform)
}

func TestColliderWorldCenter(t *testing.T) {
	scene := newScene()
	parent := scene.CreateEntity("ship")
	parent.Transform().SetPosition(mgl32.Vec3{10, 0, 0})

	e := scene.CreateEntity("hull")
	e.Transform().SetPosition(mgl32.Vec3{1, 2, 3})
	require.Equal(t, ecs.HierarchyOk, scene.SetParent(e.ID(), parent.ID()))

	collider, err := ecs.AddComponent(e, components.Collider{Shape: components.ShapeCapsule})
	require.NoError(t, err)

	center := collider.WorldCenter()
	assert.InDeltaSlice(t, []float32{11, 2, 3}, center[:], 1e-5)

	var detached components.Collider
	assert.Equal(t, mgl32.Vec3{}, detached.WorldCenter())
}

func TestCameraProjection(t *testing.T) {
	camera := components.Camera{FOV: 90, Near: 1, Far: 100, Aspect: 1}
	want := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
	assert.Equal(t, want, camera.Projection())

	// a point on the near plane maps to depth -1
	clip := camera.Projection().Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	assert.InDelta(t, -1, clip.Z()/clip.W(), 1e-5)
}
