package ecs_test

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	src := newTestScene()

	// burn a slot so file indices differ from the loading scene's slots
	src.DestroyEntity(src.CreateEntity("scratch").ID())

	root := src.CreateEntity("root")
	root.Transform().SetPosition(mgl32.Vec3{1, 2, 3})
	arm := src.CreateEntity("arm")
	hand := src.CreateEntity("hand")
	camera := src.CreateEntity("camera")
	src.SetParent(arm.ID(), root.ID())
	src.SetParent(hand.ID(), arm.ID())
	src.SetParent(camera.ID(), root.ID())
	src.SetMainCamera(camera.ID())
	src.SetEnabled(arm.ID(), false)
	_, err := ecs.AddComponent(hand, Health{Current: 42, Max: 50})
	require.NoError(t, err)

	marker := src.CreateEntity("marker")
	src.SetTransient(marker.ID(), true)

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, false))

	dst := newTestScene()
	existing := dst.CreateEntity("existing")
	report, err := dst.Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Len(t, report.Entities, 4)
	assert.Equal(t, 3, report.Reparented)
	assert.Equal(t, 0, report.OrphanedParents)
	assert.Empty(t, report.SkippedTypes)

	// loading adds to what is already there
	assert.True(t, dst.EntityExists(existing.ID()))
	assert.Equal(t, 5, dst.EntityCount())
	_, ok := dst.FindEntityByName("marker")
	assert.False(t, ok)

	lroot, ok := dst.FindEntityByName("root")
	require.True(t, ok)
	larm, _ := dst.FindEntityByName("arm")
	lhand, _ := dst.FindEntityByName("hand")
	lcamera, _ := dst.FindEntityByName("camera")

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, lroot.Transform().GetPosition())
	assert.Equal(t, []ecs.EntityId{larm.ID(), lcamera.ID()}, lroot.Transform().GetChildEntityIDs())
	assert.Equal(t, larm.ID(), lhand.Transform().GetParentEntityID())
	assert.False(t, dst.IsEnabled(larm.ID()))
	assert.True(t, dst.IsEnabled(lhand.ID()))
	assert.Equal(t, &Health{Current: 42, Max: 50}, ecs.GetComponent[Health](lhand))
	assert.Equal(t, lcamera.ID(), dst.MainCamera())
	assert.Empty(t, dst.CheckHierarchy())

	// world placement survives the round trip
	assert.Equal(t, hand.Transform().BuildModelMatrix(), lhand.Transform().BuildModelMatrix())
}

func TestLoadIsAdditive(t *testing.T) {
	src := newTestScene()
	chain(src, 3)

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, true))

	dst := newTestScene()
	_, err := dst.Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	_, err = dst.Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, 6, dst.EntityCount())
	assert.Len(t, dst.RootEntities(), 2)
	assert.Empty(t, dst.CheckHierarchy())
}

func TestSaveIncludesTransientOnRequest(t *testing.T) {
	src := newTestScene()
	marker := src.CreateEntity("marker")
	src.SetTransient(marker.ID(), true)

	var without, with bytes.Buffer
	require.NoError(t, src.Save(&without, false))
	require.NoError(t, src.Save(&with, true))

	dst := newTestScene()
	report, err := dst.Load(&without)
	require.NoError(t, err)
	assert.Empty(t, report.Entities)

	report, err = dst.Load(&with)
	require.NoError(t, err)
	assert.Len(t, report.Entities, 1)
	// the flag itself is not persisted
	assert.False(t, dst.IsTransient(report.Entities[0]))
}

func TestLoadOrphanBecomesRoot(t *testing.T) {
	src := newTestScene()
	parent := src.CreateEntity("transient parent")
	child := src.CreateEntity("child")
	src.SetParent(child.ID(), parent.ID())
	src.SetTransient(parent.ID(), true)

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, false))

	core, logs := observer.New(zapcore.WarnLevel)
	dst := newTestScene(ecs.WithLogger(zap.New(core)))
	report, err := dst.Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, 1, report.OrphanedParents)
	assert.Equal(t, 0, report.Reparented)
	require.Len(t, report.Entities, 1)
	assert.True(t, transformOf(dst, report.Entities[0]).IsRoot())
	assert.Equal(t, 1, logs.FilterMessage("parent missing from scene file, loading as root").Len())
}

func TestLoadSkipsUnknownComponents(t *testing.T) {
	src := newTestScene()
	src.Spawn(Velocity{DX: 1}, Position{X: 2})

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, false))

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry, "Position")
	dst := ecs.NewScene(registry)
	report, err := dst.Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"Velocity"}, report.SkippedTypes)
	require.Len(t, report.Entities, 1)
	assert.Equal(t, float32(2), ecs.ReadComponent[Position](dst, report.Entities[0]).X)
}

func TestLoadRejectsBadInput(t *testing.T) {
	src := newTestScene()
	parent := src.CreateEntity("a")
	child := src.CreateEntity("b")
	src.SetParent(child.ID(), parent.ID())
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, false))
	good := buf.Bytes()

	header := func(count uint32) []byte {
		ds := ecs.NewDataStream()
		ds.WriteU32(ecs.SceneMagic)
		ds.WriteU32(ecs.SceneVersion)
		ds.WriteU32(count)
		return ds.Bytes()
	}

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"bad magic", append([]byte{'X'}, good[1:]...), ecs.ErrBadSceneMagic},
		{"bad version", append(append(bytes.Clone(good[:4]), 99), good[5:]...), ecs.ErrUnsupportedSceneVersion},
		{"truncated", good[:len(good)-2], ecs.ErrShortRead},
		{"truncated mid entity", good[:len(good)/2], ecs.ErrShortRead},
		{"empty", nil, ecs.ErrShortRead},
		{"count larger than data", header(0xFFFFFFFF), ecs.ErrShortRead},
		{"count one past data", append(header(3), good[12:]...), ecs.ErrShortRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newTestScene()
			existing := dst.CreateEntity("existing")

			report, err := dst.Load(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, report.Entities)

			// a failed load leaves nothing behind
			assert.Equal(t, 1, dst.EntityCount())
			assert.Equal(t, []ecs.EntityId{existing.ID()}, dst.ActiveEntities())
			assert.Empty(t, dst.CheckHierarchy())
		})
	}
}

func TestLoadKeepsDisabledFlag(t *testing.T) {
	src := newTestScene()
	off := src.CreateEntity("off")
	src.SetEnabled(off.ID(), false)
	src.CreateEntity("on")

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf, false))

	dst := newTestScene()
	report, err := dst.Load(&buf)
	require.NoError(t, err)
	require.Len(t, report.Entities, 2)
	assert.False(t, dst.IsEnabled(report.Entities[0]))
	assert.True(t, dst.IsEnabled(report.Entities[1]))
}
