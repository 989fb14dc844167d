package ecs_test

import (
	"math"
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
)

func TestEntityIdPacking(t *testing.T) {
	id := ecs.NewEntityId(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.True(t, id.IsValid())
	assert.Equal(t, "entity(7:3)", id.String())

	top := ecs.NewEntityId(math.MaxUint32, math.MaxUint32)
	assert.Equal(t, uint32(math.MaxUint32), top.Index())
	assert.Equal(t, uint32(math.MaxUint32), top.Generation())
}

func TestInvalidEntityId(t *testing.T) {
	assert.False(t, ecs.InvalidEntityId.IsValid())
	assert.Equal(t, "entity(invalid)", ecs.InvalidEntityId.String())

	var zero ecs.EntityId
	assert.Equal(t, ecs.InvalidEntityId, zero)
}

func TestEntityHandle(t *testing.T) {
	scene := newTestScene()
	e := scene.CreateEntity("Player")

	assert.True(t, e.Exists())
	assert.Equal(t, "Player", e.Name())
	assert.Same(t, scene, e.Scene())
	assert.NotNil(t, e.Transform())

	assert.True(t, scene.DestroyEntity(e.ID()))
	assert.False(t, e.Exists())
	assert.Equal(t, "", e.Name())
	assert.Nil(t, e.Transform())

	var detached ecs.Entity
	assert.False(t, detached.Exists())
	assert.Nil(t, detached.Transform())
}
