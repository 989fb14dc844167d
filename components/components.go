// Package components holds the built-in payload components of a scene. Rendering,
// physics and scripting consume them; this package only defines their data and
// how they persist.
package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/ecs"
	"github.com/rotisserie/eris"
)

// Registry names. Their serialization order comes from ecs.SerializationOrder.
const (
	ModelName    = "Model"
	CameraName   = "Camera"
	TextName     = "Text"
	TerrainName  = "Terrain"
	ColliderName = "Collider"
	ScriptName   = "Script"
	UIName       = "UI"
)

// ErrColliderWithoutTransform is returned when a collider is read onto an entity that
// has no transform yet.
var ErrColliderWithoutTransform = eris.New("collider requires a transform")

// RegisterBuiltins registers every built-in component with r.
func RegisterBuiltins(r *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Model](r, ModelName)
	ecs.RegisterComponent[Camera](r, CameraName)
	ecs.RegisterComponent[Text](r, TextName)
	ecs.RegisterComponent[Terrain](r, TerrainName)
	ecs.RegisterComponent[Collider](r, ColliderName)
	ecs.RegisterComponent[Script](r, ScriptName)
	ecs.RegisterComponent[UI](r, UIName)
}

// Model references the mesh and material a renderer draws at the entity's transform.
type Model struct {
	MeshPath     string
	MaterialPath string
	CastShadows  bool
}

func (m *Model) WriteToDataStream(ds *ecs.DataStream) error {
	ds.WriteString(m.MeshPath)
	ds.WriteString(m.MaterialPath)
	ds.WriteBool(m.CastShadows)
	return nil
}

func (m *Model) ReadFromDataStream(_ ecs.Entity, ds *ecs.DataStream) error {
	m.MeshPath = ds.ReadString()
	m.MaterialPath = ds.ReadString()
	m.CastShadows = ds.ReadBool()
	return ds.Err()
}

// Camera is a perspective camera. FOV is in degrees.
type Camera struct {
	FOV    float32 `json:"fov"`
	Near   float32 `json:"near"`
	Far    float32 `json:"far"`
	Aspect float32 `json:"aspect"`
}

// Projection returns the camera's perspective matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

type Text struct {
	Content string  `json:"content"`
	Size    float32 `json:"size"`
}

type Terrain struct {
	HeightmapPath string  `json:"heightmap"`
	Size          float32 `json:"size"`
}

// ColliderShape selects the collision primitive.
type ColliderShape uint32

const (
	ShapeBox ColliderShape = iota
	ShapeSphere
	ShapeCapsule
)

// Collider describes a collision volume. Its world placement comes from the entity's
// transform, so it is always read after the transform.
type Collider struct {
	Shape     ColliderShape
	Extents   mgl32.Vec3
	IsTrigger bool
	Mass      float32

	owner ecs.Entity
}

func (c *Collider) SetOwner(e ecs.Entity) { c.owner = e }

// WorldCenter returns the collider's center in world space.
func (c *Collider) WorldCenter() mgl32.Vec3 {
	t := c.owner.Transform()
	if t == nil {
		return mgl32.Vec3{}
	}
	return t.BuildModelMatrix().Col(3).Vec3()
}

func (c *Collider) WriteToDataStream(ds *ecs.DataStream) error {
	ds.WriteU32(uint32(c.Shape))
	ds.WriteVec3(c.Extents)
	ds.WriteBool(c.IsTrigger)
	ds.WriteF32(c.Mass)
	return nil
}

func (c *Collider) ReadFromDataStream(e ecs.Entity, ds *ecs.DataStream) error {
	if e.Transform() == nil {
		return eris.Wrapf(ErrColliderWithoutTransform, "entity %s", e.ID())
	}
	c.Shape = ColliderShape(ds.ReadU32())
	c.Extents = ds.ReadVec3()
	c.IsTrigger = ds.ReadBool()
	c.Mass = ds.ReadF32()
	return ds.Err()
}

// Script names the behaviour the scripting system attaches to the entity.
type Script struct {
	BehaviourName string `json:"behaviour"`
}

type UI struct {
	Layout string `json:"layout"`
}
