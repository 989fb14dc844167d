package ecs

import (
	"reflect"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// TransformTypeName is the registry name of TransformComponent.
const TransformTypeName = "Transform"

// DefaultSerializationOrder is used for any component name missing from the order table.
const DefaultSerializationOrder uint32 = 1000

// Components that others depend on during deserialization must come first.
var serializationOrder = map[string]uint32{
	"Transform": 0,
	"Model":     10,
	"Camera":    20,
	"Text":      30,
	"Terrain":   40,
	"Collider":  50,
	"Script":    60,
	"UI":        70,
}

// SerializationOrder returns the fixed order for a component name. Lower values
// serialize and dispatch earlier.
func SerializationOrder(name string) uint32 {
	if order, ok := serializationOrder[name]; ok {
		return order
	}
	return DefaultSerializationOrder
}

// ComponentMeta is the type-erased operation table for one registered component type.
// Create, Has, Remove, Serialize and Deserialize are always set. Hook fields are nil
// unless the component's pointer type implements the matching interface.
type ComponentMeta struct {
	Name  string
	Order uint32
	Type  reflect.Type
	seq   int

	// Create adds a zero-valued component if the entity lacks one. It returns false
	// only when the entity does not exist.
	Create      func(e Entity) bool
	Has         func(e Entity) bool
	Remove      func(e Entity) bool
	Serialize   func(e Entity, ds *DataStream) error
	Deserialize func(e Entity, ds *DataStream) error

	OnAwake       func(e Entity)
	OnStart       func(e Entity)
	OnEnable      func(e Entity)
	OnDisable     func(e Entity)
	OnDestroy     func(e Entity)
	OnUpdate      func(e Entity, dt float32)
	OnLateUpdate  func(e Entity, dt float32)
	OnFixedUpdate func(e Entity, dt float32)
}

// Hooks lists the names of the lifecycle hooks bound for this type.
func (m *ComponentMeta) Hooks() []string {
	var hooks []string
	for _, h := range []struct {
		name  string
		bound bool
	}{
		{"OnAwake", m.OnAwake != nil},
		{"OnStart", m.OnStart != nil},
		{"OnEnable", m.OnEnable != nil},
		{"OnDisable", m.OnDisable != nil},
		{"OnUpdate", m.OnUpdate != nil},
		{"OnLateUpdate", m.OnLateUpdate != nil},
		{"OnFixedUpdate", m.OnFixedUpdate != nil},
		{"OnDestroy", m.OnDestroy != nil},
	} {
		if h.bound {
			hooks = append(hooks, h.name)
		}
	}
	return hooks
}

func newComponentMeta[T any](name string, order uint32, seq int) *ComponentMeta {
	m := &ComponentMeta{
		Name:  name,
		Order: order,
		Type:  reflect.TypeFor[T](),
		seq:   seq,
	}

	m.Create = func(e Entity) bool {
		_, err := ensureComponent[T](e)
		return err == nil
	}
	m.Has = func(e Entity) bool {
		return HasComponent[T](e)
	}
	m.Remove = func(e Entity) bool {
		return RemoveComponent[T](e)
	}
	m.Serialize = func(e Entity, ds *DataStream) error {
		c := GetComponent[T](e)
		if c == nil {
			return eris.Wrapf(ErrEntityNotFound, "serialize %s on %s", name, e.ID())
		}
		if s, ok := any(c).(StreamSerializer); ok {
			return s.WriteToDataStream(ds)
		}
		b, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "encode %s", name)
		}
		ds.WriteBytes(b)
		return nil
	}
	m.Deserialize = func(e Entity, ds *DataStream) error {
		c := GetComponent[T](e)
		if c == nil {
			return eris.Wrapf(ErrEntityNotFound, "deserialize %s on %s", name, e.ID())
		}
		if s, ok := any(c).(StreamSerializer); ok {
			return s.ReadFromDataStream(e, ds)
		}
		b := ds.ReadBytes()
		if err := ds.Err(); err != nil {
			return err
		}
		if err := json.Unmarshal(b, c); err != nil {
			return eris.Wrapf(err, "decode %s", name)
		}
		return nil
	}

	var probe any = (*T)(nil)
	if _, ok := probe.(Awaker); ok {
		m.OnAwake = func(e Entity) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Awaker).OnAwake(e)
			}
		}
	}
	if _, ok := probe.(Starter); ok {
		m.OnStart = func(e Entity) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Starter).OnStart(e)
			}
		}
	}
	if _, ok := probe.(Enabler); ok {
		m.OnEnable = func(e Entity) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Enabler).OnEnable(e)
			}
		}
	}
	if _, ok := probe.(Disabler); ok {
		m.OnDisable = func(e Entity) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Disabler).OnDisable(e)
			}
		}
	}
	if _, ok := probe.(Destroyer); ok {
		m.OnDestroy = func(e Entity) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Destroyer).OnDestroy(e)
			}
		}
	}
	if _, ok := probe.(Updater); ok {
		m.OnUpdate = func(e Entity, dt float32) {
			if c := GetComponent[T](e); c != nil {
				any(c).(Updater).OnUpdate(e, dt)
			}
		}
	}
	if _, ok := probe.(LateUpdater); ok {
		m.OnLateUpdate = func(e Entity, dt float32) {
			if c := GetComponent[T](e); c != nil {
				any(c).(LateUpdater).OnLateUpdate(e, dt)
			}
		}
	}
	if _, ok := probe.(FixedUpdater); ok {
		m.OnFixedUpdate = func(e Entity, dt float32) {
			if c := GetComponent[T](e); c != nil {
				any(c).(FixedUpdater).OnFixedUpdate(e, dt)
			}
		}
	}

	return m
}
