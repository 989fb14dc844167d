package ecs

// Optional lifecycle hooks. A component opts in by implementing the interface on its
// pointer type; RegisterComponent checks each one once per type and leaves the
// matching ComponentMeta field nil otherwise.

type Awaker interface {
	OnAwake(e Entity)
}

type Starter interface {
	OnStart(e Entity)
}

type Enabler interface {
	OnEnable(e Entity)
}

type Disabler interface {
	OnDisable(e Entity)
}

type Updater interface {
	OnUpdate(e Entity, dt float32)
}

type LateUpdater interface {
	OnLateUpdate(e Entity, dt float32)
}

type FixedUpdater interface {
	OnFixedUpdate(e Entity, dt float32)
}

type Destroyer interface {
	OnDestroy(e Entity)
}

// StreamSerializer is implemented by components that own their binary payload format.
// Components that don't implement it are encoded as JSON.
type StreamSerializer interface {
	WriteToDataStream(ds *DataStream) error
	ReadFromDataStream(e Entity, ds *DataStream) error
}

// Owned components are told which entity they belong to when they are created.
type Owned interface {
	SetOwner(e Entity)
}
