package ecs

import "github.com/rotisserie/eris"

var (
	ErrEntityNotFound          = eris.New("entity does not exist")
	ErrComponentExists         = eris.New("component already present on entity")
	ErrComponentNotRegistered  = eris.New("component type not registered")
	ErrShortRead               = eris.New("data stream: short read")
	ErrBadSceneMagic           = eris.New("scene file: bad magic number")
	ErrUnsupportedSceneVersion = eris.New("scene file: unsupported version")
)
