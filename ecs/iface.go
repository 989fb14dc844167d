package ecs

import "unsafe"

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// componentPointer returns the data word of a pool pointer boxed in an any. The
// value must be a pointer type, so the data word is the pointer itself.
func componentPointer(component any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&component)).data
}
