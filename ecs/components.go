package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

func typedPool[T any](tx ReadTx) *genericComponentStorage[T] {
	pool, _ := tx.s.pools[reflect.TypeFor[T]()].(*genericComponentStorage[T])
	return pool
}

// AddComponent adds v to e and returns a pointer to the stored copy. It fails if e
// does not exist or already has a T. Panics if T is not registered.
func AddComponent[T any](e Entity, v T) (*T, error) {
	if e.scene == nil {
		return nil, eris.Wrap(ErrEntityNotFound, "entity has no scene")
	}
	var (
		c   *T
		err error
	)
	e.scene.Write(func(tx Tx) {
		if !tx.EntityExists(e.id) {
			err = eris.Wrapf(ErrEntityNotFound, "add %s", reflect.TypeFor[T]())
			return
		}
		if pool := typedPool[T](tx.ReadTx); pool != nil && pool.Has(e.id) {
			err = eris.Wrapf(ErrComponentExists, "add %s to %s", reflect.TypeFor[T](), e.id)
			return
		}
		c = tx.addComponent(e.id, v).(*T)
	})
	return c, err
}

// ensureComponent returns e's T, adding a zero value first if it has none.
func ensureComponent[T any](e Entity) (*T, error) {
	if e.scene == nil {
		return nil, eris.Wrap(ErrEntityNotFound, "entity has no scene")
	}
	var (
		c   *T
		err error
	)
	e.scene.Write(func(tx Tx) {
		if !tx.EntityExists(e.id) {
			err = eris.Wrapf(ErrEntityNotFound, "create %s", reflect.TypeFor[T]())
			return
		}
		if pool := typedPool[T](tx.ReadTx); pool != nil {
			if c = pool.get(e.id); c != nil {
				return
			}
		}
		var zero T
		c = tx.addComponent(e.id, zero).(*T)
	})
	return c, err
}

// GetComponent returns e's T, or nil if e is gone or has none.
func GetComponent[T any](e Entity) *T {
	if e.scene == nil {
		return nil
	}
	var c *T
	e.scene.Read(func(tx ReadTx) {
		if !tx.EntityExists(e.id) {
			return
		}
		if pool := typedPool[T](tx); pool != nil {
			c = pool.get(e.id)
		}
	})
	return c
}

// HasComponent reports whether e is alive and has a T.
func HasComponent[T any](e Entity) bool {
	if e.scene == nil {
		return false
	}
	var ok bool
	e.scene.Read(func(tx ReadTx) {
		if !tx.EntityExists(e.id) {
			return
		}
		if pool := typedPool[T](tx); pool != nil {
			ok = pool.Has(e.id)
		}
	})
	return ok
}

// RemoveComponent removes e's T without running its OnDestroy hook. Returns false
// if there was nothing to remove.
func RemoveComponent[T any](e Entity) bool {
	if e.scene == nil {
		return false
	}
	var ok bool
	e.scene.Write(func(tx Tx) {
		if !tx.EntityExists(e.id) {
			return
		}
		ok = tx.removeComponent(e.id, reflect.TypeFor[T]())
	})
	return ok
}
