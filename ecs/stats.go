package ecs

import "reflect"

// SceneStats is a point-in-time summary of a scene.
type SceneStats struct {
	EntityCount     int
	RootCount       int
	EnabledCount    int
	PendingDestroys int
	Components      []ComponentStat
	SingletonCount  int
	SingletonTypes  []reflect.Type
}

// ComponentStat counts the live components of one registered type.
type ComponentStat struct {
	Name  string
	Order uint32
	Count int
}

// CollectStats gathers SceneStats. Components are listed in serialization order.
func (s *Scene) CollectStats() SceneStats {
	metas := s.registry.GetAllMetasSorted()

	var stats SceneStats
	s.Read(func(tx ReadTx) {
		stats.EntityCount = tx.s.count
		stats.PendingDestroys = len(tx.s.pending)
		for _, id := range tx.activeEntities() {
			if tx.isRoot(id) {
				stats.RootCount++
			}
			if tx.slot(id).enabled {
				stats.EnabledCount++
			}
		}

		stats.Components = make([]ComponentStat, 0, len(metas))
		for _, m := range metas {
			stat := ComponentStat{Name: m.Name, Order: m.Order}
			if pool := tx.s.pools[m.Type]; pool != nil {
				stat.Count = pool.Len()
			}
			stats.Components = append(stats.Components, stat)
		}

		stats.SingletonCount = len(tx.s.singletons)
		for t := range tx.s.singletons {
			stats.SingletonTypes = append(stats.SingletonTypes, t)
		}
	})
	return stats
}
