package ecs_test

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/ecs"
)

func BenchmarkSpawn(b *testing.B) {
	scene := newTestScene()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkSpawnWithMultipleComponents(b *testing.B) {
	scene := newTestScene()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.Spawn(
			Position{X: 1.0, Y: 2.0},
			Velocity{DX: 0.5, DY: 0.5},
			Health{Current: 100, Max: 100},
			Name{Value: "Entity"},
		)
	}
}

func BenchmarkDestroy(b *testing.B) {
	scene := newTestScene()

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = scene.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.DestroyEntity(ids[i])
	}
}

func BenchmarkGetComponent(b *testing.B) {
	scene := newTestScene()
	id := scene.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ecs.ReadComponent[Position](scene, id)
	}
}

func BenchmarkAddComponent(b *testing.B) {
	scene := newTestScene()

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = scene.Spawn(Position{X: 1.0, Y: 2.0})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = scene.AddComponent(ids[i], Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkRemoveComponent(b *testing.B) {
	scene := newTestScene()
	velocityType := reflect.TypeFor[Velocity]()

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = scene.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.RemoveComponent(ids[i], velocityType)
	}
}

func BenchmarkEntityHandle(b *testing.B) {
	scene := newTestScene()
	e := scene.CreateEntity("target")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !e.Exists() {
			b.Fatal("entity vanished")
		}
	}
}

func BenchmarkSetParent(b *testing.B) {
	scene := newTestScene()
	ids := chain(scene, 64)
	leaf := scene.CreateEntity("leaf").ID()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.SetParent(leaf, ids[i%len(ids)])
	}
}

func BenchmarkModelMatrix(b *testing.B) {
	for _, depth := range []int{1, 16, 256} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			scene := newTestScene()
			ids := chain(scene, depth)
			for _, id := range ids {
				transformOf(scene, id).SetPosition(mgl32.Vec3{1, 0, 0})
			}
			leaf := transformOf(scene, ids[len(ids)-1])

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = leaf.BuildModelMatrix()
			}
		})
	}
}

func BenchmarkViewFill(b *testing.B) {
	scene := newTestScene()
	id := scene.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](scene)

	var result struct {
		*Position
		*Velocity
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		view.Fill(id, &result)
	}
}

func BenchmarkViewIter(b *testing.B) {
	scene := newTestScene()
	for i := 0; i < 100; i++ {
		scene.Spawn(Position{X: float32(i), Y: float32(i)}, Velocity{DX: 1.0, DY: 1.0})
	}

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](scene)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for item := range view.Values() {
			item.Position.X += item.Velocity.DX
		}
	}
}

func BenchmarkViewSpawn(b *testing.B) {
	scene := newTestScene()
	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](scene)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		view.Spawn(struct {
			*Position
			*Velocity
		}{
			Position: &Position{X: 1.0, Y: 2.0},
			Velocity: &Velocity{DX: 0.5, DY: 0.5},
		})
	}
}

func BenchmarkCompact(b *testing.B) {
	b.StopTimer()
	for i := 0; i < b.N; i++ {
		scene := newTestScene()
		ids := make([]ecs.EntityId, 1000)
		for j := range ids {
			ids[j] = scene.Spawn(Position{X: float32(j)}, Velocity{DX: 1})
		}
		for j := 0; j < len(ids); j += 2 {
			scene.DestroyEntity(ids[j])
		}

		b.StartTimer()
		scene.Compact()
		b.StopTimer()
	}
}

func BenchmarkUpdate(b *testing.B) {
	scene := newTestScene()
	log := &hookLog{}
	for i := 0; i < 100; i++ {
		e := scene.CreateEntity("")
		_, _ = ecs.AddComponent(e, Tracked{log: log})
	}
	scene.Update(0.016)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.Update(0.016)
		if i%64 == 0 {
			log.Reset()
		}
	}
}

func BenchmarkSaveLoad(b *testing.B) {
	scene := newTestScene()
	ids := chain(scene, 100)
	for _, id := range ids {
		_ = scene.AddComponent(id, Position{X: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := scene.Save(&buf, false); err != nil {
			b.Fatal(err)
		}
		if _, err := newTestScene().Load(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkQueryIter(b *testing.B) {
	scene := newTestScene()
	for i := 0; i < 100; i++ {
		scene.Spawn(Position{X: float32(i), Y: float32(i)}, Velocity{DX: 1.0, DY: 1.0})
	}

	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](scene)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		query.Execute()
		for item := range query.Values() {
			item.Position.X += item.Velocity.DX
		}
	}
}

type benchMovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *benchMovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for item := range s.Entities.Values() {
		item.Position.X += item.Velocity.DX * dt
		item.Position.Y += item.Velocity.DY * dt
	}
}

type benchHealthSystem struct {
	Entities ecs.Query[struct{ *Health }]
}

func (s *benchHealthSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		if item.Health.Current < item.Health.Max {
			item.Health.Current++
		}
	}
}

func BenchmarkSchedulerOnce(b *testing.B) {
	scene := newTestScene()
	for i := 0; i < 1000; i++ {
		scene.Spawn(Position{X: float32(i)}, Velocity{DX: 1, DY: 1}, Health{Current: 50, Max: 100})
	}

	scheduler := ecs.NewScheduler(scene)
	scheduler.Register(&benchMovementSystem{})
	scheduler.Register(&benchHealthSystem{})
	scheduler.Register(&ecs.LifecycleSystem{FixedStep: 0.02, MaxFixedSteps: 4})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scheduler.Once(0.016)
	}
}
