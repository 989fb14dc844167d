package main

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/components"
	"github.com/plus3/scenecore/ecs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// spinner is a component whose hooks give the lifecycle dispatch something to do.
type spinner struct {
	Speed float32
	Turns float32
}

func (s *spinner) OnUpdate(e ecs.Entity, dt float32) {
	s.Turns += s.Speed * dt
}

// matrixSystem reads every world matrix each frame while workers rewire the hierarchy.
type matrixSystem struct {
	Transforms ecs.Query[struct{ *ecs.TransformComponent }]
	built      int64
}

func (s *matrixSystem) Execute(frame *ecs.UpdateFrame) {
	for v := range s.Transforms.Values() {
		v.TransformComponent.BuildModelMatrix()
		s.built++
	}
}

type stressCounters struct {
	results  [ecs.HierarchyRejectedMissingSelf + 1]atomic.Int64
	marked   atomic.Int64
	creates  atomic.Int64
	matrices atomic.Int64
}

func newStressCmd(a *app) *cobra.Command {
	var gcPauseMetrics bool
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Rewire a random hierarchy from several goroutines while the scheduler ticks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runStress(cmd.Context(), a, gcPauseMetrics)
			if err != nil {
				return err
			}
			return report.Generate(cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.IntVar(&a.flagEntities, "entities", 0, "initial entity count (overrides config)")
	f.DurationVar(&a.flagDuration, "duration", 0, "run duration (overrides config)")
	f.BoolVar(&gcPauseMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")
	return cmd
}

func runStress(ctx context.Context, a *app, gcPauseMetrics bool) (*Report, error) {
	sc := a.cfg.Stress
	if a.flagEntities > 0 {
		sc.Entities = a.flagEntities
	}
	if a.flagDuration > 0 {
		sc.Duration = a.flagDuration
	}

	registry := ecs.NewComponentRegistry(ecs.WithRegistryLogger(a.log))
	components.RegisterBuiltins(registry)
	ecs.RegisterComponent[spinner](registry, "Spinner")
	scene := ecs.NewScene(registry, a.cfg.SceneOptions(a.log)...)

	a.log.Info("populating scene", zap.Int("entities", sc.Entities), zap.Int("max_depth", sc.MaxDepth))
	populate(scene, sc.Entities, sc.MaxDepth)

	// matrices runs first so its query snapshot predates this frame's destructions
	matrices := &matrixSystem{}
	scheduler := ecs.NewScheduler(scene)
	scheduler.Register(matrices)
	scheduler.Register(a.cfg.LifecycleSystem())

	report := &Report{
		Duration: sc.Duration,
		Entities: sc.Entities,
		Workers:  sc.Workers,
		MaxDepth: sc.MaxDepth,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
		GCPauseMetrics: gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(ctx, sc.Duration)
	defer cancel()

	var counters stressCounters
	var wg sync.WaitGroup
	for w := 0; w < sc.Workers; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			worker(ctx, scene, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), sc.ReparentRatio, &counters)
		}(uint64(w + 1))
	}

	a.log.Info("running", zap.Duration("duration", sc.Duration), zap.Int("workers", sc.Workers))
	startTime := time.Now()
	ticker := time.NewTicker(sc.Tick)
	lastFrame := time.Now()
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		case now := <-ticker.C:
			updateStart := time.Now()
			scheduler.Once(now.Sub(lastFrame).Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			lastFrame = now
			report.TotalUpdates++
		}
	}
	ticker.Stop()
	wg.Wait()

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	for r := range counters.results {
		report.Results = append(report.Results, ResultCount{
			Result: ecs.HierarchyResult(r).String(),
			Count:  counters.results[r].Load(),
		})
	}
	report.Marked = counters.marked.Load()
	report.ReadMatrices = counters.matrices.Load()
	report.Creates = counters.creates.Load()
	report.MatricesBuilt = matrices.built
	report.Scene = scene.CollectStats()
	report.Problems = scene.CheckHierarchy()
	report.Scheduler = scheduler.GetStats()
	if len(report.Problems) > 0 {
		a.log.Error("hierarchy inconsistent after stress run", zap.Strings("problems", report.Problems))
	}
	return report, nil
}

// populate builds a random forest whose trees are at most maxDepth deep.
func populate(scene *ecs.Scene, n, maxDepth int) {
	rng := rand.New(rand.NewPCG(42, 7))
	depth := make(map[ecs.EntityId]int, n)
	ids := make([]ecs.EntityId, 0, n)
	for i := 0; i < n; i++ {
		e := scene.CreateEntity("node")
		e.Transform().SetPosition(mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()})
		if rng.IntN(2) == 0 {
			_, _ = ecs.AddComponent(e, spinner{Speed: rng.Float32()})
		}
		if len(ids) > 0 && rng.IntN(4) != 0 {
			parent := ids[rng.IntN(len(ids))]
			if depth[parent] < maxDepth-1 && e.Transform().SetParentByID(parent) == ecs.HierarchyOk {
				depth[e.ID()] = depth[parent] + 1
			}
		}
		ids = append(ids, e.ID())
	}
}

// worker hammers the hierarchy with reparents, reads and destroy/create pairs.
// Destruction is only marked here; it runs on the scheduler goroutine, which owns
// component payloads.
func worker(ctx context.Context, scene *ecs.Scene, rng *rand.Rand, reparentRatio float64, c *stressCounters) {
	for ctx.Err() == nil {
		ids := scene.ActiveEntities()
		if len(ids) < 2 {
			scene.CreateEntity("node")
			c.creates.Add(1)
			continue
		}
		for i := 0; i < 64 && ctx.Err() == nil; i++ {
			child := ids[rng.IntN(len(ids))]
			switch p := rng.Float64(); {
			case p < reparentRatio:
				parent := ids[rng.IntN(len(ids))]
				if rng.IntN(10) == 0 {
					parent = ecs.InvalidEntityId
				}
				c.results[scene.SetParent(child, parent)].Add(1)
			case p < reparentRatio+(1-reparentRatio)/2:
				scene.Read(func(tx ecs.ReadTx) {
					tx.ModelMatrix(child)
				})
				c.matrices.Add(1)
			default:
				if scene.MarkForDestruction(child) {
					c.marked.Add(1)
				}
				scene.CreateEntity("node")
				c.creates.Add(1)
			}
		}
	}
}
