package ecs

import (
	"context"
	"math"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemTiming struct {
	name  string
	runs  int64
	min   time.Duration
	max   time.Duration
	total time.Duration
	last  time.Duration
}

func (t *systemTiming) observe(d time.Duration) {
	t.runs++
	t.last = d
	t.total += d
	t.min = min(t.min, d)
	t.max = max(t.max, d)
}

func (t *systemTiming) snapshot() SystemStats {
	var avg time.Duration
	if t.runs > 0 {
		avg = t.total / time.Duration(t.runs)
	}
	return SystemStats{
		Name:           t.name,
		ExecutionCount: t.runs,
		MinDuration:    t.min,
		MaxDuration:    t.max,
		AvgDuration:    avg,
		LastDuration:   t.last,
		TotalDuration:  t.total,
	}
}

// sceneBinder is implemented by Query and Singleton fields of a system.
type sceneBinder interface {
	Init(scene *Scene)
}

type queryExecutor interface {
	Execute()
}

// Scheduler runs systems in registration order against one scene.
type Scheduler struct {
	scene   *Scene
	systems []System
	timings []*systemTiming
	queries []queryExecutor
}

// NewScheduler creates a new scheduler for the given scene.
func NewScheduler(scene *Scene) *Scheduler {
	return &Scheduler{scene: scene}
}

// Scene returns the scene systems run against.
func (s *Scheduler) Scene() *Scene { return s.scene }

// Register adds a system. Exported Query and Singleton fields of a struct system
// are bound to the scheduler's scene; queries are refreshed at the start of every
// frame.
func (s *Scheduler) Register(system System) {
	bound := s.bindFields(system)
	s.systems = append(s.systems, system)

	name := systemName(system)
	s.timings = append(s.timings, &systemTiming{name: name, min: time.Duration(math.MaxInt64)})
	s.scene.Logger().Debug("system registered", zap.String("system", name), zap.Int("bound_fields", bound))
}

func systemName(system System) string {
	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func (s *Scheduler) bindFields(system System) int {
	v := reflect.ValueOf(system)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return 0
	}
	v = v.Elem()

	bound := 0
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		binder, ok := field.Addr().Interface().(sceneBinder)
		if !ok {
			continue
		}
		binder.Init(s.scene)
		bound++
		if q, ok := binder.(queryExecutor); ok {
			s.queries = append(s.queries, q)
		}
	}
	return bound
}

// Once executes all registered systems once with the given delta time. Every query
// is refreshed before the first system runs; queued commands are flushed after the last.
func (s *Scheduler) Once(dt float64) {
	frame := newUpdateFrame(dt, s.scene)

	for _, q := range s.queries {
		q.Execute()
	}

	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		s.timings[i].observe(time.Since(start))
	}

	frame.Commands.Flush(s.scene)
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.timings)),
	}
	for i, t := range s.timings {
		stats.Systems[i] = t.snapshot()
		stats.TotalExecutions += t.runs
	}
	return stats
}
