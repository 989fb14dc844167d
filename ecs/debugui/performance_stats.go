package debugui

import (
	"fmt"
	"math"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	return PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		frameIndex:    0,
	}
}

// record stores one frame time in milliseconds in the ring buffer.
func (ps *PerformanceStatsComponent) record(deltaTime float32) {
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
	ps.recorded = min(ps.recorded+1, ps.historyFrames)
}

type frameSummary struct {
	avg, min, max float32
}

// summary covers only the slots written so far.
func (ps *PerformanceStatsComponent) summary() frameSummary {
	if ps.recorded == 0 {
		return frameSummary{}
	}
	var sum frameSummary
	sum.min = float32(math.MaxFloat32)
	for _, ft := range ps.frameHistory[:ps.recorded] {
		sum.avg += ft
		sum.min = min(sum.min, ft)
		sum.max = max(sum.max, ft)
	}
	sum.avg /= float32(ps.recorded)
	return sum
}

func (ps *PerformanceStatsComponent) Render(scene *ecs.Scene, deltaTime float32) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.record(deltaTime)

	stats := scene.CollectStats()

	imgui.Text(fmt.Sprintf("Entities: %d (%d enabled)", stats.EntityCount, stats.EnabledCount))
	imgui.Text(fmt.Sprintf("Roots: %d", stats.RootCount))
	imgui.Text(fmt.Sprintf("Pending Destroys: %d", stats.PendingDestroys))
	imgui.Text(fmt.Sprintf("Singletons: %d", stats.SingletonCount))

	if sum := ps.summary(); sum.avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", sum.avg, 1000.0/sum.avg))
		imgui.Text(fmt.Sprintf("Min / Max: %.2f / %.2f ms", sum.min, sum.max))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Component Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ComponentStatsTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Order")
			imgui.TableSetupColumn("Component")
			imgui.TableSetupColumn("Count")
			imgui.TableHeadersRow()

			for _, c := range stats.Components {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", c.Order))
				imgui.TableNextColumn()
				imgui.Text(c.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", c.Count))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Singleton Details") {
		for _, singletonType := range stats.SingletonTypes {
			imgui.BulletText(singletonType.String())
		}
		imgui.TreePop()
	}

	imgui.End()
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() FrameTimer {
	return FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	if ft.lastFrameTime.IsZero() {
		ft.lastFrameTime = now
		return 0
	}
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
