package debugui

import "github.com/plus3/scenecore/ecs"

const (
	ImguiItemName          = "ImguiItem"
	HierarchyBrowserName   = "DebugHierarchyBrowser"
	ComponentInspectorName = "DebugComponentInspector"
	RegistryViewerName     = "DebugRegistryViewer"
	PerformanceStatsName   = "DebugPerformanceStats"
	QueryDebuggerName      = "DebugQueryDebugger"
	FrameTimerName         = "DebugFrameTimer"
)

// SpawnDebugUI creates a transient entity carrying every debug window and an
// ImguiItem that renders them. Windows are looked up each frame so the entity
// survives a Compact.
func SpawnDebugUI(scene *ecs.Scene) ecs.Entity {
	e := scene.CreateEntity("DebugUI")
	scene.SetTransient(e.ID(), true)

	ecs.AddComponent(e, NewHierarchyBrowserComponent(100))
	ecs.AddComponent(e, NewComponentInspectorComponent())
	ecs.AddComponent(e, NewRegistryViewerComponent())
	ecs.AddComponent(e, NewPerformanceStatsComponent(120))
	ecs.AddComponent(e, NewQueryDebuggerComponent())
	ecs.AddComponent(e, NewFrameTimer())
	ecs.AddComponent(e, ImguiItem{Render: func() { renderDebugUI(e) }})
	return e
}

func renderDebugUI(e ecs.Entity) {
	scene := e.Scene()
	if !e.Exists() {
		return
	}

	var selected ecs.EntityId
	if browser := ecs.GetComponent[HierarchyBrowserComponent](e); browser != nil {
		browser.Render(scene)
		selected = browser.GetSelectedEntity()
	}
	if inspector := ecs.GetComponent[ComponentInspectorComponent](e); inspector != nil {
		inspector.Render(scene, selected)
	}
	if viewer := ecs.GetComponent[RegistryViewerComponent](e); viewer != nil {
		viewer.Render(scene)
	}
	if stats := ecs.GetComponent[PerformanceStatsComponent](e); stats != nil {
		var dt float32
		if timer := ecs.GetComponent[FrameTimer](e); timer != nil {
			dt = timer.GetDeltaTime()
		}
		stats.Render(scene, dt)
	}
	if query := ecs.GetComponent[QueryDebuggerComponent](e); query != nil {
		query.Render(scene)
	}
}

func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry, ImguiItemName)
	ecs.RegisterComponent[HierarchyBrowserComponent](registry, HierarchyBrowserName)
	ecs.RegisterComponent[ComponentInspectorComponent](registry, ComponentInspectorName)
	ecs.RegisterComponent[RegistryViewerComponent](registry, RegistryViewerName)
	ecs.RegisterComponent[PerformanceStatsComponent](registry, PerformanceStatsName)
	ecs.RegisterComponent[QueryDebuggerComponent](registry, QueryDebuggerName)
	ecs.RegisterComponent[FrameTimer](registry, FrameTimerName)
}
