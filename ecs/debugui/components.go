package debugui

import (
	"github.com/plus3/scenecore/ecs"
)

type HierarchyBrowserComponent struct {
	cache              *HierarchyBrowserCache
	selectedEntityId   ecs.EntityId
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
	lastResult         *ecs.HierarchyResult
}

type ComponentInspectorComponent struct {
	selectedEntityId ecs.EntityId
}

type RegistryViewerComponent struct {
	cache         *RegistryViewerCache
	selectedName  string
	sortColumn    int
	sortAscending bool
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	recorded      int
}

type QueryDebuggerComponent struct {
	selectedComponentNames map[string]bool
	cache                  *QueryDebuggerCache
}
