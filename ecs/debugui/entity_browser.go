package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	Name           string
	Enabled        bool
	ComponentNames []string
	Parent         ecs.EntityId
	Children       []ecs.EntityId
}

type HierarchyBrowserCache struct {
	entities     map[ecs.EntityId]*EntityInfo
	roots        []ecs.EntityId
	lastCount    int
	collapsed    map[ecs.EntityId]bool
	markedParent ecs.EntityId
}

func NewHierarchyBrowserComponent(maxEntitiesPerPage int) HierarchyBrowserComponent {
	return HierarchyBrowserComponent{
		cache: &HierarchyBrowserCache{
			lastCount: -1,
			collapsed: make(map[ecs.EntityId]bool),
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (hb *HierarchyBrowserComponent) Render(scene *ecs.Scene) {
	if !imgui.BeginV("Hierarchy", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	hb.rebuildCacheIfNeeded(scene)

	imgui.InputTextWithHint("##search", "Search...", &hb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		hb.filterText = ""
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		hb.cache.entities = nil
		hb.rebuildCacheIfNeeded(scene)
	}

	hb.renderActions(scene)
	imgui.Separator()

	if hb.filterText != "" {
		matches := hb.filteredEntities()
		for _, info := range matches {
			hb.renderRow(info)
		}
		imgui.Text(fmt.Sprintf("Matches: %d", len(matches)))
		imgui.End()
		return
	}

	start := hb.currentPage * hb.maxEntitiesPerPage
	end := min(start+hb.maxEntitiesPerPage, len(hb.cache.roots))
	if start > end {
		hb.currentPage, start = 0, 0
	}
	for _, root := range hb.cache.roots[start:end] {
		hb.renderNode(root, 0)
	}

	if len(hb.cache.roots) > hb.maxEntitiesPerPage {
		totalPages := (len(hb.cache.roots) + hb.maxEntitiesPerPage - 1) / hb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d roots)", hb.currentPage+1, totalPages, len(hb.cache.roots)))
		imgui.SameLine()
		if imgui.Button("Prev") && hb.currentPage > 0 {
			hb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && hb.currentPage < totalPages-1 {
			hb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities, %d roots", len(hb.cache.entities), len(hb.cache.roots)))
	}

	imgui.End()
}

// renderActions draws the reparenting controls for the selected entity and the
// outcome of the last one.
func (hb *HierarchyBrowserComponent) renderActions(scene *ecs.Scene) {
	selected := hb.selectedEntityId
	if !scene.EntityExists(selected) {
		imgui.Text("No entity selected")
		return
	}

	imgui.Text(fmt.Sprintf("Selected: %s %q", selected, scene.EntityName(selected)))
	if imgui.Button("Detach") {
		hb.setResult(scene.SetParent(selected, ecs.InvalidEntityId))
	}
	imgui.SameLine()
	if imgui.Button("Mark As Parent") {
		hb.cache.markedParent = selected
	}
	imgui.SameLine()
	marked := hb.cache.markedParent
	if scene.EntityExists(marked) {
		if imgui.Button(fmt.Sprintf("Attach To %s", marked)) {
			hb.setResult(scene.SetParent(selected, marked))
		}
		imgui.SameLine()
	}
	if imgui.Button("Destroy") {
		scene.MarkForDestruction(selected)
		hb.cache.entities = nil
	}

	if hb.lastResult != nil {
		color := imgui.NewVec4(0.4, 1.0, 0.4, 1.0)
		if !hb.lastResult.Accepted() {
			color = imgui.NewVec4(1.0, 0.6, 0.0, 1.0)
		}
		imgui.TextColored(color, hb.lastResult.String())
	}
}

func (hb *HierarchyBrowserComponent) setResult(res ecs.HierarchyResult) {
	hb.lastResult = &res
	if res == ecs.HierarchyOk {
		hb.cache.entities = nil
	}
}

func (hb *HierarchyBrowserComponent) renderNode(id ecs.EntityId, depth int) {
	info, ok := hb.cache.entities[id]
	if !ok || depth >= ecs.DefaultMaxHierarchyDepth {
		return
	}

	if len(info.Children) > 0 {
		label := "-"
		if hb.cache.collapsed[id] {
			label = "+"
		}
		if imgui.Button(fmt.Sprintf("%s##toggle%d", label, uint64(id))) {
			hb.cache.collapsed[id] = !hb.cache.collapsed[id]
		}
		imgui.SameLine()
	}
	hb.renderRow(info)

	if len(info.Children) == 0 || hb.cache.collapsed[id] {
		return
	}
	imgui.Indent()
	for _, child := range info.Children {
		if c, ok := hb.cache.entities[child]; ok && c.Parent == id {
			hb.renderNode(child, depth+1)
		}
	}
	imgui.Unindent()
}

func (hb *HierarchyBrowserComponent) renderRow(info *EntityInfo) {
	label := fmt.Sprintf("%s %s [%s]##%d", info.Name, info.ID, strings.Join(info.ComponentNames, ", "), uint64(info.ID))
	if !info.Enabled {
		label = "(disabled) " + label
	}
	if imgui.SelectableBoolV(label, hb.selectedEntityId == info.ID, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
		hb.selectedEntityId = info.ID
	}
}

func (hb *HierarchyBrowserComponent) rebuildCacheIfNeeded(scene *ecs.Scene) {
	if count := scene.EntityCount(); hb.cache.lastCount != count {
		hb.cache.entities = nil
		hb.cache.lastCount = count
	}

	if hb.cache.entities == nil {
		hb.rebuildCache(scene)
	}
}

func (hb *HierarchyBrowserComponent) rebuildCache(scene *ecs.Scene) {
	hb.cache.entities, hb.cache.roots = collectEntityInfo(scene)
}

// collectEntityInfo snapshots every live entity. Roots are entities whose parent is
// not in the snapshot, sorted by id.
func collectEntityInfo(scene *ecs.Scene) (map[ecs.EntityId]*EntityInfo, []ecs.EntityId) {
	metas := scene.Registry().GetAllMetasSorted()
	ids := scene.ActiveEntities()

	entities := make(map[ecs.EntityId]*EntityInfo, len(ids))
	for _, id := range ids {
		e := ecs.NewEntity(scene, id)
		info := &EntityInfo{
			ID:      id,
			Name:    scene.EntityName(id),
			Enabled: scene.IsEnabled(id),
		}
		for _, m := range metas {
			if m.Has(e) {
				info.ComponentNames = append(info.ComponentNames, m.Name)
			}
		}
		if t := e.Transform(); t != nil {
			info.Parent = t.GetParentEntityID()
			info.Children = t.GetChildEntityIDs()
		}
		entities[id] = info
	}

	var roots []ecs.EntityId
	for id, info := range entities {
		if _, ok := entities[info.Parent]; !ok {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return entities, roots
}

func (hb *HierarchyBrowserComponent) filteredEntities() []*EntityInfo {
	filterLower := strings.ToLower(hb.filterText)
	filtered := make([]*EntityInfo, 0, len(hb.cache.entities))

	for _, info := range hb.cache.entities {
		idStr := info.ID.String()
		nameStr := strings.ToLower(info.Name)
		componentsStr := strings.ToLower(strings.Join(info.ComponentNames, " "))

		if !strings.Contains(idStr, filterLower) &&
			!strings.Contains(nameStr, filterLower) &&
			!strings.Contains(componentsStr, filterLower) {
			continue
		}
		filtered = append(filtered, info)
	}

	slices.SortFunc(filtered, func(a, b *EntityInfo) int {
		return cmp.Compare(a.ID.Index(), b.ID.Index())
	})
	return filtered
}

func (hb *HierarchyBrowserComponent) GetSelectedEntity() ecs.EntityId {
	return hb.selectedEntityId
}
