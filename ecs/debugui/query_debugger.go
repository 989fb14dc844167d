package debugui

import (
	"fmt"
	"slices"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

type QueryDebuggerCache struct {
	componentNames []string
	lastTypeCount  int
}

func NewQueryDebuggerComponent() QueryDebuggerComponent {
	return QueryDebuggerComponent{
		selectedComponentNames: make(map[string]bool),
		cache: &QueryDebuggerCache{
			lastTypeCount: -1,
		},
	}
}

func (qd *QueryDebuggerComponent) Render(scene *ecs.Scene) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	qd.rebuildCacheIfNeeded(scene)

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedComponentNames = make(map[string]bool)
	}

	for _, name := range qd.cache.componentNames {
		selected := qd.selectedComponentNames[name]
		if imgui.Checkbox(name, &selected) {
			if selected {
				qd.selectedComponentNames[name] = true
			} else {
				delete(qd.selectedComponentNames, name)
			}
		}
	}

	imgui.Separator()

	var required []*ecs.ComponentMeta
	for _, name := range qd.cache.componentNames {
		if !qd.selectedComponentNames[name] {
			continue
		}
		if m := scene.Registry().GetMetaByName(name); m != nil {
			required = append(required, m)
		}
	}

	if len(required) == 0 {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	matching := MatchEntities(scene, required)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matching)))

	if imgui.TreeNodeStr("Entity Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryEntityTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity")
			imgui.TableSetupColumn("Name")
			imgui.TableHeadersRow()

			for _, id := range matching {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(id.String())

				imgui.TableSetColumnIndex(1)
				imgui.Text(scene.EntityName(id))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

func (qd *QueryDebuggerComponent) rebuildCacheIfNeeded(scene *ecs.Scene) {
	metas := scene.Registry().GetAllMetasSorted()
	if qd.cache.lastTypeCount != len(metas) {
		qd.cache.componentNames = nil
		qd.cache.lastTypeCount = len(metas)
	}

	if qd.cache.componentNames == nil {
		qd.cache.componentNames = make([]string, 0, len(metas))
		for _, m := range metas {
			qd.cache.componentNames = append(qd.cache.componentNames, m.Name)
		}
		slices.Sort(qd.cache.componentNames)
	}
}

// MatchEntities returns the live entities that carry every component in required.
func MatchEntities(scene *ecs.Scene, required []*ecs.ComponentMeta) []ecs.EntityId {
	var matching []ecs.EntityId
	for _, id := range scene.ActiveEntities() {
		e := ecs.NewEntity(scene, id)
		if hasAll(e, required) {
			matching = append(matching, id)
		}
	}
	return matching
}

func hasAll(e ecs.Entity, required []*ecs.ComponentMeta) bool {
	for _, m := range required {
		if !m.Has(e) {
			return false
		}
	}
	return true
}
