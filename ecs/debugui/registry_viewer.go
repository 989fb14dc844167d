package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

type RegistryInfo struct {
	Name        string
	Order       uint32
	Hooks       []string
	EntityCount int
}

type RegistryViewerCache struct {
	rows          []RegistryInfo
	sortColumn    int
	sortAscending bool
}

func NewRegistryViewerComponent() RegistryViewerComponent {
	return RegistryViewerComponent{
		cache: &RegistryViewerCache{
			sortColumn:    0,
			sortAscending: true,
		},
		sortColumn:    0,
		sortAscending: true,
	}
}

// Render lists every registered component type and returns the name of the row
// clicked this frame, or "".
func (rv *RegistryViewerComponent) Render(scene *ecs.Scene) string {
	if !imgui.BeginV("Component Registry", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return ""
	}

	rv.rebuildCache(scene)

	imgui.Text(fmt.Sprintf("Registered types: %d", len(rv.cache.rows)))

	maxEntityCount := 0
	for _, row := range rv.cache.rows {
		maxEntityCount = max(maxEntityCount, row.EntityCount)
	}

	var clicked string
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("RegistryTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Order")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Hooks")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			rv.cache.sortColumn = int(spec.ColumnIndex())
			rv.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			rv.sortColumn = rv.cache.sortColumn
			rv.sortAscending = rv.cache.sortAscending
			rv.sortRows()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range rv.cache.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%d##%s", row.Order, row.Name), rv.selectedName == row.Name, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				rv.selectedName = row.Name
				clicked = row.Name
			}

			imgui.TableNextColumn()
			imgui.Text(row.Name)

			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.Hooks, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.EntityCount))

			if maxEntityCount > 0 {
				barWidth := float32(row.EntityCount) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}

func (rv *RegistryViewerComponent) rebuildCache(scene *ecs.Scene) {
	stats := scene.CollectStats()
	counts := make(map[string]int, len(stats.Components))
	for _, c := range stats.Components {
		counts[c.Name] = c.Count
	}

	metas := scene.Registry().GetAllMetasSorted()
	rv.cache.rows = rv.cache.rows[:0]
	for _, m := range metas {
		rv.cache.rows = append(rv.cache.rows, RegistryInfo{
			Name:        m.Name,
			Order:       m.Order,
			Hooks:       m.Hooks(),
			EntityCount: counts[m.Name],
		})
	}

	rv.sortRows()
}

// sortRows is stable so that equal orders keep registration order.
func (rv *RegistryViewerComponent) sortRows() {
	slices.SortStableFunc(rv.cache.rows, func(a, b RegistryInfo) int {
		var c int
		switch rv.cache.sortColumn {
		case 1:
			c = strings.Compare(a.Name, b.Name)
		case 2:
			c = cmp.Compare(len(a.Hooks), len(b.Hooks))
		case 3:
			c = cmp.Compare(a.EntityCount, b.EntityCount)
		default:
			c = cmp.Compare(a.Order, b.Order)
		}

		if !rv.cache.sortAscending {
			return -c
		}
		return c
	})
}
