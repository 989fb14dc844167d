package debugui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/ecs"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

func (ci *ComponentInspectorComponent) Render(scene *ecs.Scene, selectedEntityId ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selectedEntityId = selectedEntityId

	if !ci.selectedEntityId.IsValid() {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	e, ok := scene.GetEntity(ci.selectedEntityId)
	if !ok {
		imgui.Text(fmt.Sprintf("Entity %s no longer exists", ci.selectedEntityId))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s %q", e.ID(), e.Name()))
	enabled := scene.IsEnabled(e.ID())
	if imgui.Checkbox("Enabled", &enabled) {
		scene.SetEnabled(e.ID(), enabled)
	}
	imgui.Separator()

	for _, m := range scene.Registry().GetAllMetasSorted() {
		if !m.Has(e) {
			continue
		}
		component := scene.GetComponent(e.ID(), m.Type)
		if component == nil {
			continue
		}

		if imgui.TreeNodeStr(fmt.Sprintf("%s (order %d)", m.Name, m.Order)) {
			if hooks := m.Hooks(); len(hooks) > 0 {
				imgui.Text("Hooks: " + strings.Join(hooks, ", "))
			}
			if t, ok := component.(*ecs.TransformComponent); ok {
				ci.renderTransform(scene, t)
			} else {
				ci.renderComponent(component, m.Type)
			}
			imgui.TreePop()
		}
	}

	imgui.End()
}

// renderTransform goes through the locking accessors; a transform keeps its state
// unexported.
func (ci *ComponentInspectorComponent) renderTransform(scene *ecs.Scene, t *ecs.TransformComponent) {
	if p, ok := inputVec3("Position", t.GetPosition()); ok {
		t.SetPosition(p)
	}
	if s, ok := inputVec3("Scale", t.GetScale()); ok {
		t.SetScale(s)
	}
	r := t.GetRotation()
	imgui.Text(fmt.Sprintf("Rotation: (%.3f, %.3f, %.3f, %.3f)", r.V[0], r.V[1], r.V[2], r.W))

	if parent := t.GetParentEntityID(); parent.IsValid() {
		imgui.Text(fmt.Sprintf("Parent: %s %q", parent, scene.EntityName(parent)))
	} else {
		imgui.Text("Parent: none")
	}
	children := t.GetChildEntityIDs()
	imgui.Text(fmt.Sprintf("Children: %d", len(children)))
	for _, c := range children {
		imgui.BulletText(fmt.Sprintf("%s %q", c, scene.EntityName(c)))
	}
	if t.HasBody() {
		imgui.Text("Driven by physics body")
	}
}

func inputVec3(name string, v mgl32.Vec3) (mgl32.Vec3, bool) {
	changed := false
	imgui.Text(name + ":")
	for i, axis := range []string{"x", "y", "z"} {
		imgui.SameLine()
		imgui.SetNextItemWidth(80)
		if imgui.InputFloat(fmt.Sprintf("##%s%s", name, axis), &v[i]) {
			changed = true
		}
	}
	return v, changed
}

func (ci *ComponentInspectorComponent) renderComponent(component any, compType reflect.Type) {
	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	fields := globalReflectionCache.GetFields(compType)
	if len(fields) == 0 {
		imgui.Text("(no exported fields)")
	}

	for _, field := range fields {
		fieldVal := val.Field(field.Index)
		if field.IsPointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}

		label := field.Name
		if field.Transient {
			label += " (not saved)"
		}
		ci.renderField(label, fieldVal, field)
	}
}

// renderField edits val in place; val comes from the live component so it is
// addressable.
func (ci *ComponentInspectorComponent) renderField(name string, val reflect.Value, field FieldInfo) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.IsPointer && val.Kind() == reflect.Ptr && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && val.CanSet() && !val.OverflowInt(int64(v)) {
			val.SetInt(int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && v >= 0 && val.CanSet() && !val.OverflowUint(uint64(v)) {
			val.SetUint(uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) && val.CanSet() {
			val.SetFloat(float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && val.CanSet() {
			val.SetBool(v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(fmt.Sprintf("##%s", name), "", &v, imgui.InputTextFlagsNone, nil) && val.CanSet() {
			val.SetString(v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				nestedVal := val.Field(nf.Index)
				if nf.IsPointer && !nestedVal.IsNil() {
					nestedVal = nestedVal.Elem()
				}
				ci.renderField(nf.Name, nestedVal, nf)
			}
			imgui.TreePop()
		}

	case reflect.Array:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	case reflect.Func:
		imgui.Text(fmt.Sprintf("%s: func", name))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
