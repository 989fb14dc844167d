package main

import (
	"os"

	"github.com/plus3/scenecore/ecs"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type dumpDoc struct {
	Entities     int          `yaml:"entities"`
	MainCamera   string       `yaml:"main_camera,omitempty"`
	SkippedTypes []string     `yaml:"skipped_types,omitempty"`
	Roots        []dumpEntity `yaml:"roots"`
}

type dumpEntity struct {
	Name       string       `yaml:"name"`
	ID         string       `yaml:"id"`
	Enabled    bool         `yaml:"enabled"`
	Position   [3]float32   `yaml:"position,flow"`
	Components []string     `yaml:"components,flow"`
	Children   []dumpEntity `yaml:"children,omitempty"`
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "dump <file>",
		Short:   "Load a scene file and print its hierarchy as YAML",
		Example: "scenectl dump sample.scene",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "open %s", args[0])
			}
			defer f.Close()

			scene := a.newScene()
			report, err := scene.Load(f)
			if err != nil {
				return err
			}

			doc := buildDump(scene)
			doc.SkippedTypes = report.SkippedTypes

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		},
	}
}

func buildDump(scene *ecs.Scene) dumpDoc {
	doc := dumpDoc{Entities: scene.EntityCount()}
	if cam := scene.MainCamera(); cam.IsValid() {
		doc.MainCamera = scene.EntityName(cam)
	}

	metas := scene.Registry().GetAllMetasSorted()
	var describe func(id ecs.EntityId, depth int) dumpEntity
	describe = func(id ecs.EntityId, depth int) dumpEntity {
		e := ecs.NewEntity(scene, id)
		de := dumpEntity{
			Name:    e.Name(),
			ID:      id.String(),
			Enabled: scene.IsEnabled(id),
		}
		for _, m := range metas {
			if m.Has(e) {
				de.Components = append(de.Components, m.Name)
			}
		}
		t := e.Transform()
		if t == nil {
			return de
		}
		p := t.GetPosition()
		de.Position = [3]float32{p.X(), p.Y(), p.Z()}
		if depth >= ecs.DefaultMaxHierarchyDepth {
			return de
		}
		for _, child := range t.GetChildEntityIDs() {
			de.Children = append(de.Children, describe(child, depth+1))
		}
		return de
	}

	for _, root := range scene.RootEntities() {
		doc.Roots = append(doc.Roots, describe(root, 0))
	}
	return doc
}
