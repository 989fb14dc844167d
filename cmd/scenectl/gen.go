package main

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenecore/components"
	"github.com/plus3/scenecore/ecs"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenCmd(a *app) *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:     "gen <file>",
		Short:   "Write a sample scene file",
		Example: "scenectl gen sample.scene --rows 4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene := a.newScene()
			buildSampleScene(scene, rows)

			f, err := os.Create(args[0])
			if err != nil {
				return eris.Wrapf(err, "create %s", args[0])
			}
			defer f.Close()
			if err := scene.Save(f, false); err != nil {
				return err
			}
			a.log.Info("scene written",
				zap.String("path", args[0]),
				zap.Int("entities", scene.EntityCount()))
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 3, "number of tiles per side of the sample floor")
	return cmd
}

// buildSampleScene lays out a camera, a floor of tiles parented to a root, and a
// transient debug marker that Save leaves out.
func buildSampleScene(scene *ecs.Scene, rows int) {
	camera := scene.CreateEntity("Main Camera")
	camera.Transform().SetPosition(mgl32.Vec3{0, 10, -10})
	_, _ = ecs.AddComponent(camera, components.Camera{FOV: 60, Near: 0.1, Far: 1000, Aspect: 16.0 / 9.0})
	scene.SetMainCamera(camera.ID())

	floor := scene.CreateEntity("Floor")
	_, _ = ecs.AddComponent(floor, components.Terrain{HeightmapPath: "terrain/flat.r16", Size: float32(rows)})

	for x := 0; x < rows; x++ {
		for z := 0; z < rows; z++ {
			tile := scene.CreateEntity("Tile")
			tile.Transform().SetPosition(mgl32.Vec3{float32(x), 0, float32(z)})
			_, _ = ecs.AddComponent(tile, components.Model{MeshPath: "meshes/tile.mesh", MaterialPath: "materials/stone.mat", CastShadows: true})
			_, _ = ecs.AddComponent(tile, components.Collider{Shape: components.ShapeBox, Extents: mgl32.Vec3{0.5, 0.1, 0.5}, Mass: 0})
			tile.Transform().SetParentByID(floor.ID())
		}
	}

	player := scene.CreateEntity("Player")
	player.Transform().SetPosition(mgl32.Vec3{0, 1, 0})
	_, _ = ecs.AddComponent(player, components.Model{MeshPath: "meshes/player.mesh", MaterialPath: "materials/player.mat", CastShadows: true})
	_, _ = ecs.AddComponent(player, components.Collider{Shape: components.ShapeCapsule, Extents: mgl32.Vec3{0.4, 1, 0.4}, Mass: 70})
	_, _ = ecs.AddComponent(player, components.Script{BehaviourName: "PlayerController"})

	label := scene.CreateEntity("Nameplate")
	label.Transform().SetPosition(mgl32.Vec3{0, 2.2, 0})
	_, _ = ecs.AddComponent(label, components.Text{Content: "Player", Size: 14})
	label.Transform().SetParentByID(player.ID())

	hud := scene.CreateEntity("HUD")
	_, _ = ecs.AddComponent(hud, components.UI{Layout: "ui/hud.layout"})

	marker := scene.CreateEntity("Debug Marker")
	scene.SetTransient(marker.ID(), true)
}
