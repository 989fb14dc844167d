package main

import (
	"fmt"
	"os"
	"time"

	"github.com/plus3/scenecore/components"
	"github.com/plus3/scenecore/ecs"
	"github.com/plus3/scenecore/internal/config"
	"github.com/plus3/scenecore/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger

	flagEntities int
	flagDuration time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "scenectl",
		Short:         "Inspect, generate and stress test scene files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("SCENECTL_CONFIG"),
		"path to a TOML config file (env SCENECTL_CONFIG)")

	root.AddCommand(
		newStressCmd(a),
		newGenCmd(a),
		newDumpCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// newScene builds a scene with every built-in component registered.
func (a *app) newScene() *ecs.Scene {
	registry := ecs.NewComponentRegistry(ecs.WithRegistryLogger(a.log))
	components.RegisterBuiltins(registry)
	registry.FinalizeRegistration()
	return ecs.NewScene(registry, a.cfg.SceneOptions(a.log)...)
}
