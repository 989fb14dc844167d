package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/scenecore/ecs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type Config struct {
	Scene   SceneConfig   `toml:"scene"`
	Logging LoggingConfig `toml:"logging"`
	Stress  StressConfig  `toml:"stress"`
}

type SceneConfig struct {
	MaxHierarchyDepth  int           `toml:"max_hierarchy_depth"`
	HierarchyWarnDepth int           `toml:"hierarchy_warn_depth"`
	MaxAwakeIterations int           `toml:"max_awake_iterations"`
	FixedTimestep      time.Duration `toml:"fixed_timestep"`
	MaxFixedSteps      int           `toml:"max_fixed_steps"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type StressConfig struct {
	Entities      int           `toml:"entities"`
	MaxDepth      int           `toml:"max_depth"`
	ReparentRatio float64       `toml:"reparent_ratio"` // share of worker ops that reparent (0.0-1.0)
	Workers       int           `toml:"workers"`
	Duration      time.Duration `toml:"duration"`
	Tick          time.Duration `toml:"tick"`
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Scene: SceneConfig{
			MaxHierarchyDepth:  ecs.DefaultMaxHierarchyDepth,
			HierarchyWarnDepth: ecs.DefaultHierarchyWarnDepth,
			MaxAwakeIterations: ecs.DefaultMaxAwakeIterations,
			FixedTimestep:      20 * time.Millisecond,
			MaxFixedSteps:      5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Stress: StressConfig{
			Entities:      10000,
			MaxDepth:      16,
			ReparentRatio: 0.8,
			Workers:       4,
			Duration:      5 * time.Second,
			Tick:          16 * time.Millisecond,
		},
	}
}

// SceneOptions converts the scene section into ecs.SceneOptions.
func (c *Config) SceneOptions(log *zap.Logger) []ecs.SceneOption {
	return []ecs.SceneOption{
		ecs.WithLogger(log),
		ecs.WithHierarchyLimits(c.Scene.HierarchyWarnDepth, c.Scene.MaxHierarchyDepth),
		ecs.WithMaxAwakeIterations(c.Scene.MaxAwakeIterations),
	}
}

// LifecycleSystem builds the system that drives scene hooks at the configured timestep.
func (c *Config) LifecycleSystem() *ecs.LifecycleSystem {
	return &ecs.LifecycleSystem{
		FixedStep:     c.Scene.FixedTimestep.Seconds(),
		MaxFixedSteps: c.Scene.MaxFixedSteps,
	}
}
