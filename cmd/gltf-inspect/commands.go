package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

var errMissingScene = errors.New("expected exactly one scene file")

// setup loads the configuration, applies global flag overrides and initialises the logger.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	applyOverrides(ctx, cfg)
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(ctx *cli.Context, cfg *config.Config) {
	if ctx.GlobalIsSet("log-level") {
		cfg.Logging.Level = ctx.GlobalString("log-level")
	}
	if ctx.GlobalBool("flip-y") {
		cfg.Loader.FlipY = true
	}
	if ctx.GlobalBool("pre-transform") {
		cfg.Loader.PreTransformVertices = true
	}
	if ctx.GlobalBool("premultiply") {
		cfg.Loader.PreMultiplyVertexColors = true
	}
	if ctx.GlobalBool("no-images") {
		cfg.Loader.DontLoadImages = true
	}
	if ctx.GlobalIsSet("workers") {
		cfg.Loader.ImageWorkers = ctx.GlobalInt("workers")
	}
}

// loadScene loads the single scene argument on a headless device.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errMissingScene
	}
	cfg, err := setup(ctx)
	if err != nil {
		return nil, err
	}

	l := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithDevice(renderer.NewHeadlessDevice()),
		loader.WithLoaderConfig(cfg.Loader),
	)
	path := ctx.Args().First()
	s, err := l.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Info("scene loaded",
		zap.String("path", path),
		zap.Stringer("flags", l.Flags()),
		zap.Int("diagnostics", len(s.Diagnostics)),
	)
	return s, nil
}

// ShowInfo prints scene statistics and diagnostics.
func ShowInfo(ctx *cli.Context) error {
	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, infoTable(s))
	if len(s.Diagnostics) > 0 {
		fmt.Fprint(os.Stdout, diagnosticsTable(s))
	}
	return nil
}

// ShowNodes prints the node table.
func ShowNodes(ctx *cli.Context) error {
	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, nodesTable(s))
	return nil
}

// ShowMaterials prints the material table.
func ShowMaterials(ctx *cli.Context) error {
	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, materialsTable(s))
	return nil
}

// ShowAnimations prints the animation table.
func ShowAnimations(ctx *cli.Context) error {
	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, animationsTable(s))
	return nil
}

// SampleAnimation applies one animation at a time and prints the resulting transforms.
func SampleAnimation(ctx *cli.Context) error {
	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	index, err := resolveAnimation(s, ctx.String("animation"))
	if err != nil {
		return err
	}
	t := float32(ctx.Float64("time"))
	if err := s.UpdateAnimation(index, t); err != nil {
		return err
	}
	logger.Info("animation sampled",
		zap.String("animation", s.Animations[index].Name),
		zap.Float32("time", t),
	)
	fmt.Fprint(os.Stdout, nodesTable(s))
	return nil
}

// resolveAnimation accepts an animation index or name.
func resolveAnimation(s *scene.Scene, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(s.Animations) {
			return 0, fmt.Errorf("%w: %d of %d", scene.ErrAnimationIndex, i, len(s.Animations))
		}
		return i, nil
	}
	if i := s.AnimationByName(ref); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("%w: no animation named %q", scene.ErrAnimationIndex, ref)
}
