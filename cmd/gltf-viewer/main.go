// Command gltf-viewer opens a window and renders a glTF scene with WebGPU.
//
// Drag with the left mouse button to orbit, scroll to zoom. Space pauses the animation,
// N selects the next one and F frames the scene again. Escape quits.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/window"
)

var errMissingScene = errors.New("expected exactly one scene file")

func main() {
	app := cli.NewApp()
	app.Name = "gltf-viewer"
	app.Usage = "render a glTF 2.0 scene in a window"
	app.Version = "0.1.0"
	app.ArgsUsage = "scene.gltf|scene.glb"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file, defaults to ./oxy-gltf.yaml or the user config dir",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		cli.BoolFlag{
			Name:  "no-vsync",
			Usage: "present immediately instead of waiting for vertical blank",
		},
		cli.IntFlag{
			Name:  "animation, a",
			Usage: "animation to play, -1 disables playback",
		},
		cli.Float64Flag{
			Name:  "speed",
			Usage: "animation playback speed",
		},
		cli.BoolFlag{
			Name:  "profile",
			Usage: "log frame statistics every second",
		},
		cli.BoolFlag{
			Name:  "flip-y",
			Usage: "negate the Y axis of positions and normals",
		},
	}
	app.Action = run

	err := app.Run(os.Args)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errMissingScene
	}
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	applyOverrides(ctx, cfg)
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Viewer.Title),
		window.WithSize(cfg.Viewer.Width, cfg.Viewer.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	v, err := newViewer(win, cfg, ctx.Args().First())
	if err != nil {
		return err
	}
	defer v.release()

	win.ProcessMessages()
	return v.err
}

func applyOverrides(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("log-level") {
		cfg.Logging.Level = ctx.String("log-level")
	}
	if ctx.Bool("no-vsync") {
		cfg.Viewer.VSync = false
	}
	if ctx.IsSet("animation") {
		cfg.Viewer.Animation = ctx.Int("animation")
	}
	if ctx.IsSet("speed") {
		cfg.Viewer.AnimationSpeed = float32(ctx.Float64("speed"))
	}
	if ctx.Bool("profile") {
		cfg.Viewer.Profiling = true
	}
	if ctx.Bool("flip-y") {
		cfg.Loader.FlipY = true
	}
}
