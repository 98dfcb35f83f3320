// Command gltf-inspect loads glTF scenes on the headless device and prints their contents.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
)

func main() {
	app := cli.NewApp()
	app.Name = "gltf-inspect"
	app.Usage = "inspect glTF 2.0 scenes without a GPU"
	app.Version = "0.1.0"
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
			Name:  "flip-y",
			Usage: "negate the Y axis of positions and normals",
		},
		cli.BoolFlag{
			Name:  "pre-transform",
			Usage: "bake node world transforms into vertices",
		},
		cli.BoolFlag{
			Name:  "premultiply",
			Usage: "multiply vertex colors by the material base color",
		},
		cli.BoolFlag{
			Name:  "no-images",
			Usage: "skip image decoding and texture uploads",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "image decoding workers",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "print scene statistics, bounds and load diagnostics",
			ArgsUsage: "scene.gltf|scene.glb",
			Action:    ShowInfo,
		},
		{
			Name:      "nodes",
			Usage:     "print the node hierarchy with world positions",
			ArgsUsage: "scene.gltf|scene.glb",
			Action:    ShowNodes,
		},
		{
			Name:      "materials",
			Usage:     "print materials and their texture slots",
			ArgsUsage: "scene.gltf|scene.glb",
			Action:    ShowMaterials,
		},
		{
			Name:      "animations",
			Usage:     "print animations with their time ranges",
			ArgsUsage: "scene.gltf|scene.glb",
			Action:    ShowAnimations,
		},
		{
			Name:  "sample",
			Usage: "evaluate an animation at a time and print node transforms",
			Description: `
Apply one animation at the given time, update every node and print the
resulting local and world translations.`,
			ArgsUsage: "scene.gltf|scene.glb",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "animation, a",
					Value: "0",
					Usage: "animation index or name",
				},
				cli.Float64Flag{
					Name:  "time, t",
					Usage: "time in seconds",
				},
			},
			Action: SampleAnimation,
		},
	}

	err := app.Run(os.Args)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
