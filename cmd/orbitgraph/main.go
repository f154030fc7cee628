// Command orbitgraph lays out and renders a directory snapshot as an
// orbital solar system or a force-directed mesh.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "orbitgraph",
		Usage: "orbital and mesh layouts for a person and their groups",
		Description: `Load a directory export (YAML or JSON with a center record and its groups),
lay it out and either render PNG frames, print node positions, or explore it
interactively in the terminal.`,
		Suggest:                true,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			renderCommand(),
			layoutCommand(),
			viewCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
