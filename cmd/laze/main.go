// Command laze is the meta build system's command-line surface:
// resolves (builder, binary) pairs against a project tree and emits
// Ninja build files, runs declared tasks, and cleans or scaffolds
// projects. Resolution, environment assembly, and the Ninja graph
// itself live in the internal packages; this command only parses
// flags, loads the project, and wires them together - mirroring the
// way cmd/lci/main.go stays thin over internal/indexing.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/model"
)

var version = "dev"

func main() {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT)
	go func() {
		for range sigint {
			if !model.IgnoringSigint() {
				fmt.Fprintln(os.Stderr, "laze: interrupted")
				os.Exit(130)
			}
		}
	}()

	app := &cli.App{
		Name:                   "laze",
		Usage:                  "A generic, modular build system generator",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root directory", Value: "."},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose logging"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Quiet logging"},
		},
		Commands: []*cli.Command{
			buildCommand,
			taskCommand,
			cleanCommand,
			newCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "laze:", err)
		os.Exit(1)
	}
}
