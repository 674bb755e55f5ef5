package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/generator"
	"github.com/standardbeagle/laze/internal/taskrunner"
)

var taskCommand = &cli.Command{
	Name:      "task",
	Usage:     "Run a named task for the matching (builder, binary) pairs",
	ArgsUsage: "<name> [args...]",
	Flags: append(append([]cli.Flag{}, selectorFlags...),
		&cli.IntFlag{Name: "keep-going", Aliases: []string{"k"}, Usage: "Stop after N task failures (0 = never stop early)"},
	),
	Action: taskAction,
}

func taskAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: laze task <name> [args...]")
	}
	taskName := c.Args().First()
	taskArgs := c.Args().Tail()

	root := c.String("root")
	sel, err := resolveSelectors(c)
	if err != nil {
		return err
	}
	applyLogLevel(sel.LogLevel)

	bag, err := loadProject(root)
	if err != nil {
		return err
	}
	builderResults, err := generateAll(bag, sel)
	if err != nil {
		return err
	}

	var pairs []generator.Result
	needsBuild := false
	for _, br := range builderResults {
		for _, p := range br.pairs {
			pairs = append(pairs, p)
			if t, ok := p.Info.Tasks[taskName]; ok && t.BuildApp() {
				needsBuild = true
			}
		}
	}

	if !taskrunner.Matches(pairs, taskName) {
		return fmt.Errorf("no (builder, binary) pair declares task %q", taskName)
	}

	if needsBuild {
		if err := invokeNinja(sel.BuildDir, builderResults, sel.Jobs); err != nil {
			return err
		}
	} else if err := writeNinjaFiles(sel.BuildDir, builderResults); err != nil {
		return err
	}

	verbose := 0
	if sel.LogLevel == "verbose" {
		verbose = 1
	}
	results, failures := taskrunner.Run(pairs, taskName, root, taskArgs, verbose, c.Int("keep-going"))
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("laze: task %s failed for %s/%s: %v\n", taskName, r.Match.Builder, r.Match.Binary, r.Err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d task invocation(s) failed", failures)
	}
	return nil
}
