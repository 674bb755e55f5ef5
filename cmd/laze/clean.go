package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/lazelog"
)

var cleanCommand = &cli.Command{
	Name:  "clean",
	Usage: "Remove build output",
	Flags: append(append([]cli.Flag{}, selectorFlags...),
		&cli.BoolFlag{Name: "orphans-only", Aliases: []string{"u"}, Usage: "Prune only files no longer produced by the current project, instead of wiping the whole build directory"},
	),
	Action: cleanAction,
}

func cleanAction(c *cli.Context) error {
	root := c.String("root")
	sel, err := resolveSelectors(c)
	if err != nil {
		return err
	}
	applyLogLevel(sel.LogLevel)

	if !c.Bool("orphans-only") {
		lazelog.Printf("laze: removing %s", sel.BuildDir)
		return os.RemoveAll(sel.BuildDir)
	}

	bag, err := loadProject(root)
	if err != nil {
		return err
	}
	results, err := generateAll(bag, sel)
	if err != nil {
		return err
	}

	live := make(map[string]bool)
	for _, r := range results {
		for _, out := range r.writer.Outputs() {
			abs, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			live[abs] = true
		}
	}

	if _, err := os.Stat(sel.BuildDir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(sel.BuildDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Base(path) == "build.ninja" {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !live[abs] {
			lazelog.Printf("laze: pruning orphan %s", path)
			return os.Remove(path)
		}
		return nil
	})
}
