package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/generator"
	"github.com/standardbeagle/laze/internal/lazelog"
	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/loader"
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/runconfig"
)

var selectorFlags = []cli.Flag{
	&cli.StringSliceFlag{Name: "builder", Aliases: []string{"b"}, Usage: "Builder context to generate for (repeatable, default: all)"},
	&cli.StringSliceFlag{Name: "app", Aliases: []string{"a"}, Usage: "Binary to generate (repeatable, default: all)"},
	&cli.StringSliceFlag{Name: "select", Aliases: []string{"s"}, Usage: "Force-select a module (repeatable), same shorthand as a module's own select entries"},
	&cli.StringSliceFlag{Name: "disable", Aliases: []string{"d"}, Usage: "Disable a module by name (repeatable)"},
	&cli.StringSliceFlag{Name: "define", Aliases: []string{"D"}, Usage: "Define KEY=VALUE in every pair's global environment (repeatable)"},
	&cli.StringFlag{Name: "build-dir", Aliases: []string{"B"}, Usage: "Build output directory"},
	&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "Parallel job count for the underlying ninja invocation"},
	&cli.StringFlag{Name: "partition", Aliases: []string{"P"}, Usage: "Build only the Mth of N (builder,binary) pairs, as \"M/N\" or \"count:M/N\""},
}

// resolveSelectors layers ~/.config/laze/lazerc.toml, LAZE_* env vars,
// and this command's own flags into one effective Selectors, in the
// teacher's flags-beat-env-beat-file precedence order.
func resolveSelectors(c *cli.Context) (runconfig.Selectors, error) {
	file, err := runconfig.LoadFileDefaults(runconfig.DefaultPath())
	if err != nil {
		return runconfig.Selectors{}, err
	}

	override := runconfig.Selectors{
		Builders:  c.StringSlice("builder"),
		Apps:      c.StringSlice("app"),
		Select:    c.StringSlice("select"),
		Disable:   c.StringSlice("disable"),
		Define:    defineFlagMap(c.StringSlice("define")),
		BuildDir:  c.String("build-dir"),
		Jobs:      c.Int("jobs"),
		Partition: c.String("partition"),
	}
	if c.IsSet("generate-only") {
		override.GenerateOnly = c.Bool("generate-only")
	}
	if c.IsSet("compile-commands") {
		override.CompileCommands = c.Bool("compile-commands")
	}
	switch {
	case c.Bool("verbose"):
		override.LogLevel = "verbose"
	case c.Bool("quiet"):
		override.LogLevel = "quiet"
	}

	return runconfig.Resolve(file, override), nil
}

func defineFlagMap(entries []string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

// parsePartition parses "M/N" or "count:M/N" (1-based) into a
// generator.Partition.
func parsePartition(s string) (generator.Partition, error) {
	if s == "" {
		return generator.Partition{}, nil
	}
	m, n, ok := strings.Cut(strings.TrimPrefix(s, "count:"), "/")
	if !ok {
		return generator.Partition{}, lazerr.NewConfigurationError(fmt.Sprintf("invalid partition %q, want \"M/N\"", s))
	}
	mi, err1 := strconv.Atoi(m)
	ni, err2 := strconv.Atoi(n)
	if err1 != nil || err2 != nil || mi < 1 || ni < mi {
		return generator.Partition{}, lazerr.NewConfigurationError(fmt.Sprintf("invalid partition %q, want \"M/N\" with 1<=M<=N", s))
	}
	return generator.Partition{Index: mi - 1, Total: ni}, nil
}

func selectsFromNames(names []string) []model.Dependency[string] {
	out := make([]model.Dependency[string], 0, len(names))
	for _, n := range names {
		out = append(out, loader.ParseDependency(n))
	}
	return out
}

func applyLogLevel(level string) {
	lazelog.SetLevel(lazelog.ParseLevel(level))
}

func loadProject(root string) (*contextbag.ContextBag, error) {
	bag, err := loader.Load(root)
	if err != nil {
		return nil, err
	}
	return bag, nil
}
