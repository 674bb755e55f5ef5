package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/generator"
	"github.com/standardbeagle/laze/internal/lazelog"
	"github.com/standardbeagle/laze/internal/ninjawriter"
	"github.com/standardbeagle/laze/internal/runconfig"
)

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "Resolve the selected (builder, binary) pairs and emit their Ninja build files",
	Flags: append(append([]cli.Flag{}, selectorFlags...),
		&cli.BoolFlag{Name: "generate-only", Aliases: []string{"G"}, Usage: "Only (re)generate build.ninja files, never invoke ninja"},
		&cli.BoolFlag{Name: "compile-commands", Aliases: []string{"c"}, Usage: "Also emit compile_commands.json in the build directory"},
		&cli.BoolFlag{Name: "watch", Usage: "Regenerate on every project file change"},
	),
	Action: buildAction,
}

func buildAction(c *cli.Context) error {
	root := c.String("root")
	sel, err := resolveSelectors(c)
	if err != nil {
		return err
	}
	applyLogLevel(sel.LogLevel)

	run := func() error {
		bag, err := loadProject(root)
		if err != nil {
			return err
		}
		results, err := generateAll(bag, sel)
		if err != nil {
			return err
		}
		if sel.CompileCommands {
			if err := writeCompileCommands(sel.BuildDir, results); err != nil {
				return err
			}
		}
		if !sel.GenerateOnly {
			if err := invokeNinja(sel.BuildDir, results, sel.Jobs); err != nil {
				return err
			}
		}
		return nil
	}

	if err := run(); err != nil {
		return err
	}
	if !c.Bool("watch") {
		return nil
	}
	return watchAndRerun(root, run)
}

// builderResult holds one builder's generated pairs and the Writer
// they were emitted into: the spec's persisted-state layout keeps one
// build.ninja per builder, so every builder is generated into its own
// Writer and rendered to its own file.
type builderResult struct {
	builder string
	writer  *ninjawriter.Writer
	pairs   []generator.Result
}

func generateAll(bag *contextbag.ContextBag, sel runconfig.Selectors) ([]builderResult, error) {
	builders := sel.Builders
	if len(builders) == 0 {
		for _, b := range bag.Builders() {
			builders = append(builders, b.Name)
		}
	}

	partition, err := parsePartition(sel.Partition)
	if err != nil {
		return nil, err
	}

	var out []builderResult
	for _, name := range builders {
		writer := ninjawriter.New()
		opts := generator.Options{
			BuildDir:    sel.BuildDir,
			Mode:        generator.ModeGlobal,
			Builders:    []string{name},
			Apps:        sel.Apps,
			CLISelects:  selectsFromNames(sel.Select),
			CLIDisables: sel.Disable,
			Defines:     sel.Define,
			Partition:   partition,
		}
		results, err := generator.Generate(bag, writer, opts)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			lazelog.Printf("laze: builder %q resolved no binaries, skipping", name)
			continue
		}
		out = append(out, builderResult{builder: name, writer: writer, pairs: results})
	}
	return out, nil
}

func ninjaPath(buildDir, builder string) string {
	return filepath.Join(buildDir, builder, "build.ninja")
}

func writeNinjaFiles(buildDir string, results []builderResult) error {
	for _, r := range results {
		path := ninjaPath(buildDir, r.builder)
		if err := writeFileAtomic(path, func(f *os.File) error { return r.writer.Render(f) }); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic renders into a temp file beside path and renames it
// into place, so a concurrent reader (or a crash mid-write) never sees
// a partially written build.ninja.
func writeFileAtomic(path string, render func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".laze-tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func invokeNinja(buildDir string, results []builderResult, jobs int) error {
	if err := writeNinjaFiles(buildDir, results); err != nil {
		return err
	}
	for _, r := range results {
		if err := runNinja(filepath.Join(buildDir, r.builder), jobs); err != nil {
			return err
		}
	}
	return nil
}

type compileCommandsEntry struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

func writeCompileCommands(buildDir string, results []builderResult) error {
	var entries []compileCommandsEntry
	for _, r := range results {
		for _, pair := range r.pairs {
			for _, cc := range pair.Info.CompileCommand {
				entries = append(entries, compileCommandsEntry{Directory: cc.Directory, Command: cc.Command, File: cc.File})
			}
		}
	}
	path := filepath.Join(buildDir, "compile_commands.json")
	return writeFileAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	})
}

func watchAndRerun(root string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addProjectDirs(watcher, root); err != nil {
		return err
	}

	lazelog.Printf("laze: watching %s for project file changes", root)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "laze.yml" {
				continue
			}
			lazelog.Printf("laze: %s changed, regenerating", event.Name)
			if err := run(); err != nil {
				lazelog.Errorf("laze: regenerate failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			lazelog.Errorf("laze: watch error: %v", err)
		}
	}
}

func addProjectDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build" || (d.Name() != "." && d.Name()[0] == '.') {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

