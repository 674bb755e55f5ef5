// Package scaffold implements "laze new PATH": writing an embedded
// starter project (one builder, one module) to a target directory -
// grounded on original_source/src/new.rs, with TinyTemplate's
// "{{var}}" rendering swapped for the standard library's text/template
// since this package owns its own template assets rather than porting
// the original's.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/standardbeagle/laze/internal/lazerr"
)

//go:embed templates
var templates embed.FS

const templatesRoot = "templates"

// context is the data every ".in" template file is rendered against.
type context struct {
	ProjectName string
}

// Names lists the embedded template names available to "laze new -t".
func Names() ([]string, error) {
	entries, err := fs.ReadDir(templates, templatesRoot)
	if err != nil {
		return nil, lazerr.NewExternalError("list templates", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// New scaffolds templateName into path: path must not exist, or must
// be an empty directory. Every ".in" file is rendered through
// text/template against the project's name (the target directory's
// base name) and written without the ".in" suffix; every other file is
// copied byte for byte.
func New(path, templateName string) error {
	prefix := templatesRoot + "/" + templateName
	if _, err := fs.Stat(templates, prefix); err != nil {
		return lazerr.NewConfigurationError(fmt.Sprintf("no internal template named %q", templateName))
	}

	empty, err := isEmptyOrAbsent(path)
	if err != nil {
		return lazerr.NewExternalError("inspect "+path, err)
	}
	if !empty {
		return lazerr.NewExternalError("scaffold "+path, fmt.Errorf("path %q exists and is not empty", path))
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return lazerr.NewExternalError("create "+path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return lazerr.NewExternalError("resolve "+path, err)
	}
	ctx := context{ProjectName: filepath.Base(abs)}

	return fs.WalkDir(templates, prefix, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, prefix), "/")
		return writeTemplateFile(p, filepath.Join(path, rel), ctx)
	})
}

func writeTemplateFile(embeddedPath, outPath string, ctx context) error {
	data, err := templates.ReadFile(embeddedPath)
	if err != nil {
		return lazerr.NewExternalError("read template "+embeddedPath, err)
	}

	if strings.HasSuffix(outPath, ".in") {
		outPath = strings.TrimSuffix(outPath, ".in")
		tt, err := template.New(filepath.Base(embeddedPath)).Parse(string(data))
		if err != nil {
			return lazerr.NewConfigurationError(fmt.Sprintf("parsing template %q: %v", embeddedPath, err))
		}
		var rendered bytes.Buffer
		if err := tt.Execute(&rendered, ctx); err != nil {
			return lazerr.NewConfigurationError(fmt.Sprintf("rendering template %q: %v", embeddedPath, err))
		}
		data = rendered.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return lazerr.NewExternalError("create "+filepath.Dir(outPath), err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return lazerr.NewExternalError("write "+outPath, err)
	}
	return nil
}

func isEmptyOrAbsent(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
