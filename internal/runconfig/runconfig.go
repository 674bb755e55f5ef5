// Package runconfig layers laze's run-time configuration: a global
// TOML defaults file, then LAZE_* environment variables, then CLI
// flags, in that increasing order of precedence - mirroring the
// teacher's own "global base config, then project config, then CLI
// flag overrides" loading shape (cmd/lci/main.go's
// loadConfigWithOverrides, internal/config's layered Load).
package runconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/laze/internal/lazerr"
)

// FileDefaults is the shape of ~/.config/laze/lazerc.toml: personal
// defaults for selectors a user would otherwise type on every
// invocation.
type FileDefaults struct {
	Builders []string `toml:"builders"`
	Apps     []string `toml:"apps"`
	Select   []string `toml:"select"`
	Disable  []string `toml:"disable"`
	Define   []string `toml:"define"`
	Jobs     int      `toml:"jobs"`
	LogLevel string   `toml:"log_level"`
}

// LoadFileDefaults reads and parses path, returning an empty
// FileDefaults (not an error) when the file does not exist - a global
// defaults file is optional.
func LoadFileDefaults(path string) (FileDefaults, error) {
	var d FileDefaults
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return d, lazerr.NewExternalError("read global config "+path, err)
	}
	if err := toml.Unmarshal(data, &d); err != nil {
		return d, lazerr.NewConfigurationError("invalid TOML in " + path).WithUnderlying(err)
	}
	return d, nil
}

// DefaultPath returns "~/.config/laze/lazerc.toml", or "" if the
// user's home directory can't be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "laze", "lazerc.toml")
}

// Selectors holds the effective value of every selector the "build"
// and "task" subcommands take, after env-var and CLI-flag overrides
// have been layered on top of the file defaults.
type Selectors struct {
	Builders        []string
	Apps            []string
	Select          []string
	Disable         []string
	Define          map[string]string
	BuildDir        string
	Jobs            int
	GenerateOnly    bool
	CompileCommands bool
	Partition       string
	LogLevel        string
}

// Resolve builds the effective Selectors: start from file, override
// with LAZE_* environment variables, then override with the non-zero
// fields of cliOverride (a partially-populated Selectors built from
// parsed CLI flags) - flags beat env beat file, matching the teacher's
// precedence order exactly.
func Resolve(file FileDefaults, cliOverride Selectors) Selectors {
	s := Selectors{
		Builders: file.Builders,
		Apps:     file.Apps,
		Select:   file.Select,
		Disable:  file.Disable,
		Define:   defineMap(file.Define),
		Jobs:     file.Jobs,
		LogLevel: file.LogLevel,
	}

	applyEnv("LAZE_BUILDERS", &s.Builders)
	applyEnv("LAZE_APPS", &s.Apps)
	applyEnv("LAZE_SELECT", &s.Select)
	applyEnv("LAZE_DISABLE", &s.Disable)
	if v, ok := os.LookupEnv("LAZE_DEFINE"); ok {
		for k, val := range defineMap(splitCSV(v)) {
			s.Define[k] = val
		}
	}
	if v, ok := os.LookupEnv("LAZE_JOBS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Jobs = n
		}
	}
	if v, ok := os.LookupEnv("LAZE_GLOBAL"); ok {
		s.BuildDir = v
	}
	if v, ok := os.LookupEnv("LAZE_LOG_LEVEL"); ok {
		s.LogLevel = v
	}

	if len(cliOverride.Builders) > 0 {
		s.Builders = cliOverride.Builders
	}
	if len(cliOverride.Apps) > 0 {
		s.Apps = cliOverride.Apps
	}
	if len(cliOverride.Select) > 0 {
		s.Select = cliOverride.Select
	}
	if len(cliOverride.Disable) > 0 {
		s.Disable = cliOverride.Disable
	}
	for k, v := range cliOverride.Define {
		s.Define[k] = v
	}
	if cliOverride.BuildDir != "" {
		s.BuildDir = cliOverride.BuildDir
	}
	if cliOverride.Jobs != 0 {
		s.Jobs = cliOverride.Jobs
	}
	if cliOverride.LogLevel != "" {
		s.LogLevel = cliOverride.LogLevel
	}
	s.GenerateOnly = cliOverride.GenerateOnly
	s.CompileCommands = cliOverride.CompileCommands
	s.Partition = cliOverride.Partition

	if s.BuildDir == "" {
		s.BuildDir = "build"
	}
	if s.Jobs == 0 {
		s.Jobs = 1
	}
	return s
}

func applyEnv(name string, dst *[]string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = splitCSV(v)
	}
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defineMap(entries []string) map[string]string {
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
