// Package lazelog wraps the standard library "log" package with a
// verbosity level, matching the teacher's own idiom of gating
// log.Printf/log.Println calls behind a -v/-verbose flag rather than
// adopting a structured-logging library.
package lazelog

import (
	"io"
	"log"
	"os"
)

// Level is a verbosity threshold; higher levels print more.
type Level int

const (
	LevelQuiet Level = iota
	LevelNormal
	LevelVerbose
)

// ParseLevel maps a level name ("quiet" or "verbose"; anything else is
// LevelNormal), as given by LAZE_LOG_LEVEL or folded from -v/-q, to a Level.
func ParseLevel(s string) Level {
	switch s {
	case "quiet":
		return LevelQuiet
	case "verbose":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

var current = LevelNormal

// SetLevel sets the process-wide verbosity, consulted by Verbosef.
func SetLevel(l Level) { current = l }

// SetOutput redirects where log lines are written (tests redirect this
// to capture output instead of stderr).
func SetOutput(w io.Writer) { log.SetOutput(w) }

func init() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
}

// Printf logs at LevelNormal or above; it is silent at LevelQuiet.
func Printf(format string, args ...any) {
	if current >= LevelNormal {
		log.Printf(format, args...)
	}
}

// Verbosef logs only when the verbosity level is LevelVerbose, for the
// "-v" gated debug prints the teacher sprinkles through its indexing
// pipeline.
func Verbosef(format string, args ...any) {
	if current >= LevelVerbose {
		log.Printf(format, args...)
	}
}

// Errorf always logs, regardless of verbosity (errors are never quiet).
func Errorf(format string, args ...any) {
	log.Printf(format, args...)
}
