// Package lazerr defines laze's four typed error classes: malformed or
// inconsistent project data (Configuration), a failed dependency
// resolution (Resolution), a failed variable expansion (Expansion),
// and a failure in something outside the core - a missing file, a
// failed subprocess (External).
package lazerr

import (
	"fmt"
	"time"
)

type Class string

const (
	ClassConfiguration Class = "configuration"
	ClassResolution    Class = "resolution"
	ClassExpansion     Class = "expansion"
	ClassExternal      Class = "external"
)

// ConfigurationError reports malformed or inconsistent project data:
// an unknown parent context, a duplicate module name, a module
// referencing an undefined context.
type ConfigurationError struct {
	Class      Class
	DefinedIn  string
	Detail     string
	Underlying error
	Timestamp  time.Time
}

func NewConfigurationError(detail string) *ConfigurationError {
	return &ConfigurationError{Class: ClassConfiguration, Detail: detail, Timestamp: time.Now()}
}

func (e *ConfigurationError) WithDefinedIn(path string) *ConfigurationError {
	e.DefinedIn = path
	return e
}

func (e *ConfigurationError) WithUnderlying(err error) *ConfigurationError {
	e.Underlying = err
	return e
}

func (e *ConfigurationError) Error() string {
	if e.DefinedIn != "" {
		return fmt.Sprintf("%s: %s", e.DefinedIn, e.Detail)
	}
	return e.Detail
}

func (e *ConfigurationError) Unwrap() error { return e.Underlying }

// ResolutionError reports a dependency resolution failure: a hard
// dependency on a disabled, conflicted, or unavailable module, or a
// provider that itself conflicts with what it provides.
type ResolutionError struct {
	Class      Class
	Builder    string
	Binary     string
	Module     string
	Dependency string
	Detail     string
	Underlying error
	Timestamp  time.Time
}

func NewResolutionError(builder, binary, module, dependency, detail string) *ResolutionError {
	return &ResolutionError{
		Class:      ClassResolution,
		Builder:    builder,
		Binary:     binary,
		Module:     module,
		Dependency: dependency,
		Detail:     detail,
		Timestamp:  time.Now(),
	}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("binary %s for builder %s: %s depends on %s: %s",
		e.Binary, e.Builder, e.Module, e.Dependency, e.Detail)
}

func (e *ResolutionError) Unwrap() error { return e.Underlying }

// ExpansionError reports a nested-environment expansion failure: a
// missing variable, an unclosed "${", a self-referential cycle, or an
// expression evaluation error.
type ExpansionError struct {
	Class      Class
	Key        string
	Underlying error
	Timestamp  time.Time
}

func NewExpansionError(key string, underlying error) *ExpansionError {
	return &ExpansionError{Class: ClassExpansion, Key: key, Underlying: underlying, Timestamp: time.Now()}
}

func (e *ExpansionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("expansion failed for %q: %v", e.Key, e.Underlying)
	}
	return fmt.Sprintf("expansion failed: %v", e.Underlying)
}

func (e *ExpansionError) Unwrap() error { return e.Underlying }

// ExternalError reports a failure outside the core: a task's required
// variable or module missing, a subprocess exiting non-zero, a file
// that could not be read.
type ExternalError struct {
	Class      Class
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewExternalError(op string, underlying error) *ExternalError {
	return &ExternalError{Class: ClassExternal, Operation: op, Underlying: underlying, Timestamp: time.Now()}
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Underlying)
}

func (e *ExternalError) Unwrap() error { return e.Underlying }

// RequiredVarMissing builds the ExternalError for a task's
// "required_vars" check.
func RequiredVarMissing(taskName, variable string) *ExternalError {
	return NewExternalError(fmt.Sprintf("task %q", taskName), fmt.Errorf("required variable %q not set", variable))
}

// RequiredModuleMissing builds the ExternalError for a task's
// "required_modules" check.
func RequiredModuleMissing(taskName, module string) *ExternalError {
	return NewExternalError(fmt.Sprintf("task %q", taskName), fmt.Errorf("required module %q not selected", module))
}
