// Package model holds the data types the resolver and generator operate
// on: dependencies, modules, rules, and tasks.
package model

import "fmt"

// DependencyKind tags the four dependency shapes a module selects or
// imports can declare.
type DependencyKind int

const (
	DepHard DependencyKind = iota
	DepSoft
	DepIfThenHard
	DepIfThenSoft
)

// Dependency is a tagged union over a plain hard/soft requirement and a
// conditional one gated on another module's presence ("if Other is
// resolved, then Name is required/preferred too"). Generic over T so
// the same shape serves both declaration-time dependencies (named by
// string) and any future richer handle, without resorting to an
// interface with per-kind implementations.
type Dependency[T any] struct {
	Kind  DependencyKind
	Other T // only meaningful for DepIfThenHard/DepIfThenSoft
	Name  T
}

func Hard[T any](name T) Dependency[T]         { return Dependency[T]{Kind: DepHard, Name: name} }
func Soft[T any](name T) Dependency[T]         { return Dependency[T]{Kind: DepSoft, Name: name} }
func IfThenHard[T any](other, name T) Dependency[T] {
	return Dependency[T]{Kind: DepIfThenHard, Other: other, Name: name}
}
func IfThenSoft[T any](other, name T) Dependency[T] {
	return Dependency[T]{Kind: DepIfThenSoft, Other: other, Name: name}
}

// GetName returns the dependency's subject name (the second element for
// conditional dependencies, matching the original's get_name).
func (d Dependency[T]) GetName() string {
	return fmt.Sprint(d.Name)
}
