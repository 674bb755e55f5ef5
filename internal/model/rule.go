package model

// RuleDeps selects whether a compile rule emits GCC-style dependency
// file tracking.
type RuleDeps struct {
	GCCDepfile string // empty means no dependency tracking
}

// Rule describes a single Ninja build rule template: a command line
// (with ${in}/${out} and other variable references still unexpanded),
// an optional input extension it applies to, and an output extension
// suffix. Rules are collected from a context and all its ancestors,
// keyed by input extension.
type Rule struct {
	Name    string
	Cmd     string
	In      string // input extension this rule applies to, e.g. "c"
	Out     string // output extension suffix, e.g. "o"
	Context string
	Options map[string]string
	Deps    RuleDeps
	Rspfile string
	RspfileContent string
	Pool    string
	Always  bool
}
