// Package execs provides a uniform abstraction for invoking external
// commands.
//
// It is primarily implemented for the `kubectl` and container tooling
// wrappers, which need to distinguish "the tool ran and exited nonzero"
// from "the tool could not be launched at all".
package execs
