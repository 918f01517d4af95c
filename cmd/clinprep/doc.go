// Package clinprep provides the command-line interface for the clinprep
// tool. It configures subcommands (redact, embed, seed), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/clinprep/cmd/clinprep"
//	func main() { clinprep.Execute() }
package clinprep
