// Package core provides a small, stable facade over clinprep's internal
// packages for pipelines that embed it as a library. It re-exports a narrow
// API surface so callers can depend on a stable import path without
// importing internal implementation packages.
//
// Example:
//
//	gens := core.SetSeed(42, "cuda:0")
//	clean, err := core.ReplaceEntitiesWithPHI(notes)
//	if err != nil { /* handle */ }
//	cls, err := core.GetCLSRepr(ctx, model, batches, "cuda:0")
package core
