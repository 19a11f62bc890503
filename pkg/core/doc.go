// Package core provides a small, stable facade over colsense's internal
// packages for external integrations. It re-exports a narrow API surface so
// other tools can depend on a stable import path without reaching into
// internal implementation packages.
//
// Example:
//
//	cols, err := core.ReadCSV(f, "customers.csv")
//	if err != nil { /* handle */ }
//	results := core.Classify(ctx, core.Config{}, cols, os.Getenv("GEMINI_API_KEY"))
//	_ = core.MarshalResults(os.Stdout, results)
package core
