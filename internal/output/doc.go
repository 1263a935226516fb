// Package output provides colored terminal output for the outreach CLI.
//
// The package offers a simple API for printing colored messages to the terminal
// with automatic color detection and graceful fallback for non-terminal environments.
//
// Features:
//   - Automatic terminal detection
//   - NO_COLOR environment variable support
//   - Different message types (success, error, warning, info, step, detail)
//   - Workflow step lists and review stage boards
//   - A spinner for calls that report no progress
//   - Test-friendly with custom writers
//
// Example usage:
//
//	printer := output.NewPrinter()
//	printer.Success("Copy generated for %d platforms", n)
//	printer.Steps(progress.Dedup(events))
//	printer.Error("Workflow failed: %v", err)
package output
