// Package model defines the domain types and value objects for the
// runbox CLI.
//
// This package contains pure data structures with no external dependencies.
// Environments are resolved from the config file by internal/config and
// executed by internal/runner; the RunResult values produced there flow
// back through this package's types to the CLI summary output.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
