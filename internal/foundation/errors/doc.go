// Package errors provides the classified error type shared by every quire package.
//
// Categories decide how a failure propagates through a build:
//   - parser and template errors are page-scoped: the page is dropped and the run continues
//   - config and validation errors abort before any work begins (exit code 1)
//   - scaffold errors come from quickstart (exit code 3)
//   - everything else aborts the build (exit code 11, or 10 for internal errors)
//
// Example usage:
//
//	err := errors.ParserError("markdown conversion failed").
//		WithContext("path", p.Path).
//		WithCause(cause).
//		Build()
package errors
