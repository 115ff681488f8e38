package errors

import "maps"

// ErrorCategory decides how a failure propagates through a build and which
// exit code the CLI reports for it.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryParser     ErrorCategory = "parser"
	CategoryTemplate   ErrorCategory = "template"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryPlugin     ErrorCategory = "plugin"
	CategoryScaffold   ErrorCategory = "scaffold"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

type categoryPolicy struct {
	severity   ErrorSeverity
	exitCode   int
	pageScoped bool
}

// policies is consulted for default severities, exit codes and whether a
// failure only drops the page it happened on.
var policies = map[ErrorCategory]categoryPolicy{
	CategoryConfig:     {severity: SeverityFatal, exitCode: 1},
	CategoryValidation: {severity: SeverityFatal, exitCode: 1},
	CategoryParser:     {severity: SeverityWarning, exitCode: 11, pageScoped: true},
	CategoryTemplate:   {severity: SeverityWarning, exitCode: 11, pageScoped: true},
	CategoryBuild:      {severity: SeverityFatal, exitCode: 11},
	CategoryFileSystem: {severity: SeverityError, exitCode: 11},
	CategoryPlugin:     {severity: SeverityWarning, exitCode: 11},
	CategoryScaffold:   {severity: SeverityFatal, exitCode: 3},
	CategoryInternal:   {severity: SeverityFatal, exitCode: 10},
}

func policyFor(c ErrorCategory) categoryPolicy {
	if p, ok := policies[c]; ok {
		return p
	}
	return categoryPolicy{severity: SeverityError, exitCode: 1}
}

// ErrorContext holds structured key/value details, emitted as log attributes.
type ErrorContext map[string]any

// with returns a copy of c that also holds key.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
