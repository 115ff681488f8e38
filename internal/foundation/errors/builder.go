package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with its default severity.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: policyFor(category).severity,
		message:  message,
	}}
}

// WrapError starts an error that wraps err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Build returns the error. The builder may be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// ConfigError reports a problem with _config.yml, flags or the environment.
func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

// ValidationError reports settings that decode but do not make sense together.
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

// ParserError drops the page being parsed.
func ParserError(message string) *ErrorBuilder { return NewError(CategoryParser, message) }

// TemplateError drops the page being rendered.
func TemplateError(message string) *ErrorBuilder { return NewError(CategoryTemplate, message) }

// ScaffoldError reports a quickstart that cannot find its scaffold.
func ScaffoldError(message string) *ErrorBuilder { return NewError(CategoryScaffold, message) }

// InternalError reports a programming error.
func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
