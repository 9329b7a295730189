package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Version registry errors (VERSION-001 to VERSION-099)
	ErrCodeUnsupportedVersion ErrorCode = "VERSION-001"
	ErrCodeArtifactMissing    ErrorCode = "VERSION-002"

	// Engine invocation errors (ENGINE-001 to ENGINE-099)
	ErrCodeEngineLaunchFailed    ErrorCode = "ENGINE-001"
	ErrCodeEngineExecutionFailed ErrorCode = "ENGINE-002"
	ErrCodeEngineTimeout         ErrorCode = "ENGINE-003"
	ErrCodeEngineNoOutput        ErrorCode = "ENGINE-004"

	// Request errors (REQUEST-001 to REQUEST-099)
	ErrCodeMissingParameter ErrorCode = "REQUEST-001"
	ErrCodeInvalidRequest   ErrorCode = "REQUEST-002"

	// Codec notices (CODEC-001 to CODEC-099). Never returned to callers.
	ErrCodeCodecParseSkipped ErrorCode = "CODEC-001"

	// Audit errors (AUDIT-001 to AUDIT-099)
	ErrCodeAuditUnavailable ErrorCode = "AUDIT-001"
	ErrCodeAuditDisabled    ErrorCode = "AUDIT-002"
)

// GatewayError is a coded error with optional suggestions and cause
type GatewayError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Detail returns the code and message without suggestions, suitable for
// single-line reporting (batch item errors, API responses).
func (e *GatewayError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GatewayError with the same code.
// This lets callers compare against sentinel values such as
// errors.New(ErrCodeEngineTimeout, "").
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new GatewayError
func New(code ErrorCode, message string) *GatewayError {
	return &GatewayError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GatewayError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GatewayError {
	return &GatewayError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GatewayError) WithSuggestion(suggestion string) *GatewayError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GatewayError) WithSuggestions(suggestions ...string) *GatewayError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the code of the first GatewayError in err's chain, or ""
// when err carries no code.
func CodeOf(err error) ErrorCode {
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Message returns a single-line description of err. Coded errors render
// without their suggestion block.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr.Detail()
	}
	return err.Error()
}

// Common error constructors for frequently used errors

// NewUnsupportedVersionError creates an unknown version key error
func NewUnsupportedVersionError(version string, supported []string) *GatewayError {
	return New(ErrCodeUnsupportedVersion, fmt.Sprintf("unsupported Java version: %s", version)).
		WithSuggestion(fmt.Sprintf("Supported versions: %s", strings.Join(supported, ", "))).
		WithSuggestion("Run 'secprops versions' to list supported versions")
}

// NewArtifactMissingError creates a missing engine artifact error
func NewArtifactMissingError(path string) *GatewayError {
	return New(ErrCodeArtifactMissing, fmt.Sprintf("JAR file not found: %s", path)).
		WithSuggestion("Place the MuleSoft secure properties JAR files in the configured jar directory").
		WithSuggestion("Check engine.jar_dir and engine.versions in the config file")
}

// NewEngineLaunchError creates an error for a process that could not be started
func NewEngineLaunchError(executable string, cause error) *GatewayError {
	return Wrap(ErrCodeEngineLaunchFailed, fmt.Sprintf("failed to start Java process %s", executable), cause).
		WithSuggestion("Check that Java is installed and on PATH").
		WithSuggestion("Set JAVA_HOME_8, JAVA_HOME_11 or JAVA_HOME_17 to point at a Java installation")
}

// NewEngineExecutionError creates an error for a non-zero engine exit
func NewEngineExecutionError(stderr string) *GatewayError {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = "Unknown error"
	}
	return New(ErrCodeEngineExecutionFailed, fmt.Sprintf("JAR execution failed: %s", msg))
}

// NewEngineTimeoutError creates an engine timeout error
func NewEngineTimeoutError(timeout time.Duration) *GatewayError {
	return New(ErrCodeEngineTimeout, fmt.Sprintf("JAR execution timed out after %s", timeout)).
		WithSuggestion("Increase engine.timeout if the host is under heavy load")
}

// NewEngineNoOutputError creates an error for a successful exit with empty output
func NewEngineNoOutputError() *GatewayError {
	return New(ErrCodeEngineNoOutput, "JAR execution succeeded but returned no result")
}

// NewMissingParameterError creates a missing request parameter error
func NewMissingParameterError(params ...string) *GatewayError {
	return New(ErrCodeMissingParameter, fmt.Sprintf("missing required parameters: %s", strings.Join(params, " and ")))
}

// NewInvalidRequestError creates a request validation error
func NewInvalidRequestError(details string) *GatewayError {
	return New(ErrCodeInvalidRequest, details)
}

// NewAuditDisabledError signals that the history feature is turned off
func NewAuditDisabledError() *GatewayError {
	return New(ErrCodeAuditDisabled, "history feature is not enabled").
		WithSuggestion("Set ENABLE_HISTORY=true or audit.enabled: true in the config file")
}

// NewAuditUnavailableError wraps a history persistence failure
func NewAuditUnavailableError(cause error) *GatewayError {
	return Wrap(ErrCodeAuditUnavailable, "history store unavailable", cause)
}
