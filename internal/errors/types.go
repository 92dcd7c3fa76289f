// Package errors provides the structured error taxonomy shared by the
// preview pipeline: template lookup, rendering, metadata introspection,
// configuration and I/O failures. Callers branch on the error type rather
// than on message text.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeMetadata   ErrorType = "metadata"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeComponentNotFound = "ERR_COMPONENT_NOT_FOUND"
	ErrCodeInvalidIdentifier = "ERR_INVALID_IDENTIFIER"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeTemplateParse     = "ERR_TEMPLATE_PARSE"
	ErrCodeNoSource          = "ERR_NO_SOURCE"
	ErrCodeSourceUnreadable  = "ERR_SOURCE_UNREADABLE"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodePathTraversal     = "ERR_PATH_TRAVERSAL"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// PreviewError is a structured error type with context.
type PreviewError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Component string
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *PreviewError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PreviewError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PreviewError) Is(target error) bool {
	var t *PreviewError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// Detail returns the message shown to preview users: the message plus the
// cause, without the code and component decorations.
func (e *PreviewError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// WithContext adds context information to the error.
func (e *PreviewError) WithContext(key string, value interface{}) *PreviewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *PreviewError) WithComponent(component string) *PreviewError {
	e.Component = component

	return e
}

// NewNotFoundError creates an error for a template that has no backing artifact.
func NewNotFoundError(component string) *PreviewError {
	return &PreviewError{
		Type:      ErrorTypeNotFound,
		Code:      ErrCodeComponentNotFound,
		Message:   fmt.Sprintf("Component view '%s' not found", component),
		Component: component,
	}
}

// NewRenderError creates an error for a template that failed while executing.
func NewRenderError(component string, cause error) *PreviewError {
	return &PreviewError{
		Type:      ErrorTypeRender,
		Code:      ErrCodeRenderFailed,
		Message:   "render failed",
		Cause:     cause,
		Component: component,
	}
}

// NewMetadataError creates an introspection error.
func NewMetadataError(code, component string, cause error) *PreviewError {
	return &PreviewError{
		Type:      ErrorTypeMetadata,
		Code:      code,
		Message:   "metadata lookup failed",
		Cause:     cause,
		Component: component,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PreviewError {
	return &PreviewError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PreviewError {
	return &PreviewError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PreviewError {
	return &PreviewError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PreviewError {
	return &PreviewError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the ErrorType of err, or the empty string when err is not
// a PreviewError.
func TypeOf(err error) ErrorType {
	var pe *PreviewError
	if errors.As(err, &pe) {
		return pe.Type
	}

	return ""
}

// IsNotFound checks if an error reports a missing template.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsRenderError checks if an error reports a template execution failure.
func IsRenderError(err error) bool {
	return TypeOf(err) == ErrorTypeRender
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level matching its category. Not-found, render and
// metadata failures are expected while iterating on templates and are
// logged as warnings.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PreviewError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch pe.Type {
	case ErrorTypeNotFound, ErrorTypeRender, ErrorTypeMetadata, ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Preview error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"component", pe.Component)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"component", pe.Component)
	}
}
