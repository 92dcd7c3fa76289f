package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a PreviewError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *PreviewError {
	if err == nil {
		return nil
	}

	var pe *PreviewError
	if errors.As(err, &pe) {
		return &PreviewError{
			Type:      errType,
			Code:      code,
			Message:   message,
			Cause:     pe,
			Context:   pe.Context,
			Component: pe.Component,
		}
	}

	return &PreviewError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapRender wraps an error as a render error with component context
func WrapRender(err error, component string) *PreviewError {
	if err == nil {
		return nil
	}
	if IsRenderError(err) {
		var pe *PreviewError
		errors.As(err, &pe)
		return pe
	}

	return NewRenderError(component, err)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *PreviewError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *PreviewError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// RootCause walks the Unwrap chain and returns the innermost error.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}

	return nil
}
