package errors

import (
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeDuplicateIdentifier  ErrorType = "DUPLICATE_IDENTIFIER"
	ErrorTypeNotFound             ErrorType = "NOT_FOUND"
	ErrorTypeUnknownEndpoint      ErrorType = "UNKNOWN_ENDPOINT"
	ErrorTypeDanglingEdgeConflict ErrorType = "DANGLING_EDGE_CONFLICT"
	ErrorTypeNoPathFound          ErrorType = "NO_PATH_FOUND"
	ErrorTypeValidation           ErrorType = "VALIDATION"
	ErrorTypeInternal             ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewDuplicateIdentifier reports reuse of a node or edge identifier.
// Identifiers are never recycled, so this also fires for ids that
// belonged to entities deleted earlier in the graph's lifetime.
func NewDuplicateIdentifier(kind, id string) error {
	return &AppError{
		Type:    ErrorTypeDuplicateIdentifier,
		Message: fmt.Sprintf("%s identifier %q already used", kind, id),
	}
}

// NewNotFound reports a missing node or edge
func NewNotFound(kind, id string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s %q not found", kind, id),
	}
}

// NewUnknownEndpoint reports an edge whose source or target node is absent
func NewUnknownEndpoint(role, nodeID string) error {
	return &AppError{
		Type:    ErrorTypeUnknownEndpoint,
		Message: fmt.Sprintf("%s node %q does not exist", role, nodeID),
	}
}

// NewDanglingEdgeConflict reports a non-cascading node removal that would
// leave edges without an endpoint
func NewDanglingEdgeConflict(nodeID string, edgeCount int) error {
	return &AppError{
		Type:    ErrorTypeDanglingEdgeConflict,
		Message: fmt.Sprintf("node %q has %d incident edge(s); remove with cascade or delete them first", nodeID, edgeCount),
	}
}

// NewNoPathFound reports an unreachable traversal target
func NewNoPathFound(sourceID, targetID string) error {
	return &AppError{
		Type:    ErrorTypeNoPathFound,
		Message: fmt.Sprintf("no path from %q to %q", sourceID, targetID),
	}
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// IsDuplicateIdentifier checks if an error is a duplicate identifier error
func IsDuplicateIdentifier(err error) bool {
	return isType(err, ErrorTypeDuplicateIdentifier)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsUnknownEndpoint checks if an error is an unknown endpoint error
func IsUnknownEndpoint(err error) bool {
	return isType(err, ErrorTypeUnknownEndpoint)
}

// IsDanglingEdgeConflict checks if an error is a dangling edge conflict
func IsDanglingEdgeConflict(err error) bool {
	return isType(err, ErrorTypeDanglingEdgeConflict)
}

// IsNoPathFound checks if an error is a no path found error
func IsNoPathFound(err error) bool {
	return isType(err, ErrorTypeNoPathFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}
