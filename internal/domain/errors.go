/**
 * @description
 * This file defines the domain error taxonomy for the payout-service. Every failure
 * a use case can surface belongs to one of four kinds, and the HTTP layer maps them
 * uniformly: validation -> 400, not found -> 404, permission -> 403, conflict -> 409.
 *
 * @notes
 * - Errors are matched with errors.As via the Is* helpers, so wrapped errors
 *   (fmt.Errorf with %w) keep their kind across layers.
 */

package domain

import "errors"

// ValidationError signals malformed input or an illegal business transition.
// It is user-correctable and maps to HTTP 400.
type ValidationError struct {
	msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }

// NotFoundError signals that a referenced entity is absent. Maps to HTTP 404.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (e *NotFoundError) Error() string { return e.msg }

// PermissionError signals that the acting party lacks privilege. Maps to HTTP 403.
type PermissionError struct {
	msg string
}

func NewPermissionError(msg string) *PermissionError {
	return &PermissionError{msg: msg}
}

func (e *PermissionError) Error() string { return e.msg }

// ConflictError signals a concurrent uniqueness or reference violation. The
// create-payout path handles it internally; elsewhere it maps to HTTP 409.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{msg: msg}
}

func (e *ConflictError) Error() string { return e.msg }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
