package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode classifies an AppError for boundary mapping.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrConflict
	ErrInvalidTransition
	ErrAlreadyActive
	ErrAlreadyInactive
	ErrHasScheduledAppointments
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Conflict marks a stale write: the record changed between load and save.
// Distinct from NotFound so the caller can offer a retry.
func Conflict(resource string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: fmt.Sprintf("%s was modified concurrently", resource),
	}
}

func InvalidTransition(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: message,
	}
}

func AlreadyActive(resource string) *AppError {
	return &AppError{
		Code:    ErrAlreadyActive,
		Message: fmt.Sprintf("%s is already active", resource),
	}
}

func AlreadyInactive(resource string) *AppError {
	return &AppError{
		Code:    ErrAlreadyInactive,
		Message: fmt.Sprintf("%s is already inactive", resource),
	}
}

func HasScheduledAppointments(resource string) *AppError {
	return &AppError{
		Code:    ErrHasScheduledAppointments,
		Message: fmt.Sprintf("%s has scheduled appointments; cancel or complete them first", resource),
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Code extracts the ErrorCode from err, or ErrInternal for unknown errors.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// ValidationErrors aggregates field-level violations. All checks run before
// an operation rejects, so every violated rule is reported together.
// Field keys name the offending field; cross-field rules use a rule name
// ("doctor_conflict", "patient_conflict").
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Empty() bool { return len(v) == 0 }

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(v))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation returns the aggregated violations carried by err, if any.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
