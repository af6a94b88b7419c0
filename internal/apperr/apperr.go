// Package apperr defines the error kinds the HTTP layer dispatches on.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindOperational Kind = iota
	KindValidation
	KindNotFound
	KindDomainRule
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDomainRule:
		return "domain_rule"
	default:
		return "operational"
	}
}

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeTaskNotFound        = "TASK_NOT_FOUND"
	CodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	CodeNotificationMissing = "NOTIFICATION_NOT_FOUND"
	CodeDueDateInPast       = "DUE_DATE_IN_PAST"
	CodeDueTimeRequiresDate = "DUE_TIME_REQUIRES_DATE"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
)

// Violation is one failed field check.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error carries a kind, a machine code and an optional payload.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(violations []Violation) *Error {
	return &Error{
		Kind:       KindValidation,
		Code:       CodeValidation,
		Message:    "Request validation failed",
		Violations: violations,
	}
}

func NotFound(code, msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg, Err: cause}
}

func DomainRule(code, msg string, cause error) *Error {
	return &Error{Kind: KindDomainRule, Code: code, Message: msg, Err: cause}
}

// Operational wraps infrastructure failures.
func Operational(err error) *Error {
	return &Error{Kind: KindOperational, Code: CodeInternal, Message: "An unexpected error occurred", Err: err}
}

// As extracts the *Error from err, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf reports the kind of err. Errors without one are operational.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return KindOperational
}
