// Package errors defines the domain error taxonomy shared by the ledger
// services and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a domain error for callers deciding whether to retry,
// fix their input, or treat the outcome as already done.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindStateConflict     Kind = "state_conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindTransient         Kind = "transient"
	KindInternal          Kind = "internal"
)

// DomainError is a machine-readable failure. Two DomainErrors match under
// errors.Is when their codes are equal.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	// AlreadyProcessed marks state conflicts whose intent was already satisfied
	// (a replayed claim or approval). Callers show them as success.
	AlreadyProcessed bool
	// Details maps request fields to what is wrong with them.
	Details map[string]string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithDetails returns a copy carrying per-field messages.
func (e *DomainError) WithDetails(details map[string]string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e that wraps cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	cp := *e
	cp.Err = cause
	return &cp
}

// Transient wraps a storage failure. The caller may retry with the same
// idempotency key; nothing is known about whether a prior attempt committed.
func Transient(cause error) *DomainError {
	return ErrStoreUnavailable.Wrap(cause)
}

// As extracts the DomainError from err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return KindInternal
}

// IsAlreadyProcessed reports whether err is a success-equivalent conflict.
func IsAlreadyProcessed(err error) bool {
	de, ok := As(err)
	return ok && de.AlreadyProcessed
}

var (
	ErrStoreUnavailable = &DomainError{
		Kind:    KindTransient,
		Code:    "STORE_UNAVAILABLE",
		Message: "storage temporarily unavailable",
	}
	ErrForbidden = &DomainError{
		Kind:    KindForbidden,
		Code:    "FORBIDDEN",
		Message: "action not allowed for this actor",
	}
	ErrInvalidRequest = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_REQUEST",
		Message: "invalid request",
	}
)
