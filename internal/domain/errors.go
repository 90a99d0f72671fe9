package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUpstreamAuthFailure    = errors.New("gateway authorization failed")
	ErrUpstreamUnavailable    = errors.New("gateway unavailable")
	ErrUpstreamRejected       = errors.New("gateway rejected request")
	ErrConflict               = errors.New("transaction already exists")
	ErrNotFound               = errors.New("transaction not found")
	ErrReconciliationConflict = errors.New("conflicting terminal outcome")
)

// GatewayError describes a failed exchange with the payment gateway.
// Kind is one of the upstream sentinels above.
type GatewayError struct {
	Kind        error
	Op          string
	HTTPStatus  int
	Code        string
	Description string
	Err         error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.HTTPStatus != 0 {
		msg += fmt.Sprintf(" (http %d)", e.HTTPStatus)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" code=%s", e.Code)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// InvalidInputError carries the offending field for 4xx responses.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// ConflictingOutcomeError is returned when a terminal transaction receives a
// different terminal outcome. The stored state is left untouched.
type ConflictingOutcomeError struct {
	RequestID string
	Stored    TransactionStatus
	Incoming  TransactionStatus
}

func (e *ConflictingOutcomeError) Error() string {
	return fmt.Sprintf("request %s: stored %s, incoming %s", e.RequestID, e.Stored, e.Incoming)
}

func (e *ConflictingOutcomeError) Unwrap() error { return ErrReconciliationConflict }

// IsRetryable reports whether the caller may retry the operation as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
