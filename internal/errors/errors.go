// Package errors defines the domain errors shared by the services and the
// HTTP layer. Errors are compared by code, so a wrapped or re-messaged
// DomainError still matches its sentinel with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind groups domain errors by how a caller should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConsistency   Kind = "consistency"
	KindNotFound      Kind = "not_found"
	KindLedgerFailure Kind = "ledger_failure"
	KindInternal      Kind = "internal"
)

// DomainError carries a stable code for clients plus an optional cause.
type DomainError struct {
	Code    string
	Message string
	Kind    Kind
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// KindOf reports the kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf reports the code of the first DomainError in err's chain.
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}

func validation(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

func consistency(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindConsistency}
}

func notFound(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindNotFound}
}

// Validation errors
var (
	ErrInvalidAmount     = validation("INVALID_AMOUNT", "invalid amount")
	ErrInvalidParty      = validation("INVALID_PARTY", "invalid party reference")
	ErrInvalidMetadata   = validation("INVALID_METADATA", "ledger metadata does not match entry type")
	ErrReasonRequired    = validation("REASON_REQUIRED", "a reason is required")
	ErrMissingField      = validation("MISSING_FIELD", "required field is missing")
	ErrInvalidOutcome    = validation("INVALID_OUTCOME", "invalid field result outcome")
	ErrRewardPolarity    = validation("REWARD_POLARITY", "reward and penalty do not match the recorded outcome")
	ErrRewardAndPenalty  = validation("REWARD_AND_PENALTY", "reward and penalty cannot both be positive")
	ErrRemittanceInvalid = validation("REMITTANCE_INVALID", "remittance amount is not allowed for this outcome")
)
