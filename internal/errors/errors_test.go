package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := ErrStateConflict.WithMessage("withdrawal %d is %s", 7, "PROCESSED")
	wrapped := fmt.Errorf("process withdrawal: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrStateConflict))
	assert.False(t, stderrors.Is(wrapped, ErrInsufficientBalance))
	assert.Equal(t, "withdrawal 7 is PROCESSED", err.Error())
}

func TestDomainError_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := ErrLedgerWriteFailed.Wrap(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrLedgerWriteFailed))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, ErrLedgerWriteFailed.Err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("x: %w", ErrReasonRequired)))
	assert.Equal(t, KindConsistency, KindOf(ErrInsufficientBalance))
	assert.Equal(t, KindNotFound, KindOf(ErrBookingNotFound))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(stderrors.New("boom")))
	assert.Equal(t, "BELOW_MINIMUM", CodeOf(ErrBelowMinimum))
}
