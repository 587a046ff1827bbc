package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", E(KindInsufficientFunds, "wallet.debit", "amount exceeds balance"))

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrTransient))
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindTransient, "store.debit", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "store.debit: transient: connection reset", err.Error())
}

func TestKindOf_UnclassifiedIsTransient(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(KindValidation).HTTPStatus)
	assert.Equal(t, http.StatusPaymentRequired, MetadataFor(KindInsufficientFunds).HTTPStatus)
	assert.True(t, MetadataFor(KindTransient).Retryable)
	assert.False(t, MetadataFor(KindInvariant).Retryable)
	assert.Equal(t, MetadataFor(KindTransient), MetadataFor(Kind("unknown")))
}

func TestMeetingConsumption_FreeRemaining(t *testing.T) {
	mc := MeetingConsumption{FreeUsed: 1, UnlockedRaceIDs: []string{"r1"}}

	assert.Equal(t, uint(1), mc.FreeRemaining(2))
	assert.Equal(t, uint(0), mc.FreeRemaining(1))
	assert.True(t, mc.Unlocked("r1"))
	assert.False(t, mc.Unlocked("r2"))
}

func TestLedgerEntry_Consistent(t *testing.T) {
	e := LedgerEntry{Amount: -1, BalanceAfter: 0}
	assert.True(t, e.Consistent(1))
	assert.False(t, e.Consistent(2))
}
