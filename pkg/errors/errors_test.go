package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("booking: %w", ErrSlotFull)
	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "SLOT_FULL", got.Code)
	assert.Equal(t, http.StatusBadRequest, got.Status)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	got := FromError(sql.ErrConnDone)
	require.NotNil(t, got)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, sql.ErrConnDone)
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrConflict, "Already approved")
	assert.Equal(t, "Already approved", clone.Message)
	assert.Equal(t, ErrConflict.Code, clone.Code)
	assert.Equal(t, "conflict", ErrConflict.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	assert.True(t, Is(Clone(ErrSlotBlocked, "Target slot is blocked."), ErrSlotBlocked))
	assert.False(t, Is(ErrSlotFull, ErrSlotBlocked))
	assert.False(t, Is(nil, ErrSlotBlocked))
}
