package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "resource is owned by another user", ErrNotOwned.Error())
	assert.Equal(t, "operation not permitted", ErrForbidden.Error())
	assert.False(t, errors.Is(ErrNotOwned, ErrForbidden))

	wrapped := fmt.Errorf("failed to get task: %w", ErrNotOwned)
	assert.ErrorIs(t, wrapped, ErrNotOwned)
	assert.NotErrorIs(t, wrapped, ErrForbidden)
}
