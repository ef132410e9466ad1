package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("wrapped errors maintain identity", func(t *testing.T) {
		wrapped := fmt.Errorf("list partitions for table t1: %w", ErrCatalogUnavailable)
		require.True(t, errors.Is(wrapped, ErrCatalogUnavailable))
		require.False(t, errors.Is(wrapped, ErrTableNotFound))
	})

	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrCatalogRequired,
			ErrCatalogUnavailable,
			ErrTableNotFound,
			ErrSchemaMismatch,
			ErrInvalidChildren,
			ErrNoEndpoints,
			ErrTooManySlots,
			ErrAssignmentInvariant,
			ErrSlotOutOfRange,
			ErrClusterStatusUnavailable,
			ErrPublishFailed,
			ErrNoKeysFound,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestSchemaMismatchError(t *testing.T) {
	err := error(&SchemaMismatchError{Table: "metrics", Column: "cpu:load", Family: "cpu"})

	require.ErrorIs(t, err, ErrSchemaMismatch)
	require.Contains(t, err.Error(), "'cpu'")
	require.Contains(t, err.Error(), "metrics")

	var sme *SchemaMismatchError
	require.True(t, errors.As(fmt.Errorf("verify columns: %w", err), &sme))
	require.Equal(t, "cpu", sme.Family)
}

func TestIsNoKeysFoundError(t *testing.T) {
	t.Run("returns false for nil error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(nil))
	})

	t.Run("returns true for sentinel ErrNoKeysFound", func(t *testing.T) {
		require.True(t, IsNoKeysFoundError(ErrNoKeysFound))
	})

	t.Run("returns true for wrapped NATS error message", func(t *testing.T) {
		natsErr := errors.New("failed to list KV keys: nats: no keys found")
		require.True(t, IsNoKeysFoundError(natsErr))
	})

	t.Run("returns false for unrelated error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(errors.New("some other error")))
		require.False(t, IsNoKeysFoundError(ErrCatalogUnavailable))
	})
}
