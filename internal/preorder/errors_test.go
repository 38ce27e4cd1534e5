package preorder

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNotFound, "NOT_FOUND"},
		{KindItemNotFound, "ITEM_NOT_FOUND"},
		{KindInsufficientStock, "INSUFFICIENT_STOCK"},
		{KindEmptyCart, "EMPTY_CART"},
		{KindUnauthorized, "UNAUTHORIZED"},
		{KindInvalidArgument, "INVALID_ARGUMENT"},
		{KindTransient, "TRANSIENT"},
		{KindInvariant, "INVARIANT_VIOLATION"},
		{KindInternal, "INTERNAL"},
		{Kind(99), "INTERNAL"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestInsufficientStock_carriesAvailable(t *testing.T) {
	err := errInsufficientStock(3)
	require.True(t, IsInsufficientStock(err))

	oe := AsOpError(err)
	require.NotNil(t, oe)
	assert.Equal(t, 3, oe.Available)
	assert.Contains(t, oe.Message, "only 3 left")

	err = errInsufficientIncrease(2)
	oe = AsOpError(err)
	require.NotNil(t, oe)
	assert.Equal(t, 2, oe.Available)
	assert.Contains(t, oe.Message, "only 2 more")
}

func TestIsNotFound_coversLineAndItem(t *testing.T) {
	assert.True(t, IsNotFound(errLineNotFound()))
	assert.True(t, IsNotFound(errItemNotFound("abc")))
	assert.False(t, IsNotFound(errEmptyCart()))
	assert.False(t, IsNotFound(nil))
}

func TestIsInvariant_flagsBrokenAccounting(t *testing.T) {
	assert.True(t, IsInvariant(errInvariant("cart line %s vanished while locked", "L1")))
	assert.True(t, IsInvariant(classify(&pgconn.PgError{Code: pgCheckViolation})))
	assert.False(t, IsInvariant(errEmptyCart()))
	assert.False(t, IsInvariant(nil))
}

func TestOpError_survivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("checkout: %w", errEmptyCart())
	assert.True(t, IsEmptyCart(wrapped))

	oe := AsOpError(wrapped)
	require.NotNil(t, oe)
	assert.Equal(t, KindEmptyCart, oe.Kind)
}

func TestOpError_unwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &OpError{Kind: KindInternal, Message: "storage error", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestClassify_pgCodes(t *testing.T) {
	tests := []struct {
		code string
		want Kind
	}{
		{pgLockNotAvailable, KindTransient},
		{pgDeadlockDetected, KindTransient},
		{pgSerializationFailure, KindTransient},
		{pgUniqueViolation, KindTransient},
		{pgCheckViolation, KindInvariant},
		{"42601", KindInternal}, // syntax error: a bug, not retryable
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := classify(&pgconn.PgError{Code: tt.code})
			oe := AsOpError(err)
			require.NotNil(t, oe)
			assert.Equal(t, tt.want, oe.Kind)
		})
	}
}

func TestClassify_contextErrors(t *testing.T) {
	assert.True(t, IsTransient(classify(context.DeadlineExceeded)))
	assert.True(t, IsTransient(classify(context.Canceled)))
}

func TestClassify_passthroughAndNil(t *testing.T) {
	assert.NoError(t, classify(nil))

	orig := errItemNotFound("abc")
	assert.Same(t, orig, AsOpError(classify(orig)))

	oe := AsOpError(classify(errors.New("boom")))
	require.NotNil(t, oe)
	assert.Equal(t, KindInternal, oe.Kind)
}
