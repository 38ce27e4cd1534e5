package preorder

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind categorizes operation failures.
type Kind int

const (
	// KindNotFound: the cart line or order does not exist for this caller.
	KindNotFound Kind = iota
	// KindItemNotFound: the referenced menu item does not exist.
	KindItemNotFound
	// KindInsufficientStock: the reservation exceeds what remains; the
	// error carries the actual available quantity.
	KindInsufficientStock
	// KindEmptyCart: checkout with no reserved lines.
	KindEmptyCart
	// KindUnauthorized: the caller does not own the resource.
	KindUnauthorized
	// KindInvalidArgument: the request itself is malformed (non-positive
	// quantity, illegal status transition).
	KindInvalidArgument
	// KindTransient: lock wait timeout, deadlock, serialization failure or
	// connectivity; safe to retry the same request.
	KindTransient
	// KindInvariant: the stock conservation accounting would be broken.
	// Never expected during correct operation.
	KindInvariant
	// KindInternal: any other storage or programming error.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindItemNotFound:
		return "ITEM_NOT_FOUND"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindEmptyCart:
		return "EMPTY_CART"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindTransient:
		return "TRANSIENT"
	case KindInvariant:
		return "INVARIANT_VIOLATION"
	default:
		return "INTERNAL"
	}
}

// OpError is the structured failure every core operation returns. Business
// failures (not found, insufficient stock, empty cart) are normal results;
// KindTransient asks the caller to retry; KindInvariant and KindInternal are
// bugs or infrastructure faults.
type OpError struct {
	Kind    Kind
	Message string
	// Available is set for KindInsufficientStock: how many units the
	// request could still obtain.
	Available int
	Cause     error
}

func (e *OpError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *OpError) Unwrap() error { return e.Cause }

// AsOpError extracts an OpError from an error chain, or nil.
func AsOpError(err error) *OpError {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe
	}
	return nil
}

func hasKind(err error, k Kind) bool {
	oe := AsOpError(err)
	return oe != nil && oe.Kind == k
}

func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound) || hasKind(err, KindItemNotFound)
}
func IsInsufficientStock(err error) bool { return hasKind(err, KindInsufficientStock) }
func IsEmptyCart(err error) bool         { return hasKind(err, KindEmptyCart) }
func IsTransient(err error) bool         { return hasKind(err, KindTransient) }
func IsInvariant(err error) bool         { return hasKind(err, KindInvariant) }

// ---- constructors ----

func errItemNotFound(itemID string) *OpError {
	return &OpError{Kind: KindItemNotFound, Message: fmt.Sprintf("menu item %s not found", itemID)}
}

func errLineNotFound() *OpError {
	return &OpError{Kind: KindNotFound, Message: "cart item not found"}
}

func errInsufficientStock(available int) *OpError {
	return &OpError{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock: only %d left", available),
		Available: available,
	}
}

func errInsufficientIncrease(available int) *OpError {
	return &OpError{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock: only %d more available", available),
		Available: available,
	}
}

func errEmptyCart() *OpError {
	return &OpError{Kind: KindEmptyCart, Message: "cart is empty"}
}

func errInvalidArgument(format string, args ...any) *OpError {
	return &OpError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func errInvariant(format string, args ...any) *OpError {
	return &OpError{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// postgres error codes that classify storage failures
const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgCheckViolation       = "23514"
	pgUniqueViolation      = "23505"
)

// classify maps raw storage errors onto the taxonomy. Lock timeouts,
// deadlocks and cancelled contexts are retryable; a CHECK violation on the
// stock counter means the accounting backstop fired and is reported as an
// invariant violation, not a user error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if oe := AsOpError(err); oe != nil {
		return oe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &OpError{Kind: KindTransient, Message: "operation timed out", Cause: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return &OpError{Kind: KindTransient, Message: "row lock wait timed out", Cause: err}
		case pgDeadlockDetected, pgSerializationFailure:
			return &OpError{Kind: KindTransient, Message: "transaction conflict, retry", Cause: err}
		case pgUniqueViolation:
			// concurrent insert of the same logical row; a retry will take
			// the update branch instead
			return &OpError{Kind: KindTransient, Message: "concurrent update, retry", Cause: err}
		case pgCheckViolation:
			return &OpError{Kind: KindInvariant, Message: "stock accounting constraint violated", Cause: err}
		}
	}
	return &OpError{Kind: KindInternal, Message: "storage error", Cause: err}
}
