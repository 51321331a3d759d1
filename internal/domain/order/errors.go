package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrEmptyItems is returned when a create request carries no items.
	ErrEmptyItems = errors.New("order items required")
	// ErrNotFound is returned when no order exists for the given order number.
	ErrNotFound = errors.New("order not found")
)

// InvalidQuantityError indicates a requested line has a non-positive quantity.
type InvalidQuantityError struct {
	VariantID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for variant %d", e.VariantID)
}

// DuplicateVariantError indicates the same variant id appears more than once
// in a request. Duplicates are a caller error, not deduplicated.
type DuplicateVariantError struct {
	VariantID int64
}

func (e *DuplicateVariantError) Error() string {
	return fmt.Sprintf("variant %d requested more than once", e.VariantID)
}

// CatalogMismatchError indicates the catalog resolved fewer variants than the
// request named, which covers deleted and unpublished variants.
type CatalogMismatchError struct {
	Requested int
	Resolved  int
}

func (e *CatalogMismatchError) Error() string {
	return fmt.Sprintf("catalog mismatch: requested %d variants, resolved %d", e.Requested, e.Resolved)
}

// CouponConsumptionError indicates the coupon subsystem failed to mark the
// card used. No order is persisted when this happens.
type CouponConsumptionError struct {
	CardID int64
	Err    error
}

func (e *CouponConsumptionError) Error() string {
	return fmt.Sprintf("consume coupon card %d: %v", e.CardID, e.Err)
}

func (e *CouponConsumptionError) Unwrap() error { return e.Err }

// InconsistencyError indicates a resolved-id lookup missed during commit:
// the aggregation and pricing outputs fell out of sync with the request.
// This is a bug, not bad input, and aborts the transaction.
type InconsistencyError struct {
	What      string
	VariantID int64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("internal inconsistency: no %s for variant %d", e.What, e.VariantID)
}
