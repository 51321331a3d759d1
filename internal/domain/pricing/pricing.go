package pricing

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when the pricing engine cannot be reached or
// fails internally. It aborts order creation before any persistence.
var ErrUnavailable = errors.New("pricing engine unavailable")

// RejectedError indicates the pricing engine refused to price the
// transaction, e.g. because of an unknown variant or an ineligible coupon.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("pricing rejected: %s", e.Reason)
}

// Item is one requested line submitted for pricing. Partial-cart pricing is
// not supported: callers mark every item selected.
type Item struct {
	VariantID int64
	Quantity  int
	Selected  bool
}

// Fee is the order-level money aggregate of a priced transaction.
type Fee struct {
	BuyTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	ShippingTotal decimal.Decimal
	GiftTotal     decimal.Decimal
}

// ItemPrice is the per-variant price decomposition.
type ItemPrice struct {
	VariantID     int64
	OriginPrice   decimal.Decimal
	BuyPrice      decimal.Decimal
	GiftValue     decimal.Decimal
	BuyTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	GiftTotal     decimal.Decimal
}

// ItemGroup is a set of item prices the engine chose to group together
// (e.g. by promotion activity). Grouping is arbitrary; every item remains
// addressable by variant id via ItemByVariant.
type ItemGroup struct {
	Items []ItemPrice
}

// Breakdown is the pricing engine's decomposition of cost at order and
// per-variant granularity.
type Breakdown struct {
	Fee    Fee
	Groups []ItemGroup
}

// ItemByVariant returns the price entry for the given variant id, searching
// across all groups.
func (b *Breakdown) ItemByVariant(variantID int64) (ItemPrice, bool) {
	for _, g := range b.Groups {
		for _, it := range g.Items {
			if it.VariantID == variantID {
				return it, true
			}
		}
	}
	return ItemPrice{}, false
}

// Calculator computes the price of one transaction. A couponCardID of zero
// means no coupon is applied.
type Calculator interface {
	Calc(ctx context.Context, buyerID int64, items []Item, couponCardID int64) (*Breakdown, error)
}
