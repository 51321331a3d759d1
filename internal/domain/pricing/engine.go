package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mallcraft/trade-service/internal/domain/catalog"
	"github.com/mallcraft/trade-service/internal/domain/coupon"
)

// Engine is the in-process pricing engine: list prices come from the
// catalog, discounts from coupon card rules, and shipping is a flat fee.
// Order creation depends only on the Calculator interface, so the engine is
// replaceable by a remote pricing service without touching the order flow.
type Engine struct {
	catalog     catalog.Lookup
	coupons     coupon.Repository
	shippingFee decimal.Decimal
	now         func() time.Time
}

var _ Calculator = (*Engine)(nil)

// NewEngine creates an Engine with the given collaborators and flat
// shipping fee.
func NewEngine(cat catalog.Lookup, coupons coupon.Repository, shippingFee decimal.Decimal) *Engine {
	return &Engine{
		catalog:     cat,
		coupons:     coupons,
		shippingFee: shippingFee,
		now:         time.Now,
	}
}

// Calc prices the transaction: per-item list totals, coupon discount
// allocated proportionally across items, and the order-level aggregate.
// The sum of per-item BuyTotal always equals Fee.BuyTotal exactly, and no
// item is ever discounted below zero.
func (e *Engine) Calc(ctx context.Context, buyerID int64, items []Item, couponCardID int64) (*Breakdown, error) {
	if len(items) == 0 {
		return nil, &RejectedError{Reason: "no items to price"}
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		if !it.Selected {
			return nil, &RejectedError{Reason: fmt.Sprintf("variant %d not selected: partial-cart pricing unsupported", it.VariantID)}
		}
		ids[i] = it.VariantID
	}

	variants, err := e.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	byID := make(map[int64]catalog.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	// List prices and subtotal.
	couponItems := make([]coupon.Item, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		v, ok := byID[it.VariantID]
		if !ok {
			return nil, &RejectedError{Reason: fmt.Sprintf("unknown variant %d", it.VariantID)}
		}
		couponItems[i] = coupon.Item{
			VariantID: it.VariantID,
			Price:     v.Price,
			Quantity:  it.Quantity,
		}
		subtotal = subtotal.Add(v.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	discount := decimal.Zero
	if couponCardID != 0 {
		d, err := e.applyCoupon(ctx, buyerID, couponCardID, couponItems)
		if err != nil {
			return nil, err
		}
		discount = decimal.Min(d, subtotal)
	}

	prices := allocate(couponItems, discount)

	buyTotal := decimal.Zero
	for _, p := range prices {
		buyTotal = buyTotal.Add(p.BuyTotal)
	}

	return &Breakdown{
		Fee: Fee{
			BuyTotal:      buyTotal,
			DiscountTotal: discount,
			ShippingTotal: e.shippingFee,
			GiftTotal:     decimal.Zero,
		},
		Groups: []ItemGroup{{Items: prices}},
	}, nil
}

func (e *Engine) applyCoupon(ctx context.Context, buyerID, cardID int64, items []coupon.Item) (decimal.Decimal, error) {
	card, err := e.coupons.FindCard(ctx, cardID, buyerID)
	if err != nil {
		if errors.Is(err, coupon.ErrCardNotFound) {
			return decimal.Zero, &RejectedError{Reason: fmt.Sprintf("coupon card %d not found", cardID)}
		}
		return decimal.Zero, errors.Wrap(ErrUnavailable, err.Error())
	}

	d, err := coupon.Apply(card, items, e.now())
	if err != nil {
		return decimal.Zero, &RejectedError{Reason: err.Error()}
	}
	return d.Amount, nil
}

// allocate splits the order-level discount across items in proportion to
// their list totals using largest-remainder rounding: each item gets its
// share rounded down to the cent, then the leftover cents go to the items
// with the largest dropped fraction, skipping items already discounted down
// to zero. An item's discount never exceeds its own line total, so derived
// buy totals stay non-negative, and the allocated amounts always sum to the
// full discount (the caller caps discount at the subtotal).
func allocate(items []coupon.Item, discount decimal.Decimal) []ItemPrice {
	lineTotals := make([]decimal.Decimal, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		lineTotals[i] = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotals[i])
	}

	discounts := make([]decimal.Decimal, len(items))
	fracs := make([]decimal.Decimal, len(items))
	for i := range discounts {
		discounts[i] = decimal.Zero
		fracs[i] = decimal.Zero
	}
	if discount.IsPositive() && subtotal.IsPositive() {
		allocated := decimal.Zero
		for i := range items {
			share := discount.Mul(lineTotals[i]).Div(subtotal)
			discounts[i] = share.RoundDown(2)
			fracs[i] = share.Sub(discounts[i])
			allocated = allocated.Add(discounts[i])
		}

		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return fracs[order[a]].GreaterThan(fracs[order[b]])
		})

		cent := decimal.New(1, -2)
		remainder := discount.Sub(allocated)
		for remainder.IsPositive() {
			progressed := false
			for _, i := range order {
				if !remainder.IsPositive() {
					break
				}
				if discounts[i].Add(cent).LessThanOrEqual(lineTotals[i]) {
					discounts[i] = discounts[i].Add(cent)
					remainder = remainder.Sub(cent)
					progressed = true
				}
			}
			if !progressed {
				break
			}
		}
	}

	prices := make([]ItemPrice, len(items))
	for i, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		buyTotal := lineTotals[i].Sub(discounts[i])
		prices[i] = ItemPrice{
			VariantID:     it.VariantID,
			OriginPrice:   it.Price,
			BuyPrice:      buyTotal.Div(qty).Round(2),
			GiftValue:     decimal.Zero,
			BuyTotal:      buyTotal,
			DiscountTotal: discounts[i],
			GiftTotal:     decimal.Zero,
		}
	}
	return prices
}
