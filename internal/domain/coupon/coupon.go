package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest removes the cost of the cheapest item in the order.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// CardStatus is the lifecycle state of a coupon card.
type CardStatus string

const (
	CardUnused  CardStatus = "unused"
	CardUsed    CardStatus = "used"
	CardExpired CardStatus = "expired"
)

var (
	// ErrCardNotFound is returned when no card exists for the given id and
	// buyer, or when the order does not satisfy the card's minimum item count.
	ErrCardNotFound = errors.New("coupon card not found")
	// ErrCardUsed is returned when the card has already been consumed.
	ErrCardUsed = errors.New("coupon card already used")
	// ErrCardExpired is returned when the card is outside its validity window.
	ErrCardExpired = errors.New("coupon card expired")
)

// Card is a redeemable promotional credential issued to one buyer,
// consumable at most once.
type Card struct {
	ID         int64
	BuyerID    int64
	Status     CardStatus
	Rule       Rule
	ValidUntil *time.Time
	UsedAt     *time.Time
}

// Rule defines a card's discount behaviour and eligibility constraints.
type Rule struct {
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	MaxDiscount  decimal.Decimal
	Description  string
}

// Discount holds a computed discount amount and a human-readable description.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is one order line as seen by the discount calculation.
type Item struct {
	VariantID int64
	Price     decimal.Decimal
	Quantity  int
}

// Repository provides lookup of coupon cards.
type Repository interface {
	// FindCard returns the card with the given id owned by buyerID, or
	// ErrCardNotFound.
	FindCard(ctx context.Context, id, buyerID int64) (*Card, error)
}

// Consumer marks coupon cards used. Consumption is a separate concern from
// lookup: the pricing engine only reads cards, while the order flow consumes
// them at most once per placed order.
type Consumer interface {
	// MarkUsed transitions the card from unused to used. It returns
	// ErrCardNotFound when no such card exists for the buyer and ErrCardUsed
	// when the card was consumed concurrently or earlier.
	MarkUsed(ctx context.Context, buyerID, cardID int64) error
}
