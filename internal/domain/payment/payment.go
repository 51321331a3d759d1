package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Initiator starts a payment transaction for a freshly created order.
// The real payment service integration lives behind this interface; the
// order flow only hands off and never waits for payment completion.
type Initiator interface {
	Initiate(ctx context.Context, orderID int64, orderNo string, amount decimal.Decimal) error
}

// Nop is an Initiator that does nothing. Used until the payment service
// integration lands and in tests.
type Nop struct{}

func (Nop) Initiate(context.Context, int64, string, decimal.Decimal) error { return nil }
