package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. Orders are created in
// StatusWaitingPayment; later transitions belong to the payment and
// fulfillment subsystems.
type Status string

const (
	StatusWaitingPayment  Status = "waiting_payment"
	StatusWaitingDelivery Status = "waiting_delivery"
	StatusDelivered       Status = "delivered"
	StatusCompleted       Status = "completed"
	StatusClosed          Status = "closed"
)

// AfterSaleStatus is the post-purchase service state (returns/refunds).
// Orders are created with AfterSaleNone.
type AfterSaleStatus string

const (
	AfterSaleNone    AfterSaleStatus = "none"
	AfterSaleApplied AfterSaleStatus = "applied"
)

// DeliveryType is the shipping method for an order.
type DeliveryType string

const (
	DeliveryExpress DeliveryType = "express"
	DeliveryPickup  DeliveryType = "pickup"
)

// Order is the order header. Money fields are copied from the pricing
// engine's order-level aggregate at creation; the address fields are a
// snapshot of the buyer's shipping address at that moment.
type Order struct {
	ID      int64
	BuyerID int64
	OrderNo string
	Status  Status
	Remark  string

	BuyPrice      decimal.Decimal
	DiscountPrice decimal.Decimal
	ShippingPrice decimal.Decimal
	GiftPrice     decimal.Decimal
	PayPrice      decimal.Decimal
	RefundPrice   decimal.Decimal

	DeliveryType          DeliveryType
	ReceiverName          string
	ReceiverMobile        string
	ReceiverAreaCode      string
	ReceiverDetailAddress string

	AfterSaleStatus AfterSaleStatus
	CouponCardID    int64 // 0 = no coupon

	CreatedAt time.Time

	Lines []Line
}

// Line is one order line: a requested variant, its quantity, and the
// per-variant money decomposition copied from the price breakdown.
type Line struct {
	ID      int64
	OrderID int64
	Status  Status

	VariantID int64
	ProductID int64
	Name      string
	Image     string
	Quantity  int

	OriginPrice   decimal.Decimal
	BuyPrice      decimal.Decimal
	GiftValue     decimal.Decimal
	BuyTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	GiftTotal     decimal.Decimal
	RefundTotal   decimal.Decimal

	AfterSaleStatus AfterSaleStatus
}

// Repository defines persistence for orders. Create must persist the header
// and all lines in one atomic unit: a partial order (header without lines,
// or vice versa) must never be observable.
type Repository interface {
	Create(ctx context.Context, o *Order) (int64, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
}
