// Package events publishes order lifecycle events to Kafka. Events carry the
// full order state so consumers (payment, fulfillment, analytics) need no
// callback into this service.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mallcraft/trade-service/internal/domain/order"
)

// OrderCreated is published once per committed order.
type OrderCreated struct {
	OrderID    int64           `json:"order_id"`
	OrderNo    string          `json:"order_no"`
	BuyerID    int64           `json:"buyer_id"`
	Status     string          `json:"status"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	CouponID   int64           `json:"coupon_card_id,omitempty"`
	Lines      []OrderLine     `json:"lines"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// OrderLine is one line of the created order as carried by the event.
type OrderLine struct {
	VariantID int64           `json:"variant_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	BuyTotal  decimal.Decimal `json:"buy_total"`
}

// NewOrderCreated builds the event payload from a committed order.
func NewOrderCreated(o *order.Order) OrderCreated {
	lines := make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLine{
			VariantID: l.VariantID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			BuyTotal:  l.BuyTotal,
		}
	}
	return OrderCreated{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		BuyerID:    o.BuyerID,
		Status:     string(o.Status),
		BuyPrice:   o.BuyPrice,
		Discount:   o.DiscountPrice,
		Shipping:   o.ShippingPrice,
		CouponID:   o.CouponCardID,
		Lines:      lines,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode returns the JSON form of the event.
func (e OrderCreated) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeOrderCreated parses a JSON payload back into an event.
func DecodeOrderCreated(payload []byte) (OrderCreated, error) {
	var e OrderCreated
	err := json.Unmarshal(payload, &e)
	return e, err
}
