package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/mallcraft/trade-service/internal/domain/order"
)

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	o, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("order_no")
	e.Str(o.OrderNo)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(e.Bytes())
}

// GetOrder handles GET /api/orders/{orderNo}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := r.PathValue("orderNo")
	if orderNo == "" {
		writeError(w, http.StatusBadRequest, "order number required")
		return
	}

	o, err := h.orders.GetByOrderNo(r.Context(), orderNo)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeDomainError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encodeOrder(o))
}

func decodeCreateRequest(r *http.Request) (order.CreateRequest, error) {
	var req order.CreateRequest

	d := jx.Decode(r.Body, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "buyer_id":
			req.BuyerID, err = d.Int64()
		case "address_id":
			req.AddressID, err = d.Int64()
		case "coupon_card_id":
			req.CouponCardID, err = d.Int64()
		case "remark":
			req.Remark, err = d.Str()
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				var item order.RequestItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "variant_id":
						item.VariantID, err = d.Int64()
					case "quantity":
						var q int64
						q, err = d.Int64()
						item.Quantity = int(q)
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func encodeOrder(o *order.Order) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("order_no")
	e.Str(o.OrderNo)
	e.FieldStart("buyer_id")
	e.Int64(o.BuyerID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("remark")
	e.Str(o.Remark)

	e.FieldStart("buy_price")
	e.Str(o.BuyPrice.StringFixed(2))
	e.FieldStart("discount_price")
	e.Str(o.DiscountPrice.StringFixed(2))
	e.FieldStart("shipping_price")
	e.Str(o.ShippingPrice.StringFixed(2))
	e.FieldStart("gift_price")
	e.Str(o.GiftPrice.StringFixed(2))
	e.FieldStart("pay_price")
	e.Str(o.PayPrice.StringFixed(2))
	e.FieldStart("refund_price")
	e.Str(o.RefundPrice.StringFixed(2))

	e.FieldStart("delivery_type")
	e.Str(string(o.DeliveryType))
	e.FieldStart("receiver")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.ReceiverName)
	e.FieldStart("mobile")
	e.Str(o.ReceiverMobile)
	e.FieldStart("area_code")
	e.Str(o.ReceiverAreaCode)
	e.FieldStart("detail_address")
	e.Str(o.ReceiverDetailAddress)
	e.ObjEnd()

	e.FieldStart("after_sale_status")
	e.Str(string(o.AfterSaleStatus))
	if o.CouponCardID != 0 {
		e.FieldStart("coupon_card_id")
		e.Int64(o.CouponCardID)
	}
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))

	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("variant_id")
		e.Int64(l.VariantID)
		e.FieldStart("product_id")
		e.Int64(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("image")
		e.Str(l.Image)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("origin_price")
		e.Str(l.OriginPrice.StringFixed(2))
		e.FieldStart("buy_price")
		e.Str(l.BuyPrice.StringFixed(2))
		e.FieldStart("buy_total")
		e.Str(l.BuyTotal.StringFixed(2))
		e.FieldStart("discount_total")
		e.Str(l.DiscountTotal.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}
