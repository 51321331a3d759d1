package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mallcraft/trade-service/internal/domain/address"
	"github.com/mallcraft/trade-service/internal/domain/catalog"
	"github.com/mallcraft/trade-service/internal/domain/coupon"
	"github.com/mallcraft/trade-service/internal/domain/payment"
	"github.com/mallcraft/trade-service/internal/domain/pricing"
)

// defaultCallTimeout bounds each collaborator call within one create flow.
const defaultCallTimeout = 5 * time.Second

// RequestItem is one requested variant with its quantity.
type RequestItem struct {
	VariantID int64
	Quantity  int
}

// CreateRequest holds the input for creating a trade order.
type CreateRequest struct {
	BuyerID      int64
	AddressID    int64
	CouponCardID int64 // 0 = no coupon
	Remark       string
	Items        []RequestItem
}

// EventSink receives notifications about committed orders. Publish failures
// must not affect the created order; implementations report errors for
// logging only.
type EventSink interface {
	OrderCreated(ctx context.Context, o *Order) error
}

// Service orchestrates order creation: validate address and catalog, resolve
// pricing, consume the coupon, commit the order, then hand off to payment.
// Stages run strictly sequentially; any failure before commit aborts the flow
// with no persisted order. Known gap: coupon consumption and order commit are
// not one atomic unit, so a commit failure leaves the coupon consumed with no
// order created. Inventory deduction is deferred entirely; closing both gaps
// needs a saga with compensating release steps.
type Service struct {
	addresses address.Lookup
	variants  catalog.Lookup
	pricer    pricing.Calculator
	coupons   coupon.Consumer
	orders    Repository
	payments  payment.Initiator
	events    EventSink

	gen         *NumberGenerator
	callTimeout time.Duration
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithEventSink makes the service publish an event after each committed order.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithCallTimeout overrides the per-collaborator call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) { s.callTimeout = d }
}

// NewService creates an order Service with the required collaborators.
func NewService(
	addresses address.Lookup,
	variants catalog.Lookup,
	pricer pricing.Calculator,
	coupons coupon.Consumer,
	orders Repository,
	payments payment.Initiator,
	opts ...Option,
) *Service {
	s := &Service{
		addresses:   addresses,
		variants:    variants,
		pricer:      pricer,
		coupons:     coupons,
		orders:      orders,
		payments:    payments,
		gen:         NewNumberGenerator(),
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder runs the five-stage creation flow and returns the committed
// order. Every stage failure aborts the remainder and surfaces unchanged; no
// stage is retried.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Stage 1: resolve the shipping address; it must belong to the buyer.
	addr, err := s.resolveAddress(ctx, req)
	if err != nil {
		return nil, err
	}

	// Stage 2: resolve catalog variants for all requested ids.
	variants, err := s.resolveVariants(ctx, req)
	if err != nil {
		return nil, err
	}

	// Stage 3: price the transaction with every item selected.
	breakdown, err := s.resolvePrice(ctx, req)
	if err != nil {
		return nil, err
	}

	// TODO: deduct inventory here once the inventory service integration
	// lands; order + coupon + inventory then need a saga.

	// Stage 4: consume the coupon. There is no compensating release if the
	// commit below fails.
	if req.CouponCardID != 0 {
		if err := s.consumeCoupon(ctx, req); err != nil {
			return nil, err
		}
	}

	// Stage 5: commit header and lines in one transaction.
	o, err := s.buildOrder(req, addr, variants, breakdown)
	if err != nil {
		return nil, err
	}
	id, err := s.orders.Create(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	o.ID = id

	s.handoff(ctx, o)
	return o, nil
}

func validateRequest(req CreateRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	seen := make(map[int64]struct{}, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{VariantID: it.VariantID}
		}
		if _, dup := seen[it.VariantID]; dup {
			return &DuplicateVariantError{VariantID: it.VariantID}
		}
		seen[it.VariantID] = struct{}{}
	}
	return nil
}

func (s *Service) resolveAddress(ctx context.Context, req CreateRequest) (*address.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	addr, err := s.addresses.Get(ctx, req.AddressID, req.BuyerID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "resolve address")
	}
	return addr, nil
}

func (s *Service) resolveVariants(ctx context.Context, req CreateRequest) (map[int64]catalog.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	ids := make([]int64, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.VariantID
	}
	variants, err := s.variants.ListByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve variants")
	}
	// A shorter result than the request means deleted or unpublished
	// variants; the catalog signals this only through the size.
	if len(variants) != len(ids) {
		return nil, &CatalogMismatchError{Requested: len(ids), Resolved: len(variants)}
	}

	byID := make(map[int64]catalog.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	return byID, nil
}

func (s *Service) resolvePrice(ctx context.Context, req CreateRequest) (*pricing.Breakdown, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	items := make([]pricing.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = pricing.Item{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			Selected:  true,
		}
	}
	return s.pricer.Calc(ctx, req.BuyerID, items, req.CouponCardID)
}

func (s *Service) consumeCoupon(ctx context.Context, req CreateRequest) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.coupons.MarkUsed(ctx, req.BuyerID, req.CouponCardID); err != nil {
		return &CouponConsumptionError{CardID: req.CouponCardID, Err: err}
	}
	return nil
}

// buildOrder assembles the order aggregate from validated inputs. A lookup
// miss here means the aggregation or pricing output fell out of sync with
// the request: fatal, not user-recoverable.
func (s *Service) buildOrder(
	req CreateRequest,
	addr *address.Address,
	variants map[int64]catalog.Variant,
	breakdown *pricing.Breakdown,
) (*Order, error) {
	o := &Order{
		BuyerID: req.BuyerID,
		OrderNo: s.gen.Next(),
		Status:  StatusWaitingPayment,
		Remark:  req.Remark,

		BuyPrice:      breakdown.Fee.BuyTotal,
		DiscountPrice: breakdown.Fee.DiscountTotal,
		ShippingPrice: breakdown.Fee.ShippingTotal,
		GiftPrice:     breakdown.Fee.GiftTotal,
		PayPrice:      decimal.Zero,
		RefundPrice:   decimal.Zero,

		DeliveryType:          DeliveryExpress,
		ReceiverName:          addr.ReceiverName,
		ReceiverMobile:        addr.Mobile,
		ReceiverAreaCode:      addr.AreaCode,
		ReceiverDetailAddress: addr.DetailAddress,

		AfterSaleStatus: AfterSaleNone,
		CouponCardID:    req.CouponCardID,
	}

	o.Lines = make([]Line, 0, len(req.Items))
	for _, it := range req.Items {
		v, ok := variants[it.VariantID]
		if !ok {
			return nil, &InconsistencyError{What: "resolved variant", VariantID: it.VariantID}
		}
		price, ok := breakdown.ItemByVariant(it.VariantID)
		if !ok {
			return nil, &InconsistencyError{What: "price entry", VariantID: it.VariantID}
		}
		o.Lines = append(o.Lines, Line{
			Status:    o.Status,
			VariantID: v.ID,
			ProductID: v.ProductID,
			Name:      v.Name,
			Image:     v.Image,
			Quantity:  it.Quantity,

			OriginPrice:   price.OriginPrice,
			BuyPrice:      price.BuyPrice,
			GiftValue:     price.GiftValue,
			BuyTotal:      price.BuyTotal,
			DiscountTotal: price.DiscountTotal,
			GiftTotal:     price.GiftTotal,
			RefundTotal:   decimal.Zero,

			AfterSaleStatus: AfterSaleNone,
		})
	}
	return o, nil
}

// handoff notifies downstream consumers about the committed order. The order
// already exists at this point, so failures are logged and swallowed.
func (s *Service) handoff(ctx context.Context, o *Order) {
	lg := zctx.From(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	total := o.BuyPrice.Add(o.ShippingPrice)
	if err := s.payments.Initiate(ctx, o.ID, o.OrderNo, total); err != nil {
		lg.Error("initiate payment",
			zap.Int64("order_id", o.ID),
			zap.String("order_no", o.OrderNo),
			zap.Error(err),
		)
	}

	if s.events != nil {
		if err := s.events.OrderCreated(ctx, o); err != nil {
			lg.Error("publish order created event",
				zap.Int64("order_id", o.ID),
				zap.Error(err),
			)
		}
	}
}
