package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallcraft/trade-service/internal/domain/address"
	"github.com/mallcraft/trade-service/internal/domain/catalog"
	"github.com/mallcraft/trade-service/internal/domain/coupon"
	"github.com/mallcraft/trade-service/internal/domain/payment"
	"github.com/mallcraft/trade-service/internal/domain/pricing"
)

// --- Mock implementations ---

type mockAddressLookup struct {
	addr  *address.Address
	err   error
	calls int
}

func (m *mockAddressLookup) Get(_ context.Context, id, buyerID int64) (*address.Address, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.addr == nil || m.addr.ID != id || m.addr.BuyerID != buyerID {
		return nil, address.ErrNotFound
	}
	return m.addr, nil
}

type mockCatalog struct {
	variants []catalog.Variant
	err      error
	calls    int
}

func (m *mockCatalog) ListByIDs(_ context.Context, _ []int64) ([]catalog.Variant, error) {
	m.calls++
	return m.variants, m.err
}

type mockPricer struct {
	breakdown *pricing.Breakdown
	err       error
	calls     int
}

func (m *mockPricer) Calc(_ context.Context, _ int64, _ []pricing.Item, _ int64) (*pricing.Breakdown, error) {
	m.calls++
	return m.breakdown, m.err
}

type mockConsumer struct {
	err   error
	calls int
}

func (m *mockConsumer) MarkUsed(_ context.Context, _, _ int64) error {
	m.calls++
	return m.err
}

type mockOrderRepo struct {
	lastOrder *Order
	err       error
	calls     int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) (int64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	m.lastOrder = o
	return 1001, nil
}

func (m *mockOrderRepo) GetByOrderNo(context.Context, string) (*Order, error) {
	return nil, errors.New("not implemented")
}

type mockEventSink struct {
	created []*Order
}

func (m *mockEventSink) OrderCreated(_ context.Context, o *Order) error {
	m.created = append(m.created, o)
	return nil
}

// --- Helpers ---

const (
	testBuyerID   = int64(7)
	testAddressID = int64(31)
)

func testAddress() *address.Address {
	return &address.Address{
		ID:            testAddressID,
		BuyerID:       testBuyerID,
		ReceiverName:  "Ada",
		Mobile:        "13800000000",
		AreaCode:      "310100",
		DetailAddress: "1 Example Road",
	}
}

func testVariants() []catalog.Variant {
	return []catalog.Variant{
		{ID: 1, ProductID: 10, Name: "Widget / Blue", Image: "widget.jpg", Price: decimal.RequireFromString("50.00")},
		{ID: 2, ProductID: 20, Name: "Gadget / Red", Image: "gadget.jpg", Price: decimal.RequireFromString("50.00")},
	}
}

// testBreakdown prices variant 1 at buyTotal 100 and variant 2 at 50.
func testBreakdown() *pricing.Breakdown {
	return &pricing.Breakdown{
		Fee: pricing.Fee{
			BuyTotal:      decimal.RequireFromString("150.00"),
			DiscountTotal: decimal.Zero,
			ShippingTotal: decimal.RequireFromString("8.00"),
			GiftTotal:     decimal.Zero,
		},
		Groups: []pricing.ItemGroup{{Items: []pricing.ItemPrice{
			{
				VariantID:   1,
				OriginPrice: decimal.RequireFromString("50.00"),
				BuyPrice:    decimal.RequireFromString("50.00"),
				BuyTotal:    decimal.RequireFromString("100.00"),
			},
			{
				VariantID:   2,
				OriginPrice: decimal.RequireFromString("50.00"),
				BuyPrice:    decimal.RequireFromString("50.00"),
				BuyTotal:    decimal.RequireFromString("50.00"),
			},
		}}},
	}
}

func testRequest() CreateRequest {
	return CreateRequest{
		BuyerID:   testBuyerID,
		AddressID: testAddressID,
		Remark:    "leave at the door",
		Items: []RequestItem{
			{VariantID: 1, Quantity: 2},
			{VariantID: 2, Quantity: 1},
		},
	}
}

type fixture struct {
	addresses *mockAddressLookup
	variants  *mockCatalog
	pricer    *mockPricer
	coupons   *mockConsumer
	orders    *mockOrderRepo
	svc       *Service
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		addresses: &mockAddressLookup{addr: testAddress()},
		variants:  &mockCatalog{variants: testVariants()},
		pricer:    &mockPricer{breakdown: testBreakdown()},
		coupons:   &mockConsumer{},
		orders:    &mockOrderRepo{},
	}
	f.svc = NewService(f.addresses, f.variants, f.pricer, f.coupons, f.orders, payment.Nop{}, opts...)
	return f
}

var orderNoPattern = regexp.MustCompile(`^\d{20}$`)

// --- Tests ---

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture()
	start := time.Now()

	created, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(1001), created.ID)

	o := f.orders.lastOrder
	require.NotNil(t, o)
	assert.Equal(t, StatusWaitingPayment, o.Status)
	assert.True(t, decimal.RequireFromString("150.00").Equal(o.BuyPrice))
	assert.True(t, decimal.Zero.Equal(o.PayPrice))
	assert.True(t, decimal.Zero.Equal(o.RefundPrice))
	assert.Equal(t, AfterSaleNone, o.AfterSaleStatus)
	assert.Equal(t, DeliveryExpress, o.DeliveryType)

	// Address snapshot is copied onto the header.
	assert.Equal(t, "Ada", o.ReceiverName)
	assert.Equal(t, "13800000000", o.ReceiverMobile)
	assert.Equal(t, "310100", o.ReceiverAreaCode)
	assert.Equal(t, "1 Example Road", o.ReceiverDetailAddress)

	// One line per requested item, in request order, each variant exactly once.
	require.Len(t, o.Lines, 2)
	assert.Equal(t, int64(1), o.Lines[0].VariantID)
	assert.Equal(t, int64(2), o.Lines[1].VariantID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, 1, o.Lines[1].Quantity)
	assert.True(t, decimal.RequireFromString("100.00").Equal(o.Lines[0].BuyTotal))
	assert.True(t, decimal.RequireFromString("50.00").Equal(o.Lines[1].BuyTotal))

	// Sum of line buy totals equals the header buy price.
	sum := decimal.Zero
	for _, line := range o.Lines {
		assert.Equal(t, StatusWaitingPayment, line.Status)
		assert.True(t, decimal.Zero.Equal(line.RefundTotal))
		sum = sum.Add(line.BuyTotal)
	}
	assert.True(t, sum.Equal(o.BuyPrice))

	// Order number: 14-digit timestamp not earlier than request start,
	// 6-digit random suffix.
	require.Regexp(t, orderNoPattern, o.OrderNo)
	ts, err := time.ParseInLocation("20060102150405", o.OrderNo[:14], time.Local)
	require.NoError(t, err)
	assert.False(t, ts.Before(start.Truncate(time.Second)))
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), CreateRequest{BuyerID: testBuyerID, AddressID: testAddressID})

	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Zero(t, f.addresses.calls)
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.Items[1].Quantity = 0

	_, err := f.svc.CreateOrder(context.Background(), req)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(2), iqErr.VariantID)
}

func TestCreateOrder_DuplicateVariant(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.Items[1].VariantID = 1

	_, err := f.svc.CreateOrder(context.Background(), req)

	var dupErr *DuplicateVariantError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, int64(1), dupErr.VariantID)
}

func TestCreateOrder_AddressNotFound(t *testing.T) {
	f := newFixture()
	f.addresses.addr = nil

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.ErrorIs(t, err, address.ErrNotFound)
	// Pricing is never consulted when address resolution fails.
	assert.Zero(t, f.pricer.calls)
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_CatalogMismatch(t *testing.T) {
	f := newFixture()
	f.variants.variants = testVariants()[:1] // one of two resolves

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	var cmErr *CatalogMismatchError
	require.ErrorAs(t, err, &cmErr)
	assert.Equal(t, 2, cmErr.Requested)
	assert.Equal(t, 1, cmErr.Resolved)
	// Zero persistence side effects.
	assert.Zero(t, f.coupons.calls)
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_PricingRejected(t *testing.T) {
	f := newFixture()
	f.pricer.breakdown = nil
	f.pricer.err = &pricing.RejectedError{Reason: "coupon card 42 not found"}

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	var rej *pricing.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_PricingUnavailable(t *testing.T) {
	f := newFixture()
	f.pricer.breakdown = nil
	f.pricer.err = pricing.ErrUnavailable

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.ErrorIs(t, err, pricing.ErrUnavailable)
	assert.Zero(t, f.coupons.calls)
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_CouponConsumed(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.CouponCardID = 42

	_, err := f.svc.CreateOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, f.coupons.calls)
	assert.Equal(t, int64(42), f.orders.lastOrder.CouponCardID)
}

func TestCreateOrder_NoCouponNoConsumption(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Zero(t, f.coupons.calls)
}

func TestCreateOrder_CouponConsumptionFails(t *testing.T) {
	f := newFixture()
	f.coupons.err = coupon.ErrCardUsed
	req := testRequest()
	req.CouponCardID = 42

	_, err := f.svc.CreateOrder(context.Background(), req)

	var ccErr *CouponConsumptionError
	require.ErrorAs(t, err, &ccErr)
	assert.Equal(t, int64(42), ccErr.CardID)
	require.ErrorIs(t, err, coupon.ErrCardUsed)
	// No order is persisted when consumption fails.
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_StorageFailure(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("connection reset")

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestCreateOrder_PriceEntryMissing(t *testing.T) {
	f := newFixture()
	// Pricing output out of sync with the request: entry for variant 2 absent.
	f.pricer.breakdown.Groups[0].Items = f.pricer.breakdown.Groups[0].Items[:1]

	_, err := f.svc.CreateOrder(context.Background(), testRequest())

	var incErr *InconsistencyError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, int64(2), incErr.VariantID)
	assert.Zero(t, f.orders.calls)
}

func TestCreateOrder_EventPublished(t *testing.T) {
	sink := &mockEventSink{}
	f := newFixture(WithEventSink(sink))

	created, err := f.svc.CreateOrder(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, sink.created, 1)
	assert.Equal(t, created.ID, sink.created[0].ID)
	assert.Equal(t, f.orders.lastOrder.OrderNo, sink.created[0].OrderNo)
}
