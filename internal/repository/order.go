package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mallcraft/trade-service/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO trade_orders (
		order_no, buyer_id, order_status, remark,
		buy_price, discount_price, shipping_price, gift_price, pay_price, refund_price,
		delivery_type, receiver_name, receiver_mobile, receiver_area_code, receiver_detail_address,
		after_sale_status, coupon_card_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING id, created_at`

	insertOrderLineSQL = `INSERT INTO trade_order_lines (
		order_id, status, variant_id, product_id, name, image, quantity,
		origin_price, buy_price, gift_value, buy_total, discount_total, gift_total, refund_total,
		after_sale_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getOrderByNoSQL = `SELECT id, order_no, buyer_id, order_status, remark,
		buy_price, discount_price, shipping_price, gift_price, pay_price, refund_price,
		delivery_type, receiver_name, receiver_mobile, receiver_area_code, receiver_detail_address,
		after_sale_status, COALESCE(coupon_card_id, 0), created_at
	FROM trade_orders WHERE order_no = $1
	ORDER BY id LIMIT 1`

	getOrderLinesSQL = `SELECT id, order_id, status, variant_id, product_id, name, image, quantity,
		origin_price, buy_price, gift_value, buy_total, discount_total, gift_total, refund_total,
		after_sale_status
	FROM trade_order_lines WHERE order_id = $1 ORDER BY id`
)

// beginner is the slice of pgxpool.Pool the order repository needs; tests
// substitute a fake transaction source.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db beginner
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

// Create persists the order header and all lines in one transaction. When
// any insert fails the transaction rolls back and no row from this order
// remains observable.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNo, o.BuyerID, o.Status, o.Remark,
		o.BuyPrice, o.DiscountPrice, o.ShippingPrice, o.GiftPrice, o.PayPrice, o.RefundPrice,
		o.DeliveryType, o.ReceiverName, o.ReceiverMobile, o.ReceiverAreaCode, o.ReceiverDetailAddress,
		o.AfterSaleStatus, nullableID(o.CouponCardID),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting order %q: %w", o.OrderNo, err)
	}

	batch := &pgx.Batch{}
	for i := range o.Lines {
		line := &o.Lines[i]
		line.OrderID = o.ID
		batch.Queue(insertOrderLineSQL,
			line.OrderID, line.Status, line.VariantID, line.ProductID, line.Name, line.Image, line.Quantity,
			line.OriginPrice, line.BuyPrice, line.GiftValue, line.BuyTotal, line.DiscountTotal, line.GiftTotal, line.RefundTotal,
			line.AfterSaleStatus,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range o.Lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("inserting lines for order %q: %w", o.OrderNo, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("closing line batch for order %q: %w", o.OrderNo, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing order %q: %w", o.OrderNo, err)
	}
	return o.ID, nil
}

// GetByOrderNo returns one order with its lines. Order numbers are only
// probabilistically unique; on collision the oldest order wins.
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderByNoSQL, orderNo)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderNo, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderNo, err)
	}

	lineRows, err := r.db.Query(ctx, getOrderLinesSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", orderNo, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", orderNo, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.BuyerID, &o.Status, &o.Remark,
		&o.BuyPrice, &o.DiscountPrice, &o.ShippingPrice, &o.GiftPrice, &o.PayPrice, &o.RefundPrice,
		&o.DeliveryType, &o.ReceiverName, &o.ReceiverMobile, &o.ReceiverAreaCode, &o.ReceiverDetailAddress,
		&o.AfterSaleStatus, &o.CouponCardID, &o.CreatedAt,
	)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(
		&l.ID, &l.OrderID, &l.Status, &l.VariantID, &l.ProductID, &l.Name, &l.Image, &l.Quantity,
		&l.OriginPrice, &l.BuyPrice, &l.GiftValue, &l.BuyTotal, &l.DiscountTotal, &l.GiftTotal, &l.RefundTotal,
		&l.AfterSaleStatus,
	)
	return l, err
}

// nullableID maps the zero id to NULL for optional foreign keys.
func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
