package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mallcraft/trade-service/internal/domain/coupon"
)

const (
	getCouponCardSQL = `SELECT id, buyer_id, status, discount_type, value, min_items,
		max_discount, description, valid_until, used_at
	FROM coupon_cards WHERE id = $1 AND buyer_id = $2`

	markCardUsedSQL = `UPDATE coupon_cards SET status = 'used', used_at = now()
	WHERE id = $1 AND buyer_id = $2 AND status = 'unused'`
)

var (
	_ coupon.Repository = (*CouponRepository)(nil)
	_ coupon.Consumer   = (*CouponRepository)(nil)
)

// CouponRepository implements coupon.Repository and coupon.Consumer backed
// by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindCard returns the card with the given id owned by buyerID, or
// coupon.ErrCardNotFound.
func (r *CouponRepository) FindCard(ctx context.Context, id, buyerID int64) (*coupon.Card, error) {
	rows, err := r.pool.Query(ctx, getCouponCardSQL, id, buyerID)
	if err != nil {
		return nil, fmt.Errorf("finding coupon card %d: %w", id, err)
	}

	card, err := pgx.CollectExactlyOneRow(rows, scanCouponCard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrCardNotFound
		}
		return nil, fmt.Errorf("finding coupon card %d: %w", id, err)
	}
	return &card, nil
}

// MarkUsed consumes the card with a conditional update: only an unused card
// transitions to used, so concurrent consumers race on the row and exactly
// one wins. When zero rows match, the card is re-read to tell not-found from
// already-used.
func (r *CouponRepository) MarkUsed(ctx context.Context, buyerID, cardID int64) error {
	tag, err := r.pool.Exec(ctx, markCardUsedSQL, cardID, buyerID)
	if err != nil {
		return fmt.Errorf("marking coupon card %d used: %w", cardID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	card, err := r.FindCard(ctx, cardID, buyerID)
	if err != nil {
		return err
	}
	switch card.Status {
	case coupon.CardUsed:
		return coupon.ErrCardUsed
	case coupon.CardExpired:
		return coupon.ErrCardExpired
	default:
		return fmt.Errorf("marking coupon card %d used: unexpected status %q", cardID, card.Status)
	}
}

func scanCouponCard(row pgx.CollectableRow) (coupon.Card, error) {
	var (
		card       coupon.Card
		validUntil *time.Time
		usedAt     *time.Time
	)
	err := row.Scan(
		&card.ID, &card.BuyerID, &card.Status,
		&card.Rule.DiscountType, &card.Rule.Value, &card.Rule.MinItems,
		&card.Rule.MaxDiscount, &card.Rule.Description,
		&validUntil, &usedAt,
	)
	card.ValidUntil = validUntil
	card.UsedAt = usedAt
	return card, err
}
