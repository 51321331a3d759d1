package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mallcraft/trade-service/internal/domain/address"
)

const getAddressSQL = `SELECT id, buyer_id, receiver_name, mobile, area_code, detail_address
	FROM addresses WHERE id = $1 AND buyer_id = $2`

var _ address.Lookup = (*AddressRepository)(nil)

// AddressRepository implements address.Lookup backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Get returns the address with the given id owned by buyerID. The buyer
// filter is part of the query: an address owned by another buyer resolves
// to address.ErrNotFound.
func (r *AddressRepository) Get(ctx context.Context, id, buyerID int64) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, id, buyerID)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	return &a, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(&a.ID, &a.BuyerID, &a.ReceiverName, &a.Mobile, &a.AreaCode, &a.DetailAddress)
	return a, err
}
