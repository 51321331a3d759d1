package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mallcraft/trade-service/internal/domain/catalog"
)

const listVariantsByIDsSQL = `SELECT id, product_id, name, image, price
	FROM product_variants WHERE id = ANY($1) AND published`

var _ catalog.Lookup = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Lookup backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListByIDs returns the published variants matching any of the given ids.
// Unpublished and deleted variants are simply absent from the result.
func (r *CatalogRepository) ListByIDs(ctx context.Context, ids []int64) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, listVariantsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing variants by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.Image, &v.Price)
	return v, err
}
