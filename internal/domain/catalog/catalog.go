package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Variant is a purchasable product configuration (SKU), distinct from its
// parent product (SPU). The name and image are display snapshots copied onto
// order lines at creation time.
type Variant struct {
	ID        int64
	ProductID int64
	Name      string
	Image     string
	Price     decimal.Decimal
}

// Lookup provides read access to the product catalog.
type Lookup interface {
	// ListByIDs returns the variants matching any of the given ids.
	// Missing, deleted, or unpublished variants are silently absent from the
	// result; callers detect them by comparing result size to request size.
	ListByIDs(ctx context.Context, ids []int64) ([]Variant, error)
}
