package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no address exists for the given id and buyer.
// An address must belong to the buyer requesting it; an address owned by a
// different buyer is indistinguishable from a missing one.
var ErrNotFound = errors.New("address not found")

// Address is a snapshot of a buyer's shipping address as it existed at
// resolution time. Orders copy these fields; later edits to the address book
// never change a placed order.
type Address struct {
	ID            int64
	BuyerID       int64
	ReceiverName  string
	Mobile        string
	AreaCode      string
	DetailAddress string
}

// Lookup resolves shipping addresses for buyers.
type Lookup interface {
	// Get returns the address with the given id owned by buyerID,
	// or ErrNotFound.
	Get(ctx context.Context, id, buyerID int64) (*Address, error)
}
