package currency

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// Currency is an allowlisted payment currency. The zero address stands for
// the chain's native asset.
type Currency struct {
	Address domain.Address `json:"address" bson:"address"`
}

// Repo stores the curated payment-currency set. It is consulted by the
// listing lifecycle only at creation/update time; purchases of existing
// listings are deliberately not re-gated (see the lifecycle usecase).
type Repo interface {
	IsAllowed(c ctx.Ctx, addr domain.Address) (bool, error)
	// Add fails with domain.ErrCurrencyAlreadyAllowed for duplicates.
	Add(c ctx.Ctx, addr domain.Address) error
	// Remove fails with domain.ErrCurrencyNotAllowed when absent.
	Remove(c ctx.Ctx, addr domain.Address) error
	// ListAll returns insertion order, except that removing an entry moves
	// the last entry into the removed slot.
	ListAll(c ctx.Ctx) ([]Currency, error)
}

type UseCase interface {
	IsAllowed(c ctx.Ctx, addr domain.Address) (bool, error)
	Add(c ctx.Ctx, caller, addr domain.Address) error
	Remove(c ctx.Ctx, caller, addr domain.Address) error
	ListAll(c ctx.Ctx) ([]Currency, error)
}
