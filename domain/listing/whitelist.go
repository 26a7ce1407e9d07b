package listing

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// WhitelistRepo is the per-listing buyer whitelist. Batch mutations are
// capped by the implementation's configured maximum and fail with
// domain.ErrExceedsMaxBatchSize beyond it.
type WhitelistRepo interface {
	IsWhitelisted(c ctx.Ctx, id domain.ListingId, buyer domain.Address) (bool, error)
	AddMany(c ctx.Ctx, id domain.ListingId, buyers []domain.Address) error
	RemoveMany(c ctx.Ctx, id domain.ListingId, buyers []domain.Address) error
	// Clear drops the whole whitelist when its listing ends.
	Clear(c ctx.Ctx, id domain.ListingId) error
}
