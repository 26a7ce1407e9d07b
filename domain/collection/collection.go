package collection

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// Repo is the NFT-collection whitelist membership store.
type Repo interface {
	IsWhitelisted(c ctx.Ctx, collection domain.Address) (bool, error)
	Add(c ctx.Ctx, collection domain.Address) error
	Remove(c ctx.Ctx, collection domain.Address) error
	ListAll(c ctx.Ctx) ([]domain.Address, error)
}

type UseCase interface {
	IsWhitelisted(c ctx.Ctx, collection domain.Address) (bool, error)
	Add(c ctx.Ctx, caller, collection domain.Address) error
	Remove(c ctx.Ctx, caller, collection domain.Address) error
	ListAll(c ctx.Ctx) ([]domain.Address, error)
}
