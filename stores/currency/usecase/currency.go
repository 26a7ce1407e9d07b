package usecase

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/currency"
)

type CurrencyUseCaseCfg struct {
	Repo currency.Repo
	// Admin is the marketplace owner; only it may mutate the allowlist.
	Admin domain.Address
}

type impl struct {
	repo  currency.Repo
	admin domain.Address
}

func New(cfg *CurrencyUseCaseCfg) currency.UseCase {
	return &impl{
		repo:  cfg.Repo,
		admin: cfg.Admin.ToLower(),
	}
}

func (im *impl) IsAllowed(c ctx.Ctx, addr domain.Address) (bool, error) {
	return im.repo.IsAllowed(c, addr)
}

func (im *impl) Add(c ctx.Ctx, caller, addr domain.Address) error {
	if !caller.Equals(im.admin) {
		return domain.ErrNotAdmin
	}
	if err := im.repo.Add(c, addr); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"currency": addr,
		}).Error("allowlist.Add failed")
		return err
	}
	c.WithField("currency", addr).Info("currency allowed")
	return nil
}

func (im *impl) Remove(c ctx.Ctx, caller, addr domain.Address) error {
	if !caller.Equals(im.admin) {
		return domain.ErrNotAdmin
	}
	if err := im.repo.Remove(c, addr); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"currency": addr,
		}).Error("allowlist.Remove failed")
		return err
	}
	c.WithField("currency", addr).Info("currency disallowed")
	return nil
}

func (im *impl) ListAll(c ctx.Ctx) ([]currency.Currency, error) {
	return im.repo.ListAll(c)
}
