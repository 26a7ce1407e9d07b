package usecase

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/collection"
)

type CollectionUseCaseCfg struct {
	Repo  collection.Repo
	Admin domain.Address
}

type impl struct {
	repo  collection.Repo
	admin domain.Address
}

func New(cfg *CollectionUseCaseCfg) collection.UseCase {
	return &impl{
		repo:  cfg.Repo,
		admin: cfg.Admin.ToLower(),
	}
}

func (im *impl) IsWhitelisted(c ctx.Ctx, addr domain.Address) (bool, error) {
	return im.repo.IsWhitelisted(c, addr)
}

func (im *impl) Add(c ctx.Ctx, caller, addr domain.Address) error {
	if !caller.Equals(im.admin) {
		return domain.ErrNotAdmin
	}
	if err := im.repo.Add(c, addr); err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"collection": addr,
		}).Error("whitelist.Add failed")
		return err
	}
	c.WithField("collection", addr).Info("collection whitelisted")
	return nil
}

func (im *impl) Remove(c ctx.Ctx, caller, addr domain.Address) error {
	if !caller.Equals(im.admin) {
		return domain.ErrNotAdmin
	}
	if err := im.repo.Remove(c, addr); err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"collection": addr,
		}).Error("whitelist.Remove failed")
		return err
	}
	c.WithField("collection", addr).Info("collection de-whitelisted")
	return nil
}

func (im *impl) ListAll(c ctx.Ctx) ([]domain.Address, error) {
	return im.repo.ListAll(c)
}
