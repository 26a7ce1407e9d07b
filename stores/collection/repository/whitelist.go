package repository

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/collection"

	"golang.org/x/xerrors"
)

// whitelist uses the same slice + index-map arena as the currency
// allowlist: O(1) removal by swapping in the last element.
type whitelist struct {
	entries []domain.Address
	index   map[domain.Address]int
}

func NewWhitelist() collection.Repo {
	return &whitelist{
		index: map[domain.Address]int{},
	}
}

func (r *whitelist) IsWhitelisted(c ctx.Ctx, addr domain.Address) (bool, error) {
	_, ok := r.index[addr.ToLower()]
	return ok, nil
}

func (r *whitelist) Add(c ctx.Ctx, addr domain.Address) error {
	addr = addr.ToLower()
	if _, ok := r.index[addr]; ok {
		return xerrors.Errorf("collection %s: %w", addr, domain.ErrBadParamInput)
	}
	r.index[addr] = len(r.entries)
	r.entries = append(r.entries, addr)
	return nil
}

func (r *whitelist) Remove(c ctx.Ctx, addr domain.Address) error {
	addr = addr.ToLower()
	pos, ok := r.index[addr]
	if !ok {
		return xerrors.Errorf("collection %s: %w", addr, domain.ErrNotFound)
	}
	last := len(r.entries) - 1
	if pos != last {
		moved := r.entries[last]
		r.entries[pos] = moved
		r.index[moved] = pos
	}
	r.entries = r.entries[:last]
	delete(r.index, addr)
	return nil
}

func (r *whitelist) ListAll(c ctx.Ctx) ([]domain.Address, error) {
	res := make([]domain.Address, len(r.entries))
	copy(res, r.entries)
	return res, nil
}
