package repository

import (
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/currency"
)

// allowlist stores the curated payment-currency set as an iterable slice
// plus an index map, so admin removal is O(1): the removed slot is filled
// with the last element and the slice shrinks by one. Enumeration order is
// insertion order except for slots recycled that way.
type allowlist struct {
	entries []currency.Currency
	index   map[domain.Address]int
}

func NewAllowlist() currency.Repo {
	return &allowlist{
		index: map[domain.Address]int{},
	}
}

// normalize folds the two spellings of the native currency (empty string
// and the zero address) into one key.
func normalize(addr domain.Address) domain.Address {
	if addr.IsEmpty() {
		return domain.NativeCurrency
	}
	return addr.ToLower()
}

func (r *allowlist) IsAllowed(c ctx.Ctx, addr domain.Address) (bool, error) {
	_, ok := r.index[normalize(addr)]
	return ok, nil
}

func (r *allowlist) Add(c ctx.Ctx, addr domain.Address) error {
	addr = normalize(addr)
	if _, ok := r.index[addr]; ok {
		return domain.ErrCurrencyAlreadyAllowed
	}
	r.index[addr] = len(r.entries)
	r.entries = append(r.entries, currency.Currency{Address: addr})
	return nil
}

func (r *allowlist) Remove(c ctx.Ctx, addr domain.Address) error {
	addr = normalize(addr)
	pos, ok := r.index[addr]
	if !ok {
		return domain.ErrCurrencyNotAllowed
	}
	last := len(r.entries) - 1
	if pos != last {
		moved := r.entries[last]
		r.entries[pos] = moved
		r.index[moved.Address] = pos
	}
	r.entries = r.entries[:last]
	delete(r.index, addr)
	return nil
}

func (r *allowlist) ListAll(c ctx.Ctx) ([]currency.Currency, error) {
	res := make([]currency.Currency, len(r.entries))
	copy(res, r.entries)
	return res, nil
}
