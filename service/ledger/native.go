package ledger

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

type nativeView struct{ l *Ledger }

// MintNative credits an account out of thin air (setup only).
func (l *Ledger) MintNative(owner domain.Address, amount *big.Int) {
	l.credit(owner.ToLower(), amount)
}

func (v nativeView) BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	if b, ok := v.l.native[owner.ToLower()]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (v nativeView) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return xerrors.Errorf("negative transfer: %w", domain.ErrBadParamInput)
	}
	from, to = from.ToLower(), to.ToLower()
	bal := v.l.native[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return xerrors.Errorf("native transfer from %s: %w", from, domain.ErrInsufficientFunds)
	}
	v.l.debit(from, amount)
	v.l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(owner domain.Address, amount *big.Int) {
	prev, had := l.native[owner]
	if prev == nil {
		prev = big.NewInt(0)
	}
	l.native[owner] = new(big.Int).Add(prev, amount)
	l.logUndo(func() {
		if had {
			l.native[owner] = prev
		} else {
			delete(l.native, owner)
		}
	})
}

func (l *Ledger) debit(owner domain.Address, amount *big.Int) {
	prev := l.native[owner]
	l.native[owner] = new(big.Int).Sub(prev, amount)
	l.logUndo(func() {
		l.native[owner] = prev
	})
}
