package ledger

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// ReturnMode emulates the return-value conventions real erc20 tokens use.
type ReturnMode int

const (
	// ReturnBool: success returns abi-encoded true, failure reverts.
	ReturnBool ReturnMode = iota
	// ReturnNothing: success returns no data, failure reverts.
	ReturnNothing
	// ReturnFalseOnFailure: success returns encoded true, failure returns
	// encoded false without reverting.
	ReturnFalseOnFailure
)

// TransferHook runs inside TransferFrom after balances moved, emulating a
// token contract that calls back into its recipient. A non-nil error
// reverts the token call.
type TransferHook func(c ctx.Ctx, from, to domain.Address, amount *big.Int) error

type erc20View struct{ l *Ledger }

// RegisterErc20 declares a payment token with the given return convention.
func (l *Ledger) RegisterErc20(addr domain.Address, mode ReturnMode) {
	l.erc20s[addr.ToLower()] = &erc20Token{
		mode:       mode,
		balances:   map[domain.Address]*big.Int{},
		allowances: map[domain.Address]map[domain.Address]*big.Int{},
	}
}

// MintErc20 credits an account (setup only).
func (l *Ledger) MintErc20(addr, owner domain.Address, amount *big.Int) {
	t := l.erc20s[addr.ToLower()]
	l.setErc20Balance(t, owner.ToLower(), addErc20(t.balances[owner.ToLower()], amount))
}

// ApproveErc20 sets owner's allowance for spender.
func (l *Ledger) ApproveErc20(addr, owner, spender domain.Address, amount *big.Int) {
	t := l.erc20s[addr.ToLower()]
	l.setAllowance(t, owner.ToLower(), spender.ToLower(), new(big.Int).Set(amount))
}

// SetTransferHook installs a callback fired on every TransferFrom of the
// token (tests use it to model reentrant tokens).
func (l *Ledger) SetTransferHook(addr domain.Address, hook TransferHook) {
	l.erc20s[addr.ToLower()].hook = hook
}

func (v erc20View) BalanceOf(c ctx.Ctx, tokenAddress, owner domain.Address) (*big.Int, error) {
	t, ok := v.l.erc20s[tokenAddress.ToLower()]
	if !ok {
		return nil, errUnknownCollection(tokenAddress)
	}
	if b, ok := t.balances[owner.ToLower()]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (v erc20View) Allowance(c ctx.Ctx, tokenAddress, owner, spender domain.Address) (*big.Int, error) {
	t, ok := v.l.erc20s[tokenAddress.ToLower()]
	if !ok {
		return nil, errUnknownCollection(tokenAddress)
	}
	if m, ok := t.allowances[owner.ToLower()]; ok {
		if a, ok := m[spender.ToLower()]; ok {
			return new(big.Int).Set(a), nil
		}
	}
	return big.NewInt(0), nil
}

// TransferFrom spends the allowance `from` granted to the ledger operator.
// The returned bytes follow the token's configured convention; err is the
// revert analog.
func (v erc20View) TransferFrom(c ctx.Ctx, tokenAddress, from, to domain.Address, amount *big.Int) ([]byte, error) {
	l := v.l
	t, ok := l.erc20s[tokenAddress.ToLower()]
	if !ok {
		return nil, errUnknownCollection(tokenAddress)
	}
	from, to = from.ToLower(), to.ToLower()

	fail := func(reason error) ([]byte, error) {
		if t.mode == ReturnFalseOnFailure {
			return encodeBool(false), nil
		}
		return nil, reason
	}

	bal := t.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fail(xerrors.Errorf("erc20 balance of %s: %w", from, domain.ErrInsufficientFunds))
	}
	allowance := big.NewInt(0)
	if m, ok := t.allowances[from]; ok && m[l.operator] != nil {
		allowance = m[l.operator]
	}
	if allowance.Cmp(amount) < 0 {
		return fail(xerrors.Errorf("erc20 allowance of %s: %w", from, domain.ErrInsufficientFunds))
	}

	l.setAllowance(t, from, l.operator, new(big.Int).Sub(allowance, amount))
	l.setErc20Balance(t, from, new(big.Int).Sub(bal, amount))
	l.setErc20Balance(t, to, addErc20(t.balances[to], amount))

	if t.hook != nil {
		if err := t.hook(c, from, to, amount); err != nil {
			return fail(err)
		}
	}

	switch t.mode {
	case ReturnNothing:
		return nil, nil
	default:
		return encodeBool(true), nil
	}
}

func (l *Ledger) setErc20Balance(t *erc20Token, owner domain.Address, val *big.Int) {
	prev, had := t.balances[owner]
	t.balances[owner] = val
	l.logUndo(func() {
		if had {
			t.balances[owner] = prev
		} else {
			delete(t.balances, owner)
		}
	})
}

func (l *Ledger) setAllowance(t *erc20Token, owner, spender domain.Address, val *big.Int) {
	m, hadOwner := t.allowances[owner]
	if !hadOwner {
		m = map[domain.Address]*big.Int{}
		t.allowances[owner] = m
	}
	prev, had := m[spender]
	m[spender] = val
	l.logUndo(func() {
		if had {
			m[spender] = prev
		} else {
			delete(m, spender)
		}
		if !hadOwner {
			delete(t.allowances, owner)
		}
	})
}

func addErc20(a, b *big.Int) *big.Int {
	if a == nil {
		a = big.NewInt(0)
	}
	return new(big.Int).Add(a, b)
}

// encodeBool renders a boolean the way an abi-encoded call returns it: a
// 32-byte word with the low byte set.
func encodeBool(v bool) []byte {
	word := make([]byte, 32)
	if v {
		word[31] = 1
	}
	return word
}
