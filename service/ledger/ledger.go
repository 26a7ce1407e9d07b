// Package ledger is an in-process asset world: native balances, erc20
// balances/allowances, erc721 and erc1155 holdings and approvals, and
// per-collection royalty configuration. It implements the capability
// interfaces in domain/token and domain.Snapshotter, giving lifecycle calls
// the all-or-nothing semantics of an execution environment: every mutation
// is journaled and RevertToSnapshot undoes it.
//
// The ledger does not lock; the listing lifecycle serializes all mutating
// access behind its reentrancy guard.
package ledger

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/token"
)

type erc20Token struct {
	mode     ReturnMode
	balances map[domain.Address]*big.Int
	// allowances[owner][spender]
	allowances map[domain.Address]map[domain.Address]*big.Int
	hook       TransferHook
}

type erc721Collection struct {
	owners    map[domain.TokenId]domain.Address
	approved  map[domain.TokenId]domain.Address
	operators map[domain.Address]map[domain.Address]bool
}

type erc1155Collection struct {
	// balances[tokenId][owner]
	balances  map[domain.TokenId]map[domain.Address]int64
	operators map[domain.Address]map[domain.Address]bool
}

type royaltyConfig struct {
	receiver domain.Address
	// rate over 10000 of the sale price
	rateBps int64
}

// Ledger owns all asset state. The operator address is the marketplace's
// identity: transfers it performs require the asset holder's approval, the
// same authority model a marketplace contract has on chain.
type Ledger struct {
	operator domain.Address

	native  map[domain.Address]*big.Int
	erc20s  map[domain.Address]*erc20Token
	erc721s map[domain.Address]*erc721Collection
	erc1155 map[domain.Address]*erc1155Collection
	royalty map[domain.Address]*royaltyConfig

	journal []func()
}

var _ domain.Snapshotter = (*Ledger)(nil)

func New(operator domain.Address) *Ledger {
	return &Ledger{
		operator: operator.ToLower(),
		native:   map[domain.Address]*big.Int{},
		erc20s:   map[domain.Address]*erc20Token{},
		erc721s:  map[domain.Address]*erc721Collection{},
		erc1155:  map[domain.Address]*erc1155Collection{},
		royalty:  map[domain.Address]*royaltyConfig{},
	}
}

// Operator returns the marketplace identity transfers are performed under.
func (l *Ledger) Operator() domain.Address {
	return l.operator
}

// The capability surfaces are exposed as facet views because the standards
// overlap method names with differing signatures.

func (l *Ledger) Native() token.Native     { return nativeView{l} }
func (l *Ledger) Erc20() token.Erc20       { return erc20View{l} }
func (l *Ledger) Erc721() token.Erc721     { return erc721View{l} }
func (l *Ledger) Erc1155() token.Erc1155   { return erc1155View{l} }
func (l *Ledger) Royalty() token.Royalty   { return royaltyView{l} }
func (l *Ledger) Detector() token.Detector { return detectorView{l} }

// Snapshot returns a revision handle for RevertToSnapshot.
func (l *Ledger) Snapshot() int {
	return len(l.journal)
}

// RevertToSnapshot undoes every mutation journaled after the handle was
// taken, newest first.
func (l *Ledger) RevertToSnapshot(rev int) {
	if rev < 0 || rev > len(l.journal) {
		return
	}
	for i := len(l.journal) - 1; i >= rev; i-- {
		l.journal[i]()
	}
	l.journal = l.journal[:rev]
}

func (l *Ledger) logUndo(undo func()) {
	l.journal = append(l.journal, undo)
}

func errUnknownCollection(addr domain.Address) error {
	return xerrors.Errorf("unknown collection %s: %w", addr, domain.ErrNotFound)
}
