package ledger

import (
	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

type erc1155View struct{ l *Ledger }

// RegisterErc1155 declares an erc1155 collection.
func (l *Ledger) RegisterErc1155(addr domain.Address) {
	l.erc1155[addr.ToLower()] = &erc1155Collection{
		balances:  map[domain.TokenId]map[domain.Address]int64{},
		operators: map[domain.Address]map[domain.Address]bool{},
	}
}

// MintErc1155 credits units of a token id to an owner (setup only).
func (l *Ledger) MintErc1155(addr domain.Address, tokenId domain.TokenId, owner domain.Address, quantity int64) {
	col := l.erc1155[addr.ToLower()]
	l.addErc1155Balance(col, tokenId, owner.ToLower(), quantity)
}

// SetApprovalForAll1155 grants or revokes operator approval.
func (l *Ledger) SetApprovalForAll1155(addr, owner, operator domain.Address, approved bool) {
	col := l.erc1155[addr.ToLower()]
	l.setOperator(col.operators, owner.ToLower(), operator.ToLower(), approved)
}

func (v erc1155View) BalanceOf(c ctx.Ctx, collection, owner domain.Address, tokenId domain.TokenId) (int64, error) {
	col, ok := v.l.erc1155[collection.ToLower()]
	if !ok {
		return 0, errUnknownCollection(collection)
	}
	return col.balances[tokenId][owner.ToLower()], nil
}

func (v erc1155View) IsApprovedForAll(c ctx.Ctx, collection, owner, operator domain.Address) (bool, error) {
	col, ok := v.l.erc1155[collection.ToLower()]
	if !ok {
		return false, errUnknownCollection(collection)
	}
	return col.operators[owner.ToLower()][operator.ToLower()], nil
}

// SafeTransferFrom moves quantity units, requiring the ledger operator to
// be the holder or an approved operator of the holder.
func (v erc1155View) SafeTransferFrom(c ctx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId, quantity int64) error {
	l := v.l
	col, ok := l.erc1155[collection.ToLower()]
	if !ok {
		return errUnknownCollection(collection)
	}
	if quantity <= 0 {
		return xerrors.Errorf("non-positive quantity %d: %w", quantity, domain.ErrBadParamInput)
	}
	from, to = from.ToLower(), to.ToLower()
	if from != l.operator && !col.operators[from][l.operator] {
		return xerrors.Errorf("marketplace not approved for holder %s: %w", from, domain.ErrNotOwnerNorApproved)
	}
	if col.balances[tokenId][from] < quantity {
		return xerrors.Errorf("erc1155 balance of %s for %s/%s: %w", from, collection, tokenId, domain.ErrInsufficientFunds)
	}
	l.addErc1155Balance(col, tokenId, from, -quantity)
	l.addErc1155Balance(col, tokenId, to, quantity)
	return nil
}

func (l *Ledger) addErc1155Balance(col *erc1155Collection, tokenId domain.TokenId, owner domain.Address, delta int64) {
	m, hadToken := col.balances[tokenId]
	if !hadToken {
		m = map[domain.Address]int64{}
		col.balances[tokenId] = m
	}
	prev, had := m[owner]
	m[owner] = prev + delta
	l.logUndo(func() {
		if had {
			m[owner] = prev
		} else {
			delete(m, owner)
		}
		if !hadToken {
			delete(col.balances, tokenId)
		}
	})
}
