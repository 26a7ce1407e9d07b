package ledger

import (
	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

type erc721View struct{ l *Ledger }

// RegisterErc721 declares an erc721 collection.
func (l *Ledger) RegisterErc721(addr domain.Address) {
	l.erc721s[addr.ToLower()] = &erc721Collection{
		owners:    map[domain.TokenId]domain.Address{},
		approved:  map[domain.TokenId]domain.Address{},
		operators: map[domain.Address]map[domain.Address]bool{},
	}
}

// MintErc721 assigns a token to an owner (setup only).
func (l *Ledger) MintErc721(addr domain.Address, tokenId domain.TokenId, owner domain.Address) {
	l.setOwner(l.erc721s[addr.ToLower()], tokenId, owner.ToLower())
}

// ApproveErc721 grants per-token transfer approval.
func (l *Ledger) ApproveErc721(addr domain.Address, tokenId domain.TokenId, operator domain.Address) {
	col := l.erc721s[addr.ToLower()]
	prev, had := col.approved[tokenId]
	col.approved[tokenId] = operator.ToLower()
	l.logUndo(func() {
		if had {
			col.approved[tokenId] = prev
		} else {
			delete(col.approved, tokenId)
		}
	})
}

// SetApprovalForAll721 grants or revokes operator approval over all the
// owner's tokens in the collection.
func (l *Ledger) SetApprovalForAll721(addr, owner, operator domain.Address, approved bool) {
	col := l.erc721s[addr.ToLower()]
	l.setOperator(col.operators, owner.ToLower(), operator.ToLower(), approved)
}

func (v erc721View) OwnerOf(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	col, ok := v.l.erc721s[collection.ToLower()]
	if !ok {
		return "", errUnknownCollection(collection)
	}
	owner, ok := col.owners[tokenId]
	if !ok {
		return "", xerrors.Errorf("token %s/%s: %w", collection, tokenId, domain.ErrNotFound)
	}
	return owner, nil
}

func (v erc721View) GetApproved(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	col, ok := v.l.erc721s[collection.ToLower()]
	if !ok {
		return "", errUnknownCollection(collection)
	}
	return col.approved[tokenId], nil
}

func (v erc721View) IsApprovedForAll(c ctx.Ctx, collection, owner, operator domain.Address) (bool, error) {
	col, ok := v.l.erc721s[collection.ToLower()]
	if !ok {
		return false, errUnknownCollection(collection)
	}
	return col.operators[owner.ToLower()][operator.ToLower()], nil
}

// SafeTransferFrom moves the token, requiring the ledger operator to be the
// owner, per-token approved, or an approved operator of the owner.
func (v erc721View) SafeTransferFrom(c ctx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId) error {
	l := v.l
	col, ok := l.erc721s[collection.ToLower()]
	if !ok {
		return errUnknownCollection(collection)
	}
	from, to = from.ToLower(), to.ToLower()
	owner, ok := col.owners[tokenId]
	if !ok || owner != from {
		return xerrors.Errorf("transfer of %s/%s from non-owner %s: %w", collection, tokenId, from, domain.ErrNotOwnerNorApproved)
	}
	if owner != l.operator && col.approved[tokenId] != l.operator && !col.operators[owner][l.operator] {
		return xerrors.Errorf("marketplace not approved for %s/%s: %w", collection, tokenId, domain.ErrNotOwnerNorApproved)
	}
	l.setOwner(col, tokenId, to)
	// per-token approval resets on transfer
	if prev, had := col.approved[tokenId]; had {
		delete(col.approved, tokenId)
		l.logUndo(func() { col.approved[tokenId] = prev })
	}
	return nil
}

func (l *Ledger) setOwner(col *erc721Collection, tokenId domain.TokenId, owner domain.Address) {
	prev, had := col.owners[tokenId]
	col.owners[tokenId] = owner
	l.logUndo(func() {
		if had {
			col.owners[tokenId] = prev
		} else {
			delete(col.owners, tokenId)
		}
	})
}

func (l *Ledger) setOperator(operators map[domain.Address]map[domain.Address]bool, owner, operator domain.Address, approved bool) {
	m, hadOwner := operators[owner]
	if !hadOwner {
		m = map[domain.Address]bool{}
		operators[owner] = m
	}
	prev, had := m[operator]
	m[operator] = approved
	l.logUndo(func() {
		if had {
			m[operator] = prev
		} else {
			delete(m, operator)
		}
		if !hadOwner {
			delete(operators, owner)
		}
	})
}
