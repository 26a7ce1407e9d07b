// Package token declares the capability surfaces the marketplace needs from
// the external token standards. Implementations settle against an
// in-process ledger (service/ledger) or inspect live chains
// (service/chain); the marketplace core only ever sees these interfaces.
package token

import (
	"math/big"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// Detector answers standard-support queries (the erc165 surface).
type Detector interface {
	SupportsErc721(c ctx.Ctx, collection domain.Address) (bool, error)
	SupportsErc1155(c ctx.Ctx, collection domain.Address) (bool, error)
	SupportsRoyalty(c ctx.Ctx, collection domain.Address) (bool, error)
}

// Erc721 is the single-owner NFT surface. Transfers are performed with the
// marketplace acting as the approved operator; a transfer from a holder who
// has not approved the marketplace fails.
type Erc721 interface {
	OwnerOf(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error)
	GetApproved(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error)
	IsApprovedForAll(c ctx.Ctx, collection, owner, operator domain.Address) (bool, error)
	SafeTransferFrom(c ctx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId) error
}

// Erc1155 is the multi-unit NFT surface (single-id variant only).
type Erc1155 interface {
	BalanceOf(c ctx.Ctx, collection, owner domain.Address, tokenId domain.TokenId) (int64, error)
	IsApprovedForAll(c ctx.Ctx, collection, owner, operator domain.Address) (bool, error)
	SafeTransferFrom(c ctx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId, quantity int64) error
}

// Royalty is the erc2981 royalty-info surface. Callers must gate on
// Detector.SupportsRoyalty first.
type Royalty interface {
	RoyaltyInfo(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error)
}

// Erc20 is the raw payment-token call surface. TransferFrom spends the
// allowance `from` granted to the marketplace and reports the call's raw
// return data: real-world tokens disagree on the return convention (no
// data, boolean true, boolean false instead of revert), so interpretation
// is left to the caller. A reverted call is reported through err.
type Erc20 interface {
	BalanceOf(c ctx.Ctx, tokenAddress, owner domain.Address) (*big.Int, error)
	Allowance(c ctx.Ctx, tokenAddress, owner, spender domain.Address) (*big.Int, error)
	TransferFrom(c ctx.Ctx, tokenAddress, from, to domain.Address, amount *big.Int) ([]byte, error)
}

// Native is the base-asset value-transfer surface.
type Native interface {
	BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error)
	Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error
}
