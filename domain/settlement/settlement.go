package settlement

import (
	"math/big"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// Intent describes one settlement: who pays whom for which item, in which
// currency, under which fee-rate snapshot.
type Intent struct {
	Buyer      domain.Address
	Seller     domain.Address
	Collection domain.Address
	TokenId    domain.TokenId
	// Currency is the payment currency; domain.NativeCurrency means the
	// chain's base asset, anything else an erc20 contract.
	Currency domain.Address
	Price    *big.Int
	// FeeRate is the fee-rate snapshot taken when the listing was created
	// or last updated, over domain.FeeRateDenominator.
	FeeRate int64
}

// Breakdown is the exact split of one settled price.
// Fee + Royalty + SellerProceeds always equals Price.
type Breakdown struct {
	Price           *big.Int
	Fee             *big.Int
	Royalty         *big.Int
	RoyaltyReceiver domain.Address
	SellerProceeds  *big.Int
}

// FeeSource supplies the marketplace's current fee rate. The lifecycle
// snapshots it per listing at creation/update; purchases settle on the
// snapshot, never on the current rate.
type FeeSource interface {
	FeeRate(c ctx.Ctx) (int64, error)
}

// StaticFeeRate is a FeeSource with a fixed rate, typically loaded from
// configuration.
type StaticFeeRate int64

func (r StaticFeeRate) FeeRate(c ctx.Ctx) (int64, error) {
	return int64(r), nil
}

// UseCase is the payment distribution engine. Quote computes the split
// without moving funds; Distribute computes it and pays fee recipient,
// royalty receiver and seller, in that order, without ever crediting the
// marketplace itself.
type UseCase interface {
	Quote(c ctx.Ctx, in *Intent) (*Breakdown, error)
	Distribute(c ctx.Ctx, in *Intent) (*Breakdown, error)
}
