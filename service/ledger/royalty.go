package ledger

import (
	"math/big"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

type royaltyView struct{ l *Ledger }
type detectorView struct{ l *Ledger }

// SetRoyalty configures erc2981 support for a collection. rateBps is over
// 10000 of the sale price. An empty receiver with a nonzero rate is legal
// and models the misconfigured contracts the settlement engine tolerates.
func (l *Ledger) SetRoyalty(collection, receiver domain.Address, rateBps int64) {
	l.royalty[collection.ToLower()] = &royaltyConfig{
		receiver: receiver.ToLower(),
		rateBps:  rateBps,
	}
}

func (v royaltyView) RoyaltyInfo(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error) {
	cfg, ok := v.l.royalty[collection.ToLower()]
	if !ok {
		return domain.EmptyAddress, big.NewInt(0), nil
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(cfg.rateBps))
	amount.Div(amount, big.NewInt(10000))
	return cfg.receiver, amount, nil
}

func (v detectorView) SupportsErc721(c ctx.Ctx, collection domain.Address) (bool, error) {
	_, ok := v.l.erc721s[collection.ToLower()]
	return ok, nil
}

func (v detectorView) SupportsErc1155(c ctx.Ctx, collection domain.Address) (bool, error) {
	_, ok := v.l.erc1155[collection.ToLower()]
	return ok, nil
}

func (v detectorView) SupportsRoyalty(c ctx.Ctx, collection domain.Address) (bool, error) {
	_, ok := v.l.royalty[collection.ToLower()]
	return ok, nil
}
