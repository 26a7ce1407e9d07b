package usecase

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/settlement"
	"github.com/vendue/goapi/domain/token"
)

type SettlementUseCaseCfg struct {
	FeeRecipient domain.Address
	Native       token.Native
	Erc20        token.Erc20
	Royalty      token.Royalty
	Detector     token.Detector
}

type impl struct {
	feeRecipient domain.Address
	native       token.Native
	erc20        token.Erc20
	royalty      token.Royalty
	detector     token.Detector
}

func New(cfg *SettlementUseCaseCfg) settlement.UseCase {
	return &impl{
		feeRecipient: cfg.FeeRecipient.ToLower(),
		native:       cfg.Native,
		erc20:        cfg.Erc20,
		royalty:      cfg.Royalty,
		detector:     cfg.Detector,
	}
}

// Quote computes the exact split without moving funds:
// fee + royalty + sellerProceeds == price, always.
func (im *impl) Quote(c ctx.Ctx, in *settlement.Intent) (*settlement.Breakdown, error) {
	fee := new(big.Int).Mul(in.Price, big.NewInt(in.FeeRate))
	fee.Div(fee, big.NewInt(domain.FeeRateDenominator))

	remaining := new(big.Int).Sub(in.Price, fee)

	royaltyAmount := big.NewInt(0)
	royaltyReceiver := domain.EmptyAddress
	supported, err := im.detector.SupportsRoyalty(c, in.Collection)
	if err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"collection": in.Collection,
		}).Error("detector.SupportsRoyalty failed")
		return nil, err
	}
	if supported {
		receiver, amount, err := im.royalty.RoyaltyInfo(c, in.Collection, in.TokenId, in.Price)
		if err != nil {
			c.WithFields(log.Fields{
				"err":        err,
				"collection": in.Collection,
				"tokenId":    in.TokenId,
			}).Error("royalty.RoyaltyInfo failed")
			return nil, err
		}
		// A zero receiver with a nonzero amount is a misconfigured royalty
		// contract; treated as "no royalty" rather than crediting the zero
		// address.
		if !receiver.IsEmpty() && amount != nil && amount.Sign() > 0 {
			if amount.Cmp(remaining) > 0 {
				return nil, domain.ErrRoyaltyExceedsProceeds
			}
			remaining = new(big.Int).Sub(remaining, amount)
			royaltyAmount = amount
			royaltyReceiver = receiver.ToLower()
		}
	}

	return &settlement.Breakdown{
		Price:           new(big.Int).Set(in.Price),
		Fee:             fee,
		Royalty:         royaltyAmount,
		RoyaltyReceiver: royaltyReceiver,
		SellerProceeds:  remaining,
	}, nil
}

// Distribute computes the split and pays fee recipient, royalty receiver
// and seller, in that order (most trusted first). Payments flow directly
// from the buyer: the marketplace account is never credited.
func (im *impl) Distribute(c ctx.Ctx, in *settlement.Intent) (*settlement.Breakdown, error) {
	breakdown, err := im.Quote(c, in)
	if err != nil {
		return nil, err
	}

	payments := []struct {
		to     domain.Address
		amount *big.Int
	}{
		{im.feeRecipient, breakdown.Fee},
		{breakdown.RoyaltyReceiver, breakdown.Royalty},
		{in.Seller, breakdown.SellerProceeds},
	}
	for _, p := range payments {
		if p.amount.Sign() == 0 {
			continue
		}
		if err := im.pay(c, in, p.to, p.amount); err != nil {
			c.WithFields(log.Fields{
				"err":      err,
				"to":       p.to,
				"amount":   p.amount.String(),
				"currency": in.Currency,
			}).Error("payment failed")
			return nil, err
		}
	}
	return breakdown, nil
}

func (im *impl) pay(c ctx.Ctx, in *settlement.Intent, to domain.Address, amount *big.Int) error {
	if in.Currency.IsEmpty() {
		return im.native.Transfer(c, in.Buyer, to, amount)
	}
	ret, err := im.erc20.TransferFrom(c, in.Currency, in.Buyer, to, amount)
	if err != nil {
		return xerrors.Errorf("transferFrom reverted: %v: %w", err, domain.ErrTokenTransferFailed)
	}
	// Tokens that return no data signal success by not reverting; tokens
	// that do return data may encode failure as boolean false.
	if len(ret) > 0 && !decodeBool(ret) {
		return xerrors.Errorf("transferFrom returned false: %w", domain.ErrTokenTransferFailed)
	}
	return nil
}

func decodeBool(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return true
		}
	}
	return false
}
