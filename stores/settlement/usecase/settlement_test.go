package usecase

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/settlement"
	"github.com/vendue/goapi/service/ledger"
)

type settlementTestSuite struct {
	suite.Suite
	ctx bCtx.Ctx

	market       domain.Address
	feeRecipient domain.Address
	royaltyRecv  domain.Address
	seller       domain.Address
	buyer        domain.Address
	collection   domain.Address
	payToken     domain.Address

	ledger *ledger.Ledger
	uc     settlement.UseCase
}

func TestSettlement(t *testing.T) {
	suite.Run(t, new(settlementTestSuite))
}

func (s *settlementTestSuite) SetupSuite() {
	s.ctx = bCtx.Background()
	s.market = "0x00000000000000000000000000000000000a11ce"
	s.feeRecipient = "0x000000000000000000000000000000000000fee5"
	s.royaltyRecv = "0x000000000000000000000000000000000000ab01"
	s.seller = "0x0000000000000000000000000000000000005e11"
	s.buyer = "0x000000000000000000000000000000000000b0b1"
	s.collection = "0x0000000000000000000000000000000000000721"
	s.payToken = "0x0000000000000000000000000000000000000020"
}

func (s *settlementTestSuite) SetupTest() {
	s.ledger = ledger.New(s.market)
	s.ledger.RegisterErc721(s.collection)
	s.ledger.MintNative(s.buyer, big.NewInt(10_000_000))
	s.uc = New(&SettlementUseCaseCfg{
		FeeRecipient: s.feeRecipient,
		Native:       s.ledger.Native(),
		Erc20:        s.ledger.Erc20(),
		Royalty:      s.ledger.Royalty(),
		Detector:     s.ledger.Detector(),
	})
}

func (s *settlementTestSuite) intent(price int64) *settlement.Intent {
	return &settlement.Intent{
		Buyer:      s.buyer,
		Seller:     s.seller,
		Collection: s.collection,
		TokenId:    "1",
		Currency:   domain.NativeCurrency,
		Price:      big.NewInt(price),
		FeeRate:    2000, // 2%
	}
}

func (s *settlementTestSuite) nativeBalance(a domain.Address) int64 {
	b, err := s.ledger.Native().BalanceOf(s.ctx, a)
	s.Require().NoError(err)
	return b.Int64()
}

func (s *settlementTestSuite) TestQuoteSplitsExactly() {
	req := s.Require()
	s.ledger.SetRoyalty(s.collection, s.royaltyRecv, 500)

	b, err := s.uc.Quote(s.ctx, s.intent(1_000_000))
	req.NoError(err)

	req.Equal(int64(20000), b.Fee.Int64())
	req.Equal(int64(50000), b.Royalty.Int64())
	req.Equal(s.royaltyRecv, b.RoyaltyReceiver)
	req.Equal(int64(930000), b.SellerProceeds.Int64())

	sum := new(big.Int).Add(b.Fee, b.Royalty)
	sum.Add(sum, b.SellerProceeds)
	req.Equal(b.Price, sum)
}

func (s *settlementTestSuite) TestQuoteRoundsInBuyersFavor() {
	req := s.Require()
	s.ledger.SetRoyalty(s.collection, s.royaltyRecv, 333)

	// odd price forces truncation in both fee and royalty; the remainder
	// must land in the seller's proceeds so the split still covers the
	// price exactly
	b, err := s.uc.Quote(s.ctx, s.intent(999_999))
	req.NoError(err)

	sum := new(big.Int).Add(b.Fee, b.Royalty)
	sum.Add(sum, b.SellerProceeds)
	req.Equal(b.Price, sum)
}

func (s *settlementTestSuite) TestRoyaltyExceedsProceeds() {
	req := s.Require()
	// 99.5% royalty cannot fit after a 2% fee
	s.ledger.SetRoyalty(s.collection, s.royaltyRecv, 9950)

	_, err := s.uc.Quote(s.ctx, s.intent(1_000_000))
	req.ErrorIs(err, domain.ErrRoyaltyExceedsProceeds)
}

func (s *settlementTestSuite) TestZeroRoyaltyReceiverSkipped() {
	req := s.Require()
	s.ledger.SetRoyalty(s.collection, domain.EmptyAddress, 500)

	b, err := s.uc.Quote(s.ctx, s.intent(1_000_000))
	req.NoError(err)
	req.Equal(int64(0), b.Royalty.Int64())
	req.Equal(int64(980000), b.SellerProceeds.Int64())
}

func (s *settlementTestSuite) TestDistributeNative() {
	req := s.Require()
	s.ledger.SetRoyalty(s.collection, s.royaltyRecv, 500)

	_, err := s.uc.Distribute(s.ctx, s.intent(1_000_000))
	req.NoError(err)

	req.Equal(int64(20000), s.nativeBalance(s.feeRecipient))
	req.Equal(int64(50000), s.nativeBalance(s.royaltyRecv))
	req.Equal(int64(930000), s.nativeBalance(s.seller))
	req.Equal(int64(10_000_000-1_000_000), s.nativeBalance(s.buyer))
	req.Equal(int64(0), s.nativeBalance(s.market))
}

func (s *settlementTestSuite) TestDistributeNativeInsufficientFunds() {
	req := s.Require()

	_, err := s.uc.Distribute(s.ctx, s.intent(100_000_000))
	req.ErrorIs(err, domain.ErrInsufficientFunds)
}

func (s *settlementTestSuite) erc20Intent(price int64) *settlement.Intent {
	in := s.intent(price)
	in.Currency = s.payToken
	return in
}

func (s *settlementTestSuite) TestDistributeErc20ReturnConventions() {
	req := s.Require()

	testcases := []struct {
		name string
		mode ledger.ReturnMode
	}{
		{"returns bool", ledger.ReturnBool},
		{"returns nothing", ledger.ReturnNothing},
	}
	for _, tc := range testcases {
		s.ledger.RegisterErc20(s.payToken, tc.mode)
		s.ledger.MintErc20(s.payToken, s.buyer, big.NewInt(1_000_000))
		s.ledger.ApproveErc20(s.payToken, s.buyer, s.market, big.NewInt(1_000_000))

		_, err := s.uc.Distribute(s.ctx, s.erc20Intent(1_000_000))
		req.NoError(err, tc.name)

		b, err := s.ledger.Erc20().BalanceOf(s.ctx, s.payToken, s.seller)
		req.NoError(err, tc.name)
		req.Equal(int64(980000), b.Int64(), tc.name)
	}
}

func (s *settlementTestSuite) TestDistributeErc20FalseReturnFails() {
	req := s.Require()

	// the token signals failure by returning false instead of reverting
	s.ledger.RegisterErc20(s.payToken, ledger.ReturnFalseOnFailure)
	s.ledger.ApproveErc20(s.payToken, s.buyer, s.market, big.NewInt(1_000_000))

	_, err := s.uc.Distribute(s.ctx, s.erc20Intent(1_000_000))
	req.ErrorIs(err, domain.ErrTokenTransferFailed)
}

func (s *settlementTestSuite) TestDistributeErc20MissingAllowance() {
	req := s.Require()

	s.ledger.RegisterErc20(s.payToken, ledger.ReturnBool)
	s.ledger.MintErc20(s.payToken, s.buyer, big.NewInt(1_000_000))

	_, err := s.uc.Distribute(s.ctx, s.erc20Intent(1_000_000))
	req.ErrorIs(err, domain.ErrTokenTransferFailed)
}
