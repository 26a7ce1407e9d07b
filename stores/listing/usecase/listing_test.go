package usecase

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/currency"
	"github.com/vendue/goapi/domain/listing"
	"github.com/vendue/goapi/service/ledger"
	collectionRepository "github.com/vendue/goapi/stores/collection/repository"
	collectionUsecase "github.com/vendue/goapi/stores/collection/usecase"
	currencyRepository "github.com/vendue/goapi/stores/currency/repository"
	currencyUsecase "github.com/vendue/goapi/stores/currency/usecase"
	listingRepository "github.com/vendue/goapi/stores/listing/repository"
	settlementUsecase "github.com/vendue/goapi/stores/settlement/usecase"
)

type feeSource struct{ rate int64 }

func (f *feeSource) FeeRate(c bCtx.Ctx) (int64, error) { return f.rate, nil }

type listingTestSuite struct {
	suite.Suite
	ctx bCtx.Ctx

	admin        domain.Address
	market       domain.Address
	feeRecipient domain.Address
	royaltyRecv  domain.Address
	seller       domain.Address
	buyer        domain.Address
	operator     domain.Address
	nft721       domain.Address
	nft1155      domain.Address
	swap1155     domain.Address
	payToken     domain.Address

	ledger     *ledger.Ledger
	registry   listing.Repo
	whitelist  listing.WhitelistRepo
	currencies currency.UseCase
	fees       *feeSource
	uc         listing.UseCase
}

func TestListing(t *testing.T) {
	suite.Run(t, new(listingTestSuite))
}

func (s *listingTestSuite) SetupSuite() {
	s.ctx = bCtx.Background()
	s.admin = "0x000000000000000000000000000000000000ad01"
	s.market = "0x00000000000000000000000000000000000a11ce"
	s.feeRecipient = "0x000000000000000000000000000000000000fee5"
	s.royaltyRecv = "0x000000000000000000000000000000000000ab01"
	s.seller = "0x0000000000000000000000000000000000005e11"
	s.buyer = "0x000000000000000000000000000000000000b0b1"
	s.operator = "0x0000000000000000000000000000000000000921"
	s.nft721 = "0x0000000000000000000000000000000000000721"
	s.nft1155 = "0x0000000000000000000000000000000000001155"
	s.swap1155 = "0x0000000000000000000000000000000000021155"
	s.payToken = "0x0000000000000000000000000000000000000020"
}

func (s *listingTestSuite) SetupTest() {
	s.ledger = ledger.New(s.market)

	s.ledger.RegisterErc721(s.nft721)
	s.ledger.MintErc721(s.nft721, "1", s.seller)
	s.ledger.SetApprovalForAll721(s.nft721, s.seller, s.market, true)

	s.ledger.RegisterErc1155(s.nft1155)
	s.ledger.MintErc1155(s.nft1155, "7", s.seller, 10)
	s.ledger.SetApprovalForAll1155(s.nft1155, s.seller, s.market, true)

	s.ledger.RegisterErc1155(s.swap1155)

	s.ledger.RegisterErc20(s.payToken, ledger.ReturnBool)
	s.ledger.MintErc20(s.payToken, s.buyer, big.NewInt(1_000_000_000))
	s.ledger.ApproveErc20(s.payToken, s.buyer, s.market, big.NewInt(1_000_000_000))

	s.ledger.MintNative(s.buyer, big.NewInt(1_000_000_000))

	registry := listingRepository.NewRegistry()
	whitelist := listingRepository.NewBuyerWhitelist(100)
	s.registry = registry
	s.whitelist = whitelist

	currencyRepo := currencyRepository.NewAllowlist()
	currencyUC := currencyUsecase.New(&currencyUsecase.CurrencyUseCaseCfg{
		Repo:  currencyRepo,
		Admin: s.admin,
	})
	s.currencies = currencyUC
	s.Require().NoError(currencyUC.Add(s.ctx, s.admin, domain.NativeCurrency))
	s.Require().NoError(currencyUC.Add(s.ctx, s.admin, s.payToken))

	collectionRepo := collectionRepository.NewWhitelist()
	collectionUC := collectionUsecase.New(&collectionUsecase.CollectionUseCaseCfg{
		Repo:  collectionRepo,
		Admin: s.admin,
	})
	s.Require().NoError(collectionUC.Add(s.ctx, s.admin, s.nft721))
	s.Require().NoError(collectionUC.Add(s.ctx, s.admin, s.nft1155))

	settlementUC := settlementUsecase.New(&settlementUsecase.SettlementUseCaseCfg{
		FeeRecipient: s.feeRecipient,
		Native:       s.ledger.Native(),
		Erc20:        s.ledger.Erc20(),
		Royalty:      s.ledger.Royalty(),
		Detector:     s.ledger.Detector(),
	})

	s.fees = &feeSource{rate: 2000} // 2%
	s.uc = New(&ListingUseCaseCfg{
		Registry:       registry,
		BuyerWhitelist: whitelist,
		Collections:    collectionUC,
		Currencies:     currencyUC,
		Settlement:     settlementUC,
		Fees:           s.fees,
		Erc721:         s.ledger.Erc721(),
		Erc1155:        s.ledger.Erc1155(),
		Detector:       s.ledger.Detector(),
		Market:         s.market,
		Snapshots:      []domain.Snapshotter{s.ledger, registry, whitelist},
	})
}

func (s *listingTestSuite) create721(price string, currency domain.Address) *listing.Listing {
	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:       s.seller,
		TokenAddress: s.nft721,
		TokenId:      "1",
		Price:        price,
		Currency:     currency,
	})
	s.Require().NoError(err)
	return l
}

func (s *listingTestSuite) create1155(price string, quantity int64, partial bool) *listing.Listing {
	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:            s.seller,
		TokenAddress:      s.nft1155,
		TokenId:           "7",
		Price:             price,
		Currency:          domain.NativeCurrency,
		Erc1155Quantity:   quantity,
		PartialBuyEnabled: partial,
	})
	s.Require().NoError(err)
	return l
}

// purchaseReq snapshots the stored terms into the expected-state fields the
// way an agreeing buyer would.
func (s *listingTestSuite) purchaseReq(l *listing.Listing, quantity int64, attached string) *listing.PurchaseListingReq {
	return &listing.PurchaseListingReq{
		Caller:                         s.buyer,
		ListingId:                      l.ListingId,
		ExpectedPrice:                  l.Price,
		ExpectedCurrency:               l.Currency,
		ExpectedErc1155Quantity:        l.Erc1155Quantity,
		ExpectedDesiredTokenAddress:    l.DesiredTokenAddress,
		ExpectedDesiredTokenId:         l.DesiredTokenId,
		ExpectedDesiredErc1155Quantity: l.DesiredErc1155Quantity,
		PurchaseQuantity:               quantity,
		AttachedValue:                  attached,
	}
}

func (s *listingTestSuite) nativeBalance(a domain.Address) *big.Int {
	b, err := s.ledger.Native().BalanceOf(s.ctx, a)
	s.Require().NoError(err)
	return b
}

func (s *listingTestSuite) erc20Balance(a domain.Address) *big.Int {
	b, err := s.ledger.Erc20().BalanceOf(s.ctx, s.payToken, a)
	s.Require().NoError(err)
	return b
}

func (s *listingTestSuite) TestPurchase721NativeExactAccounting() {
	req := s.Require()
	s.ledger.SetRoyalty(s.nft721, s.royaltyRecv, 500) // 5%

	l := s.create721("1000000", domain.NativeCurrency)

	p, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.NoError(err)

	req.Equal("1000000", p.Price)
	req.Equal("20000", p.Fee)
	req.Equal("50000", p.Royalty)
	req.Equal(s.royaltyRecv, p.RoyaltyReceiver)
	req.Equal("930000", p.SellerProceeds)
	req.Nil(p.Remaining)

	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.buyer, owner)

	req.Equal(big.NewInt(1_000_000_000-1_000_000), s.nativeBalance(s.buyer))
	req.Equal(big.NewInt(930000), s.nativeBalance(s.seller))
	req.Equal(big.NewInt(20000), s.nativeBalance(s.feeRecipient))
	req.Equal(big.NewInt(50000), s.nativeBalance(s.royaltyRecv))
	// the marketplace never takes custody of funds
	req.Equal(int64(0), s.nativeBalance(s.market).Int64())

	_, err = s.uc.GetListing(s.ctx, l.ListingId)
	req.ErrorIs(err, domain.ErrNotListed)

	// uniqueness index released with the listing
	s.ledger.MintErc721(s.nft721, "1", s.seller)
	s.create721("500", domain.NativeCurrency)
}

func (s *listingTestSuite) TestPurchase721Erc20() {
	req := s.Require()

	l := s.create721("1000000", s.payToken)

	_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "0"))
	req.NoError(err)

	req.Equal(big.NewInt(1_000_000_000-1_000_000), s.erc20Balance(s.buyer))
	req.Equal(big.NewInt(980000), s.erc20Balance(s.seller))
	req.Equal(big.NewInt(20000), s.erc20Balance(s.feeRecipient))
	req.Equal(int64(0), s.erc20Balance(s.market).Int64())
}

func (s *listingTestSuite) TestPurchaseErc20RejectsAttachedValue() {
	req := s.Require()

	l := s.create721("1000000", s.payToken)

	_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.ErrorIs(err, domain.ErrWrongPaymentCurrency)
}

func (s *listingTestSuite) TestPurchaseNativeExactValueOnly() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)

	for _, attached := range []string{"999999", "1000001", "0"} {
		_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, attached))
		req.ErrorIs(err, domain.ErrWrongPaymentCurrency)
	}
}

func (s *listingTestSuite) TestPartialBuy1155() {
	req := s.Require()

	l := s.create1155("1000000", 10, true)

	p, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 3, "300000"))
	req.NoError(err)
	req.Equal("300000", p.Price)
	req.NotNil(p.Remaining)
	req.Equal(int64(7), p.Remaining.Erc1155Quantity)
	req.Equal("700000", p.Remaining.Price)

	bal, err := s.ledger.Erc1155().BalanceOf(s.ctx, s.nft1155, s.buyer, "7")
	req.NoError(err)
	req.Equal(int64(3), bal)

	// the survivor is purchasable under its updated terms
	rest, err := s.uc.GetListing(s.ctx, l.ListingId)
	req.NoError(err)
	p2, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(rest, 7, "700000"))
	req.NoError(err)
	req.Equal("700000", p2.Price)
	req.Nil(p2.Remaining)

	_, err = s.uc.GetListing(s.ctx, l.ListingId)
	req.ErrorIs(err, domain.ErrNotListed)
}

func (s *listingTestSuite) TestFullBuyChargesStoredPriceExactly() {
	req := s.Require()

	// 1000003 is not divisible by 10; a full buy must not lose the
	// remainder to unit-price rounding
	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:          s.seller,
		TokenAddress:    s.nft1155,
		TokenId:         "7",
		Price:           "1000003",
		Currency:        domain.NativeCurrency,
		Erc1155Quantity: 10,
	})
	req.NoError(err)

	p, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 10, "1000003"))
	req.NoError(err)
	req.Equal("1000003", p.Price)
}

func (s *listingTestSuite) TestPartialBuyDisabled() {
	req := s.Require()

	l := s.create1155("1000000", 10, false)

	_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 3, "300000"))
	req.ErrorIs(err, domain.ErrPartialBuyNotPossible)
}

func (s *listingTestSuite) TestPurchaseQuantityBounds() {
	req := s.Require()

	l := s.create1155("1000000", 10, true)
	for _, q := range []int64{0, 11, -1} {
		_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, q, "0"))
		req.ErrorIs(err, domain.ErrInvalidPurchaseQuantity)
	}

	l2 := s.create721("1000000", domain.NativeCurrency)
	_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l2, 1, "1000000"))
	req.ErrorIs(err, domain.ErrInvalidPurchaseQuantity)
}

func (s *listingTestSuite) TestFrontRunProtection() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)
	stale := s.purchaseReq(l, 0, "1000000")

	// the seller doubles the price before the buyer's call lands
	_, err := s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:      s.seller,
		ListingId:   l.ListingId,
		NewPrice:    "2000000",
		NewCurrency: domain.NativeCurrency,
	})
	req.NoError(err)

	_, err = s.uc.PurchaseListing(s.ctx, stale)
	req.ErrorIs(err, domain.ErrListingTermsChanged)

	// funds and asset untouched
	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.seller, owner)
	req.Equal(big.NewInt(1_000_000_000), s.nativeBalance(s.buyer))
}

func (s *listingTestSuite) TestStaleCurrencyStillPurchasable() {
	req := s.Require()

	l := s.create721("1000000", s.payToken)

	// de-allowlisting gates new listings, not existing ones
	req.NoError(s.currencies.Remove(s.ctx, s.admin, s.payToken))

	_, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:       s.seller,
		TokenAddress: s.nft1155,
		TokenId:      "7",
		Price:        "10",
		Currency:     s.payToken,
		Erc1155Quantity: 1,
	})
	req.ErrorIs(err, domain.ErrCurrencyNotAllowed)

	_, err = s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "0"))
	req.NoError(err)
}

func (s *listingTestSuite) TestUnique721() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)

	_, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:       s.seller,
		TokenAddress: s.nft721,
		TokenId:      "1",
		Price:        "2000000",
		Currency:     domain.NativeCurrency,
	})
	req.ErrorIs(err, domain.ErrAlreadyListed)

	req.NoError(s.uc.CancelListing(s.ctx, s.seller, l.ListingId))
	s.create721("2000000", domain.NativeCurrency)
}

func (s *listingTestSuite) TestMultiple1155ListingsPerItem() {
	req := s.Require()

	other := domain.Address("0x0000000000000000000000000000000000000d02")
	s.ledger.MintErc1155(s.nft1155, "7", other, 4)
	s.ledger.SetApprovalForAll1155(s.nft1155, other, s.market, true)

	s.create1155("1000000", 10, false)
	_, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:          other,
		TokenAddress:    s.nft1155,
		TokenId:         "7",
		Price:           "400000",
		Currency:        domain.NativeCurrency,
		Erc1155Quantity: 4,
	})
	req.NoError(err)

	ls, err := s.uc.GetListingsByItem(s.ctx, s.nft1155, "7")
	req.NoError(err)
	req.Len(ls, 2)
}

func (s *listingTestSuite) TestReentrantPaymentReverted() {
	req := s.Require()

	l := s.create721("1000000", s.payToken)

	var reentrantErr error
	s.ledger.SetTransferHook(s.payToken, func(c bCtx.Ctx, from, to domain.Address, amount *big.Int) error {
		// a malicious fee recipient calling back into the marketplace
		reentrantErr = s.uc.CleanListing(c, l.ListingId)
		return reentrantErr
	})

	_, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "0"))
	req.ErrorIs(err, domain.ErrTokenTransferFailed)
	req.ErrorIs(reentrantErr, domain.ErrReentrantCall)

	// the whole call rolled back
	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.seller, owner)
	req.Equal(big.NewInt(1_000_000_000), s.erc20Balance(s.buyer))
	_, err = s.uc.GetListing(s.ctx, l.ListingId)
	req.NoError(err)
}

func (s *listingTestSuite) TestPaymentFailureRevertsAssetTransfer() {
	req := s.Require()

	poor := domain.Address("0x0000000000000000000000000000000000000d0e")
	s.ledger.ApproveErc20(s.payToken, poor, s.market, big.NewInt(1_000_000))

	l := s.create721("1000000", s.payToken)
	preq := s.purchaseReq(l, 0, "0")
	preq.Caller = poor

	_, err := s.uc.PurchaseListing(s.ctx, preq)
	req.ErrorIs(err, domain.ErrTokenTransferFailed)

	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.seller, owner)
	_, err = s.uc.GetListing(s.ctx, l.ListingId)
	req.NoError(err)
}

func (s *listingTestSuite) TestSwapListing() {
	req := s.Require()

	s.ledger.MintErc1155(s.swap1155, "3", s.buyer, 5)
	s.ledger.SetApprovalForAll1155(s.swap1155, s.buyer, s.market, true)

	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:                 s.seller,
		TokenAddress:           s.nft721,
		TokenId:                "1",
		Price:                  "1000000",
		Currency:               domain.NativeCurrency,
		DesiredTokenAddress:    s.swap1155,
		DesiredTokenId:         "3",
		DesiredErc1155Quantity: 5,
	})
	req.NoError(err)

	_, err = s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.NoError(err)

	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.buyer, owner)

	bal, err := s.ledger.Erc1155().BalanceOf(s.ctx, s.swap1155, s.seller, "3")
	req.NoError(err)
	req.Equal(int64(5), bal)

	req.Equal(big.NewInt(980000), s.nativeBalance(s.seller))
}

func (s *listingTestSuite) TestSwapAssetMissing() {
	req := s.Require()

	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:                 s.seller,
		TokenAddress:           s.nft721,
		TokenId:                "1",
		Price:                  "1000000",
		Currency:               domain.NativeCurrency,
		DesiredTokenAddress:    s.swap1155,
		DesiredTokenId:         "3",
		DesiredErc1155Quantity: 5,
	})
	req.NoError(err)

	// buyer holds none of the desired asset
	_, err = s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.ErrorIs(err, domain.ErrWrongHolderParameter)

	owner, err := s.ledger.Erc721().OwnerOf(s.ctx, s.nft721, "1")
	req.NoError(err)
	req.Equal(s.seller, owner)
}

func (s *listingTestSuite) TestBuyerWhitelist() {
	req := s.Require()

	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:                s.seller,
		TokenAddress:          s.nft721,
		TokenId:               "1",
		Price:                 "1000000",
		Currency:              domain.NativeCurrency,
		BuyerWhitelistEnabled: true,
		AllowedBuyers:         []domain.Address{s.operator},
	})
	req.NoError(err)

	_, err = s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.ErrorIs(err, domain.ErrBuyerNotWhitelisted)

	s.ledger.MintNative(s.operator, big.NewInt(1_000_000))
	preq := s.purchaseReq(l, 0, "1000000")
	preq.Caller = s.operator
	_, err = s.uc.PurchaseListing(s.ctx, preq)
	req.NoError(err)
}

func (s *listingTestSuite) TestWhitelistBuyersWithoutFlag() {
	req := s.Require()

	_, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:        s.seller,
		TokenAddress:  s.nft721,
		TokenId:       "1",
		Price:         "1000000",
		Currency:      domain.NativeCurrency,
		AllowedBuyers: []domain.Address{s.operator},
	})
	req.ErrorIs(err, domain.ErrBuyerWhitelistDisabled)
}

func (s *listingTestSuite) TestCreateValidation() {
	req := s.Require()

	testcases := []struct {
		name string
		req  *listing.CreateListingReq
		err  error
	}{
		{
			name: "free listing",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft721, TokenId: "1",
				Price: "0", Currency: domain.NativeCurrency,
			},
			err: domain.ErrFreeListingNotSupported,
		},
		{
			name: "swap params without target",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft721, TokenId: "1",
				Price: "100", Currency: domain.NativeCurrency,
				DesiredErc1155Quantity: 3,
			},
			err: domain.ErrNoSwapParametersSet,
		},
		{
			name: "indivisible partial price",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft1155, TokenId: "7",
				Price: "1000003", Currency: domain.NativeCurrency,
				Erc1155Quantity: 10, PartialBuyEnabled: true,
			},
			err: domain.ErrInvalidUnitPrice,
		},
		{
			name: "partial on erc721",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft721, TokenId: "1",
				Price: "100", Currency: domain.NativeCurrency,
				PartialBuyEnabled: true,
			},
			err: domain.ErrWrongQuantityParameter,
		},
		{
			name: "collection not whitelisted",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.swap1155, TokenId: "3",
				Price: "100", Currency: domain.NativeCurrency,
				Erc1155Quantity: 1,
			},
			err: domain.ErrCollectionNotWhitelisted,
		},
		{
			name: "currency not allowed",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft721, TokenId: "1",
				Price: "100", Currency: "0x00000000000000000000000000000000000000ff",
			},
			err: domain.ErrCurrencyNotAllowed,
		},
		{
			name: "caller neither owner nor approved",
			req: &listing.CreateListingReq{
				Caller: s.buyer, TokenAddress: s.nft721, TokenId: "1",
				Price: "100", Currency: domain.NativeCurrency,
			},
			err: domain.ErrNotOwnerNorApproved,
		},
		{
			name: "negative amount",
			req: &listing.CreateListingReq{
				Caller: s.seller, TokenAddress: s.nft721, TokenId: "1",
				Price: "-5", Currency: domain.NativeCurrency,
			},
			err: domain.ErrInvalidNumberFormat,
		},
	}
	for _, tc := range testcases {
		_, err := s.uc.CreateListing(s.ctx, tc.req)
		req.ErrorIs(err, tc.err, tc.name)
	}
}

func (s *listingTestSuite) TestOperatorCreates721Listing() {
	req := s.Require()

	s.ledger.SetApprovalForAll721(s.nft721, s.seller, s.operator, true)

	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:       s.operator,
		TokenAddress: s.nft721,
		TokenId:      "1",
		Price:        "1000000",
		Currency:     domain.NativeCurrency,
	})
	req.NoError(err)
	// the listing belongs to the holder, not the operator
	req.Equal(s.seller, l.Seller)
}

func (s *listingTestSuite) TestOperatorCreates1155ListingWithHint() {
	req := s.Require()

	s.ledger.SetApprovalForAll1155(s.nft1155, s.seller, s.operator, true)

	l, err := s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:          s.operator,
		TokenAddress:    s.nft1155,
		TokenId:         "7",
		HolderHint:      s.seller,
		Price:           "1000000",
		Currency:        domain.NativeCurrency,
		Erc1155Quantity: 10,
	})
	req.NoError(err)
	req.Equal(s.seller, l.Seller)

	// without operator approval the hint is rejected
	_, err = s.uc.CreateListing(s.ctx, &listing.CreateListingReq{
		Caller:          s.buyer,
		TokenAddress:    s.nft1155,
		TokenId:         "7",
		HolderHint:      s.seller,
		Price:           "1000000",
		Currency:        domain.NativeCurrency,
		Erc1155Quantity: 10,
	})
	req.ErrorIs(err, domain.ErrNotOwnerNorApproved)
}

func (s *listingTestSuite) TestUpdateListing() {
	req := s.Require()

	l := s.create1155("1000000", 10, false)

	got, err := s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:               s.seller,
		ListingId:            l.ListingId,
		NewPrice:             "2000000",
		NewCurrency:          s.payToken,
		NewErc1155Quantity:   5,
		NewPartialBuyEnabled: true,
	})
	req.NoError(err)
	req.Equal("2000000", got.Price)
	req.Equal(s.payToken, got.Currency)
	req.Equal(int64(5), got.Erc1155Quantity)
	req.True(got.PartialBuyEnabled)

	// an update may not change the token standard
	_, err = s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:    s.seller,
		ListingId: l.ListingId,
		NewPrice:  "100",
		NewCurrency: domain.NativeCurrency,
	})
	req.ErrorIs(err, domain.ErrWrongQuantityParameter)

	// quantity above the seller's balance
	_, err = s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:             s.seller,
		ListingId:          l.ListingId,
		NewPrice:           "100",
		NewCurrency:        domain.NativeCurrency,
		NewErc1155Quantity: 11,
	})
	req.ErrorIs(err, domain.ErrWrongQuantityParameter)

	// strangers may not update
	_, err = s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:             s.buyer,
		ListingId:          l.ListingId,
		NewPrice:           "100",
		NewCurrency:        domain.NativeCurrency,
		NewErc1155Quantity: 5,
	})
	req.ErrorIs(err, domain.ErrNotSeller)
}

func (s *listingTestSuite) TestFeeRateSnapshot() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)
	req.Equal(int64(2000), l.FeeRate)

	// a later fee change must not affect the existing listing
	s.fees.rate = 5000

	p, err := s.uc.PurchaseListing(s.ctx, s.purchaseReq(l, 0, "1000000"))
	req.NoError(err)
	req.Equal("20000", p.Fee)
}

func (s *listingTestSuite) TestUpdateTakesCurrentFeeRate() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)
	s.fees.rate = 5000

	got, err := s.uc.UpdateListing(s.ctx, &listing.UpdateListingReq{
		Caller:      s.seller,
		ListingId:   l.ListingId,
		NewPrice:    "1000000",
		NewCurrency: domain.NativeCurrency,
	})
	req.NoError(err)
	req.Equal(int64(5000), got.FeeRate)
}

func (s *listingTestSuite) TestCancelListing() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)

	req.ErrorIs(s.uc.CancelListing(s.ctx, s.buyer, l.ListingId), domain.ErrNotSeller)
	req.NoError(s.uc.CancelListing(s.ctx, s.seller, l.ListingId))
	req.ErrorIs(s.uc.CancelListing(s.ctx, s.seller, l.ListingId), domain.ErrNotListed)
}

func (s *listingTestSuite) TestSameBuyerAsSeller() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)
	preq := s.purchaseReq(l, 0, "1000000")
	preq.Caller = s.seller

	_, err := s.uc.PurchaseListing(s.ctx, preq)
	req.ErrorIs(err, domain.ErrSameBuyerAsSeller)
}

func (s *listingTestSuite) TestCleanListing() {
	req := s.Require()

	l := s.create721("1000000", domain.NativeCurrency)

	req.ErrorIs(s.uc.CleanListing(s.ctx, l.ListingId), domain.ErrListingStillValid)

	// revoking the marketplace approval invalidates the listing
	s.ledger.SetApprovalForAll721(s.nft721, s.seller, s.market, false)
	req.NoError(s.uc.CleanListing(s.ctx, l.ListingId))

	_, err := s.uc.GetListing(s.ctx, l.ListingId)
	req.ErrorIs(err, domain.ErrNotListed)
}

func (s *listingTestSuite) TestClean1155AfterBalanceDrop() {
	req := s.Require()

	l := s.create1155("1000000", 10, false)
	req.ErrorIs(s.uc.CleanListing(s.ctx, l.ListingId), domain.ErrListingStillValid)

	// the seller moved most units away outside the marketplace
	other := domain.Address("0x0000000000000000000000000000000000000d03")
	req.NoError(s.ledger.Erc1155().SafeTransferFrom(s.ctx, s.nft1155, s.seller, other, "7", 6))

	req.NoError(s.uc.CleanListing(s.ctx, l.ListingId))
}

func (s *listingTestSuite) TestPurchaseUnknownListing() {
	req := s.Require()

	_, err := s.uc.PurchaseListing(s.ctx, &listing.PurchaseListingReq{
		Caller:        s.buyer,
		ListingId:     42,
		ExpectedPrice: "1",
	})
	req.ErrorIs(err, domain.ErrNotListed)
}
