package usecase

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/collection"
	"github.com/vendue/goapi/domain/currency"
	"github.com/vendue/goapi/domain/listing"
	"github.com/vendue/goapi/domain/settlement"
	"github.com/vendue/goapi/domain/token"
)

type ListingUseCaseCfg struct {
	Registry       listing.Repo
	BuyerWhitelist listing.WhitelistRepo
	Collections    collection.UseCase
	Currencies     currency.UseCase
	Settlement     settlement.UseCase
	Fees           settlement.FeeSource
	Erc721         token.Erc721
	Erc1155        token.Erc1155
	Detector       token.Detector

	// Market is the marketplace's operator identity; transfer approvals
	// are checked against it during purchases and clean sweeps.
	Market domain.Address

	// Events is optional; a nil repo means events are only logged.
	Events listing.EventRepo

	// Snapshots are the state holders reverted when a mutating call fails
	// partway: the registry, the buyer whitelist and the asset ledger.
	Snapshots []domain.Snapshotter

	// DisplayDecimals renders event display prices; defaults to 18.
	DisplayDecimals int32
}

type impl struct {
	registry       listing.Repo
	buyerWhitelist listing.WhitelistRepo
	collections    collection.UseCase
	currencies     currency.UseCase
	settlement     settlement.UseCase
	fees           settlement.FeeSource
	erc721         token.Erc721
	erc1155        token.Erc1155
	detector       token.Detector
	market         domain.Address
	events         listing.EventRepo
	snapshots      []domain.Snapshotter
	displayDec     int32

	guard guard
}

func New(cfg *ListingUseCaseCfg) listing.UseCase {
	dec := cfg.DisplayDecimals
	if dec == 0 {
		dec = 18
	}
	return &impl{
		registry:       cfg.Registry,
		buyerWhitelist: cfg.BuyerWhitelist,
		collections:    cfg.Collections,
		currencies:     cfg.Currencies,
		settlement:     cfg.Settlement,
		fees:           cfg.Fees,
		erc721:         cfg.Erc721,
		erc1155:        cfg.Erc1155,
		detector:       cfg.Detector,
		market:         cfg.Market.ToLower(),
		events:         cfg.Events,
		snapshots:      cfg.Snapshots,
		displayDec:     dec,
	}
}

// begin/revert bracket every mutating call: on failure all registered
// states roll back, so a call either applies completely or not at all.
func (im *impl) begin() []int {
	revs := make([]int, len(im.snapshots))
	for i, s := range im.snapshots {
		revs[i] = s.Snapshot()
	}
	return revs
}

func (im *impl) revert(revs []int) {
	for i := len(im.snapshots) - 1; i >= 0; i-- {
		im.snapshots[i].RevertToSnapshot(revs[i])
	}
}

func (im *impl) CreateListing(c ctx.Ctx, req *listing.CreateListingReq) (res *listing.Listing, err error) {
	release, err := im.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	revs := im.begin()
	defer func() {
		if err != nil {
			im.revert(revs)
		}
	}()

	if ok, werr := im.collections.IsWhitelisted(c, req.TokenAddress); werr != nil {
		return nil, werr
	} else if !ok {
		return nil, domain.ErrCollectionNotWhitelisted
	}
	if ok, aerr := im.currencies.IsAllowed(c, req.Currency); aerr != nil {
		return nil, aerr
	} else if !ok {
		return nil, domain.ErrCurrencyNotAllowed
	}

	price, err := domain.ParseAmount(req.Price)
	if err != nil {
		return nil, err
	}
	if err := im.validateSwapSpec(c, req.DesiredTokenAddress, req.DesiredTokenId, req.DesiredErc1155Quantity, price); err != nil {
		return nil, err
	}
	if err := validateQuantitySpec(price, req.Erc1155Quantity, req.PartialBuyEnabled); err != nil {
		return nil, err
	}

	seller, err := im.resolveSeller(c, req.TokenAddress, req.TokenId, req.Erc1155Quantity, req.Caller, req.HolderHint)
	if err != nil {
		return nil, err
	}

	if req.Erc1155Quantity == 0 {
		if _, exists, uerr := im.registry.GetUnique721(c, req.TokenAddress, req.TokenId); uerr != nil {
			return nil, uerr
		} else if exists {
			return nil, domain.ErrAlreadyListed
		}
	}

	if !req.BuyerWhitelistEnabled && len(req.AllowedBuyers) > 0 {
		return nil, domain.ErrBuyerWhitelistDisabled
	}

	feeRate, err := im.fees.FeeRate(c)
	if err != nil {
		return nil, err
	}
	id, err := im.registry.NextId(c)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l := &listing.Listing{
		ListingId:              id,
		TokenAddress:           req.TokenAddress.ToLower(),
		TokenId:                req.TokenId,
		Erc1155Quantity:        req.Erc1155Quantity,
		Price:                  price.String(),
		Seller:                 seller,
		Currency:               req.Currency.ToLower(),
		FeeRate:                feeRate,
		BuyerWhitelistEnabled:  req.BuyerWhitelistEnabled,
		PartialBuyEnabled:      req.PartialBuyEnabled,
		DesiredTokenAddress:    req.DesiredTokenAddress.ToLower(),
		DesiredTokenId:         req.DesiredTokenId,
		DesiredErc1155Quantity: req.DesiredErc1155Quantity,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if l.DesiredTokenAddress.IsEmpty() {
		l.DesiredTokenAddress = ""
	}
	if err := im.registry.Put(c, l); err != nil {
		return nil, err
	}
	if l.Kind() == domain.TokenType721 {
		if err := im.registry.SetUnique721(c, l.TokenAddress, l.TokenId, id); err != nil {
			return nil, err
		}
	}
	if req.BuyerWhitelistEnabled && len(req.AllowedBuyers) > 0 {
		if err := im.buyerWhitelist.AddMany(c, id, req.AllowedBuyers); err != nil {
			return nil, err
		}
	}

	im.emit(c, listing.EventKindCreated, l, nil, price)
	return l, nil
}

func (im *impl) PurchaseListing(c ctx.Ctx, req *listing.PurchaseListingReq) (res *listing.Purchase, err error) {
	release, err := im.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	revs := im.begin()
	defer func() {
		if err != nil {
			im.revert(revs)
		}
	}()

	l, err := im.registry.FindOne(c, req.ListingId)
	if err != nil {
		return nil, err
	}
	if l == nil || l.Seller.IsEmpty() {
		return nil, domain.ErrNotListed
	}

	if err := matchExpectedTerms(l, req); err != nil {
		return nil, err
	}

	buyer := req.Caller.ToLower()
	if buyer.Equals(l.Seller) {
		return nil, domain.ErrSameBuyerAsSeller
	}

	price, err := l.PriceBig()
	if err != nil {
		return nil, err
	}

	charged, full, err := resolveQuantity(l, price, req.PurchaseQuantity)
	if err != nil {
		return nil, err
	}

	if l.BuyerWhitelistEnabled {
		if ok, werr := im.buyerWhitelist.IsWhitelisted(c, l.ListingId, buyer); werr != nil {
			return nil, werr
		} else if !ok {
			return nil, domain.ErrBuyerNotWhitelisted
		}
	}

	attached, err := domain.ParseAmount(req.AttachedValue)
	if err != nil {
		return nil, err
	}
	if l.Currency.IsEmpty() {
		// native: the exact charged price must be attached, no tolerance
		if attached.Cmp(charged) != 0 {
			return nil, domain.ErrWrongPaymentCurrency
		}
	} else if attached.Sign() != 0 {
		return nil, domain.ErrWrongPaymentCurrency
	}

	// The listed asset moves first, then the swap asset, then payment.
	// All three settle inside one reverted-on-failure bracket, so the
	// ordering affects traces, not outcomes.
	if l.Kind() == domain.TokenType721 {
		if err := im.erc721.SafeTransferFrom(c, l.TokenAddress, l.Seller, buyer, l.TokenId); err != nil {
			return nil, err
		}
	} else {
		if err := im.erc1155.SafeTransferFrom(c, l.TokenAddress, l.Seller, buyer, l.TokenId, req.PurchaseQuantity); err != nil {
			return nil, err
		}
	}

	if l.IsSwap() {
		if err := im.settleSwapAsset(c, l, buyer, req.DesiredAssetHolderHint); err != nil {
			return nil, err
		}
	}

	breakdown := &settlement.Breakdown{
		Price:          big.NewInt(0),
		Fee:            big.NewInt(0),
		Royalty:        big.NewInt(0),
		SellerProceeds: big.NewInt(0),
	}
	if charged.Sign() > 0 {
		breakdown, err = im.settlement.Distribute(c, &settlement.Intent{
			Buyer:      buyer,
			Seller:     l.Seller,
			Collection: l.TokenAddress,
			TokenId:    l.TokenId,
			Currency:   l.Currency,
			Price:      charged,
			FeeRate:    l.FeeRate,
		})
		if err != nil {
			return nil, err
		}
	}

	purchase := &listing.Purchase{
		ListingId:       l.ListingId,
		Buyer:           buyer,
		Seller:          l.Seller,
		TokenAddress:    l.TokenAddress,
		TokenId:         l.TokenId,
		Quantity:        req.PurchaseQuantity,
		Currency:        l.Currency,
		Price:           charged.String(),
		Fee:             breakdown.Fee.String(),
		Royalty:         breakdown.Royalty.String(),
		RoyaltyReceiver: breakdown.RoyaltyReceiver,
		SellerProceeds:  breakdown.SellerProceeds.String(),
	}

	if full {
		if err := im.dropListing(c, l); err != nil {
			return nil, err
		}
	} else {
		l.Erc1155Quantity -= req.PurchaseQuantity
		l.Price = new(big.Int).Sub(price, charged).String()
		l.UpdatedAt = time.Now()
		if err := im.registry.Put(c, l); err != nil {
			return nil, err
		}
		remaining := *l
		purchase.Remaining = &remaining
	}

	im.emit(c, listing.EventKindPurchased, l, purchase, charged)
	return purchase, nil
}

func (im *impl) UpdateListing(c ctx.Ctx, req *listing.UpdateListingReq) (res *listing.Listing, err error) {
	release, err := im.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	revs := im.begin()
	defer func() {
		if err != nil {
			im.revert(revs)
		}
	}()

	l, err := im.registry.FindOne(c, req.ListingId)
	if err != nil {
		return nil, err
	}
	if l == nil || l.Seller.IsEmpty() {
		return nil, domain.ErrNotListed
	}

	// approval could have been revoked since creation, so re-verify
	if err := im.requireSellerAuthority(c, l, req.Caller); err != nil {
		return nil, err
	}

	// an update may not retarget the asset, and that includes its standard
	if (req.NewErc1155Quantity == 0) != (l.Erc1155Quantity == 0) {
		return nil, domain.ErrWrongQuantityParameter
	}

	if ok, aerr := im.currencies.IsAllowed(c, req.NewCurrency); aerr != nil {
		return nil, aerr
	} else if !ok {
		return nil, domain.ErrCurrencyNotAllowed
	}

	price, err := domain.ParseAmount(req.NewPrice)
	if err != nil {
		return nil, err
	}
	if err := im.validateSwapSpec(c, req.NewDesiredTokenAddress, req.NewDesiredTokenId, req.NewDesiredErc1155Quantity, price); err != nil {
		return nil, err
	}
	if err := validateQuantitySpec(price, req.NewErc1155Quantity, req.NewPartialBuyEnabled); err != nil {
		return nil, err
	}
	if req.NewErc1155Quantity > 0 {
		bal, berr := im.erc1155.BalanceOf(c, l.TokenAddress, l.Seller, l.TokenId)
		if berr != nil {
			return nil, berr
		}
		if bal < req.NewErc1155Quantity {
			return nil, domain.ErrWrongQuantityParameter
		}
	}

	if !req.NewBuyerWhitelistEnabled && len(req.NewAllowedBuyers) > 0 {
		return nil, domain.ErrBuyerWhitelistDisabled
	}

	// sellers who update take on the current fee, not the original
	feeRate, err := im.fees.FeeRate(c)
	if err != nil {
		return nil, err
	}

	if l.BuyerWhitelistEnabled && !req.NewBuyerWhitelistEnabled {
		if err := im.buyerWhitelist.Clear(c, l.ListingId); err != nil {
			return nil, err
		}
	}
	if req.NewBuyerWhitelistEnabled && len(req.NewAllowedBuyers) > 0 {
		if err := im.buyerWhitelist.AddMany(c, l.ListingId, req.NewAllowedBuyers); err != nil {
			return nil, err
		}
	}

	l.Price = price.String()
	l.Currency = req.NewCurrency.ToLower()
	l.FeeRate = feeRate
	l.Erc1155Quantity = req.NewErc1155Quantity
	l.BuyerWhitelistEnabled = req.NewBuyerWhitelistEnabled
	l.PartialBuyEnabled = req.NewPartialBuyEnabled
	l.DesiredTokenAddress = req.NewDesiredTokenAddress.ToLower()
	if l.DesiredTokenAddress.IsEmpty() {
		l.DesiredTokenAddress = ""
	}
	l.DesiredTokenId = req.NewDesiredTokenId
	l.DesiredErc1155Quantity = req.NewDesiredErc1155Quantity
	l.UpdatedAt = time.Now()

	if err := im.registry.Put(c, l); err != nil {
		return nil, err
	}

	im.emit(c, listing.EventKindUpdated, l, nil, price)
	return l, nil
}

func (im *impl) CancelListing(c ctx.Ctx, caller domain.Address, id domain.ListingId) (err error) {
	release, err := im.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	revs := im.begin()
	defer func() {
		if err != nil {
			im.revert(revs)
		}
	}()

	l, err := im.registry.FindOne(c, id)
	if err != nil {
		return err
	}
	if l == nil || l.Seller.IsEmpty() {
		return domain.ErrNotListed
	}
	if err := im.requireSellerAuthority(c, l, caller); err != nil {
		return err
	}
	if err := im.dropListing(c, l); err != nil {
		return err
	}

	im.emit(c, listing.EventKindCancelled, l, nil, nil)
	return nil
}

func (im *impl) CleanListing(c ctx.Ctx, id domain.ListingId) (err error) {
	release, err := im.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	revs := im.begin()
	defer func() {
		if err != nil {
			im.revert(revs)
		}
	}()

	l, err := im.registry.FindOne(c, id)
	if err != nil {
		return err
	}
	if l == nil || l.Seller.IsEmpty() {
		return domain.ErrNotListed
	}

	valid, err := im.stillValid(c, l)
	if err != nil {
		return err
	}
	if valid {
		return domain.ErrListingStillValid
	}
	if err := im.dropListing(c, l); err != nil {
		return err
	}

	im.emit(c, listing.EventKindCleaned, l, nil, nil)
	return nil
}

func (im *impl) GetListing(c ctx.Ctx, id domain.ListingId) (*listing.Listing, error) {
	l, err := im.registry.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotListed
	}
	return l, nil
}

func (im *impl) GetListingsByItem(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) ([]*listing.Listing, error) {
	return im.registry.FindByItem(c, collection, tokenId)
}

func (im *impl) GetListings(c ctx.Ctx) ([]*listing.Listing, error) {
	return im.registry.FindAll(c)
}

// --- validation helpers ---

// validateSwapSpec enforces the swap-target consistency rules: without a
// target the other desired fields must be unset and the price nonzero (no
// free listings); with a target the desired asset must itself be a known
// NFT standard and its quantity must agree with that standard.
func (im *impl) validateSwapSpec(c ctx.Ctx, desiredAddr domain.Address, desiredId domain.TokenId, desiredQty int64, price *big.Int) error {
	if desiredAddr.IsEmpty() {
		if desiredId != "" || desiredQty != 0 {
			return domain.ErrNoSwapParametersSet
		}
		if price.Sign() == 0 {
			return domain.ErrFreeListingNotSupported
		}
		return nil
	}
	is721, err := im.detector.SupportsErc721(c, desiredAddr)
	if err != nil {
		return err
	}
	is1155, err := im.detector.SupportsErc1155(c, desiredAddr)
	if err != nil {
		return err
	}
	switch {
	case is721:
		if desiredQty != 0 {
			return domain.ErrWrongQuantityParameter
		}
	case is1155:
		if desiredQty <= 0 {
			return domain.ErrWrongQuantityParameter
		}
	default:
		return domain.ErrUnsupportedTokenStandard
	}
	return nil
}

func validateQuantitySpec(price *big.Int, quantity int64, partialBuy bool) error {
	if quantity < 0 {
		return domain.ErrWrongQuantityParameter
	}
	if quantity == 0 {
		if partialBuy {
			return domain.ErrWrongQuantityParameter
		}
		return nil
	}
	if partialBuy {
		rem := new(big.Int).Mod(price, big.NewInt(quantity))
		if rem.Sign() != 0 {
			return domain.ErrInvalidUnitPrice
		}
	}
	return nil
}

// resolveSeller verifies the caller's listing authority and returns the
// actual holder the listing will be attributed to.
func (im *impl) resolveSeller(c ctx.Ctx, tokenAddress domain.Address, tokenId domain.TokenId, quantity int64, caller, holderHint domain.Address) (domain.Address, error) {
	caller = caller.ToLower()
	if quantity == 0 {
		if ok, err := im.detector.SupportsErc721(c, tokenAddress); err != nil {
			return "", err
		} else if !ok {
			return "", domain.ErrUnsupportedTokenStandard
		}
		owner, err := im.erc721.OwnerOf(c, tokenAddress, tokenId)
		if err != nil {
			return "", err
		}
		if caller.Equals(owner) {
			return owner, nil
		}
		if approved, err := im.erc721.GetApproved(c, tokenAddress, tokenId); err != nil {
			return "", err
		} else if approved.Equals(caller) {
			return owner, nil
		}
		if ok, err := im.erc721.IsApprovedForAll(c, tokenAddress, owner, caller); err != nil {
			return "", err
		} else if ok {
			return owner, nil
		}
		return "", domain.ErrNotOwnerNorApproved
	}

	if ok, err := im.detector.SupportsErc1155(c, tokenAddress); err != nil {
		return "", err
	} else if !ok {
		return "", domain.ErrUnsupportedTokenStandard
	}
	// the holder of an erc1155 balance is not discoverable from the call,
	// so an operator must name the holder explicitly
	holder := caller
	if !holderHint.IsEmpty() && !holderHint.Equals(caller) {
		holder = holderHint.ToLower()
		if ok, err := im.erc1155.IsApprovedForAll(c, tokenAddress, holder, caller); err != nil {
			return "", err
		} else if !ok {
			return "", domain.ErrNotOwnerNorApproved
		}
	}
	bal, err := im.erc1155.BalanceOf(c, tokenAddress, holder, tokenId)
	if err != nil {
		return "", err
	}
	if bal < quantity {
		return "", domain.ErrWrongHolderParameter
	}
	return holder, nil
}

func (im *impl) requireSellerAuthority(c ctx.Ctx, l *listing.Listing, caller domain.Address) error {
	caller = caller.ToLower()
	if caller.Equals(l.Seller) {
		return nil
	}
	if l.Kind() == domain.TokenType721 {
		if approved, err := im.erc721.GetApproved(c, l.TokenAddress, l.TokenId); err != nil {
			return err
		} else if approved.Equals(caller) {
			return nil
		}
		if ok, err := im.erc721.IsApprovedForAll(c, l.TokenAddress, l.Seller, caller); err != nil {
			return err
		} else if ok {
			return nil
		}
		return domain.ErrNotSeller
	}
	if ok, err := im.erc1155.IsApprovedForAll(c, l.TokenAddress, l.Seller, caller); err != nil {
		return err
	} else if !ok {
		return domain.ErrNotSeller
	}
	return nil
}

// matchExpectedTerms is the front-run guard: the stored listing must match
// the terms the buyer observed when they submitted the call.
func matchExpectedTerms(l *listing.Listing, req *listing.PurchaseListingReq) error {
	expPrice, err := domain.ParseAmount(req.ExpectedPrice)
	if err != nil {
		return err
	}
	price, err := l.PriceBig()
	if err != nil {
		return err
	}
	if expPrice.Cmp(price) != 0 ||
		!req.ExpectedCurrency.ToLower().Equals(l.Currency) ||
		req.ExpectedErc1155Quantity != l.Erc1155Quantity ||
		!normalizeEmpty(req.ExpectedDesiredTokenAddress).Equals(normalizeEmpty(l.DesiredTokenAddress)) ||
		req.ExpectedDesiredTokenId != l.DesiredTokenId ||
		req.ExpectedDesiredErc1155Quantity != l.DesiredErc1155Quantity {
		return domain.ErrListingTermsChanged
	}
	return nil
}

func normalizeEmpty(a domain.Address) domain.Address {
	if a.IsEmpty() {
		return domain.EmptyAddress
	}
	return a
}

// resolveQuantity validates the requested purchase quantity and returns the
// charged price and whether the purchase consumes the whole listing.
//
// The pro-rata price divides first and multiplies second; the rounding
// direction is part of the observable contract.
func resolveQuantity(l *listing.Listing, price *big.Int, purchaseQuantity int64) (*big.Int, bool, error) {
	if l.Kind() == domain.TokenType721 {
		if purchaseQuantity != 0 {
			return nil, false, domain.ErrInvalidPurchaseQuantity
		}
		return new(big.Int).Set(price), true, nil
	}
	if purchaseQuantity < 1 || purchaseQuantity > l.Erc1155Quantity {
		return nil, false, domain.ErrInvalidPurchaseQuantity
	}
	if purchaseQuantity == l.Erc1155Quantity {
		return new(big.Int).Set(price), true, nil
	}
	if !l.PartialBuyEnabled {
		return nil, false, domain.ErrPartialBuyNotPossible
	}
	unit := new(big.Int).Div(price, big.NewInt(l.Erc1155Quantity))
	charged := new(big.Int).Mul(unit, big.NewInt(purchaseQuantity))
	return charged, false, nil
}

// settleSwapAsset moves the desired asset from the buyer (or the hinted
// holder the buyer operates for) to the seller.
func (im *impl) settleSwapAsset(c ctx.Ctx, l *listing.Listing, buyer, holderHint domain.Address) error {
	is1155, err := im.detector.SupportsErc1155(c, l.DesiredTokenAddress)
	if err != nil {
		return err
	}
	if !is1155 {
		return im.erc721.SafeTransferFrom(c, l.DesiredTokenAddress, buyer, l.Seller, l.DesiredTokenId)
	}
	holder := buyer
	if !holderHint.IsEmpty() && !holderHint.Equals(buyer) {
		holder = holderHint.ToLower()
		if ok, err := im.erc1155.IsApprovedForAll(c, l.DesiredTokenAddress, holder, buyer); err != nil {
			return err
		} else if !ok {
			return domain.ErrNotOwnerNorApproved
		}
	}
	bal, err := im.erc1155.BalanceOf(c, l.DesiredTokenAddress, holder, l.DesiredTokenId)
	if err != nil {
		return err
	}
	if bal < l.DesiredErc1155Quantity {
		return domain.ErrWrongHolderParameter
	}
	return im.erc1155.SafeTransferFrom(c, l.DesiredTokenAddress, holder, l.Seller, l.DesiredTokenId, l.DesiredErc1155Quantity)
}

// stillValid re-derives the purchase-time preconditions. CleanListing may
// only delete when at least one of them fails; deleting a valid listing
// would be theft of liveness, so the checks mirror the purchase path
// exactly.
func (im *impl) stillValid(c ctx.Ctx, l *listing.Listing) (bool, error) {
	if l.Kind() == domain.TokenType721 {
		if ok, err := im.collections.IsWhitelisted(c, l.TokenAddress); err != nil {
			return false, err
		} else if !ok {
			return false, nil
		}
		owner, err := im.erc721.OwnerOf(c, l.TokenAddress, l.TokenId)
		if err != nil {
			return false, err
		}
		if !owner.Equals(l.Seller) {
			return false, nil
		}
		if approved, err := im.erc721.GetApproved(c, l.TokenAddress, l.TokenId); err != nil {
			return false, err
		} else if approved.Equals(im.market) {
			return true, nil
		}
		ok, err := im.erc721.IsApprovedForAll(c, l.TokenAddress, l.Seller, im.market)
		if err != nil {
			return false, err
		}
		return ok, nil
	}

	bal, err := im.erc1155.BalanceOf(c, l.TokenAddress, l.Seller, l.TokenId)
	if err != nil {
		return false, err
	}
	if bal < l.Erc1155Quantity {
		return false, nil
	}
	ok, err := im.erc1155.IsApprovedForAll(c, l.TokenAddress, l.Seller, im.market)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// dropListing removes a listing and all its satellites.
func (im *impl) dropListing(c ctx.Ctx, l *listing.Listing) error {
	if err := im.registry.Delete(c, l.ListingId); err != nil {
		return err
	}
	if l.Kind() == domain.TokenType721 {
		if err := im.registry.ClearUnique721(c, l.TokenAddress, l.TokenId); err != nil {
			return err
		}
	}
	return im.buyerWhitelist.Clear(c, l.ListingId)
}

func (im *impl) emit(c ctx.Ctx, kind listing.EventKind, l *listing.Listing, p *listing.Purchase, price *big.Int) {
	display := ""
	if price != nil {
		display = decimal.NewFromBigInt(price, -im.displayDec).String()
	}
	snapshot := *l
	e := &listing.Event{
		Id:           uuid.New().String(),
		Kind:         kind,
		ListingId:    l.ListingId,
		Listing:      &snapshot,
		Purchase:     p,
		DisplayPrice: display,
		Timestamp:    time.Now(),
	}
	c.WithFields(log.Fields{
		"kind":         kind,
		"listingId":    l.ListingId,
		"displayPrice": display,
	}).Info("listing event")
	if im.events == nil {
		return
	}
	// archive failures are logged, never surfaced: the archive is
	// indexing, not core state
	if err := im.events.Append(c, e); err != nil {
		c.WithFields(log.Fields{
			"err":       err,
			"listingId": l.ListingId,
		}).Error("events.Append failed")
	}
}
