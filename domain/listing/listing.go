package listing

import (
	"math/big"
	"time"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

// Listing is a seller's standing, non-custodial offer to sell or swap one
// NFT (or an erc1155 quantity) for a price in one currency.
//
// Erc1155Quantity doubles as the standard discriminant on the wire: 0 means
// an erc721 listing of the whole token, any positive value an erc1155
// listing of that many units. Kind() exposes the discriminant explicitly.
type Listing struct {
	ListingId    domain.ListingId `json:"listingId" bson:"listingId"`
	TokenAddress domain.Address   `json:"tokenAddress" bson:"tokenAddress"`
	TokenId      domain.TokenId   `json:"tokenId" bson:"tokenId"`

	Erc1155Quantity int64 `json:"erc1155Quantity" bson:"erc1155Quantity"`

	// Price is the total price for the full remaining quantity, in the
	// currency's base units. With PartialBuyEnabled it is always evenly
	// divisible by Erc1155Quantity.
	Price string `json:"price" bson:"price"`

	Seller domain.Address `json:"seller" bson:"seller"`

	// Currency is domain.NativeCurrency or an erc20 contract address. It
	// was allowlisted when the listing was created or last updated; later
	// allowlist removals do not invalidate the listing.
	Currency domain.Address `json:"currency" bson:"currency"`

	// FeeRate is the marketplace fee snapshot (over
	// domain.FeeRateDenominator) taken at creation/update time.
	FeeRate int64 `json:"feeRate" bson:"feeRate"`

	BuyerWhitelistEnabled bool `json:"buyerWhitelistEnabled" bson:"buyerWhitelistEnabled"`
	PartialBuyEnabled     bool `json:"partialBuyEnabled" bson:"partialBuyEnabled"`

	// Swap target. An empty DesiredTokenAddress means a plain currency
	// sale and forces the other desired fields to zero.
	DesiredTokenAddress    domain.Address `json:"desiredTokenAddress" bson:"desiredTokenAddress"`
	DesiredTokenId         domain.TokenId `json:"desiredTokenId" bson:"desiredTokenId"`
	DesiredErc1155Quantity int64          `json:"desiredErc1155Quantity" bson:"desiredErc1155Quantity"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (l *Listing) Kind() domain.TokenType {
	if l.Erc1155Quantity == 0 {
		return domain.TokenType721
	}
	return domain.TokenType1155
}

func (l *Listing) IsSwap() bool {
	return !l.DesiredTokenAddress.IsEmpty()
}

func (l *Listing) PriceBig() (*big.Int, error) {
	return domain.ParseAmount(l.Price)
}

// Repo is the authoritative listing registry plus the erc721 uniqueness
// reverse index. It holds no validation logic; the lifecycle usecase is its
// sole writer. FindOne returns (nil, nil) for unknown ids.
type Repo interface {
	NextId(c ctx.Ctx) (domain.ListingId, error)
	FindOne(c ctx.Ctx, id domain.ListingId) (*Listing, error)
	Put(c ctx.Ctx, l *Listing) error
	Delete(c ctx.Ctx, id domain.ListingId) error
	FindAll(c ctx.Ctx) ([]*Listing, error)
	// FindByItem is one-to-many: erc1155 permits several simultaneous
	// listings per (collection, tokenId) split across holders.
	FindByItem(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) ([]*Listing, error)

	GetUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.ListingId, bool, error)
	SetUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, id domain.ListingId) error
	ClearUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) error
}

type CreateListingReq struct {
	// Caller is the authenticated request sender, the msg.sender analog.
	Caller       domain.Address `json:"caller" validate:"required"`
	TokenAddress domain.Address `json:"tokenAddress" validate:"required"`
	TokenId      domain.TokenId `json:"tokenId" validate:"required"`
	// HolderHint names the actual holder when an approved erc1155 operator
	// lists on the holder's behalf. The system cannot discover "whom am I
	// an operator for", so supplying it is the caller's responsibility.
	HolderHint             domain.Address   `json:"holderHint"`
	Price                  string           `json:"price" validate:"required"`
	Currency               domain.Address   `json:"currency"`
	DesiredTokenAddress    domain.Address   `json:"desiredTokenAddress"`
	DesiredTokenId         domain.TokenId   `json:"desiredTokenId"`
	DesiredErc1155Quantity int64            `json:"desiredErc1155Quantity" validate:"gte=0"`
	Erc1155Quantity        int64            `json:"erc1155Quantity" validate:"gte=0"`
	BuyerWhitelistEnabled  bool             `json:"buyerWhitelistEnabled"`
	PartialBuyEnabled      bool             `json:"partialBuyEnabled"`
	AllowedBuyers          []domain.Address `json:"allowedBuyers"`
}

// PurchaseListingReq carries the buyer's expected snapshot of the listing
// terms. Any divergence from stored state fails the purchase with
// domain.ErrListingTermsChanged; this is the front-run defense, so the
// expectations are required even though they duplicate stored state.
type PurchaseListingReq struct {
	Caller    domain.Address   `json:"caller" validate:"required"`
	ListingId domain.ListingId `json:"listingId" validate:"required"`

	ExpectedPrice                  string         `json:"expectedPrice" validate:"required"`
	ExpectedCurrency               domain.Address `json:"expectedCurrency"`
	ExpectedErc1155Quantity        int64          `json:"expectedErc1155Quantity" validate:"gte=0"`
	ExpectedDesiredTokenAddress    domain.Address `json:"expectedDesiredTokenAddress"`
	ExpectedDesiredTokenId         domain.TokenId `json:"expectedDesiredTokenId"`
	ExpectedDesiredErc1155Quantity int64          `json:"expectedDesiredErc1155Quantity" validate:"gte=0"`

	// PurchaseQuantity must be exactly 0 for erc721 ("the whole item");
	// for erc1155 it is 1..=remaining, below remaining only when partial
	// buy is enabled.
	PurchaseQuantity int64 `json:"purchaseQuantity" validate:"gte=0"`

	// DesiredAssetHolderHint names the holder of an erc1155 swap asset,
	// same caller responsibility as CreateListingReq.HolderHint.
	DesiredAssetHolderHint domain.Address `json:"desiredAssetHolderHint"`

	// AttachedValue is the native value sent with the call. Must equal the
	// charged price exactly for native-currency listings, and zero for
	// erc20 listings.
	AttachedValue string `json:"attachedValue"`
}

type UpdateListingReq struct {
	Caller    domain.Address   `json:"caller" validate:"required"`
	ListingId domain.ListingId `json:"listingId" validate:"required"`

	NewPrice                  string           `json:"newPrice" validate:"required"`
	NewCurrency               domain.Address   `json:"newCurrency"`
	NewDesiredTokenAddress    domain.Address   `json:"newDesiredTokenAddress"`
	NewDesiredTokenId         domain.TokenId   `json:"newDesiredTokenId"`
	NewDesiredErc1155Quantity int64            `json:"newDesiredErc1155Quantity" validate:"gte=0"`
	NewErc1155Quantity        int64            `json:"newErc1155Quantity" validate:"gte=0"`
	NewBuyerWhitelistEnabled  bool             `json:"newBuyerWhitelistEnabled"`
	NewPartialBuyEnabled      bool             `json:"newPartialBuyEnabled"`
	NewAllowedBuyers          []domain.Address `json:"newAllowedBuyers"`
}

// Purchase is the settled outcome of one PurchaseListing call.
type Purchase struct {
	ListingId    domain.ListingId `json:"listingId" bson:"listingId"`
	Buyer        domain.Address   `json:"buyer" bson:"buyer"`
	Seller       domain.Address   `json:"seller" bson:"seller"`
	TokenAddress domain.Address   `json:"tokenAddress" bson:"tokenAddress"`
	TokenId      domain.TokenId   `json:"tokenId" bson:"tokenId"`
	// Quantity is the purchased unit count, 0 for a whole erc721 token.
	Quantity        int64          `json:"quantity" bson:"quantity"`
	Currency        domain.Address `json:"currency" bson:"currency"`
	Price           string         `json:"price" bson:"price"`
	Fee             string         `json:"fee" bson:"fee"`
	Royalty         string         `json:"royalty" bson:"royalty"`
	RoyaltyReceiver domain.Address `json:"royaltyReceiver" bson:"royaltyReceiver"`
	SellerProceeds  string         `json:"sellerProceeds" bson:"sellerProceeds"`
	// Remaining is the surviving listing after a partial buy, nil after a
	// full purchase.
	Remaining *Listing `json:"remaining,omitempty" bson:"remaining,omitempty"`
}

type UseCase interface {
	CreateListing(c ctx.Ctx, req *CreateListingReq) (*Listing, error)
	PurchaseListing(c ctx.Ctx, req *PurchaseListingReq) (*Purchase, error)
	UpdateListing(c ctx.Ctx, req *UpdateListingReq) (*Listing, error)
	CancelListing(c ctx.Ctx, caller domain.Address, id domain.ListingId) error
	// CleanListing is permissionless: it deletes the listing only if at
	// least one purchase-time precondition no longer holds, and fails with
	// domain.ErrListingStillValid otherwise.
	CleanListing(c ctx.Ctx, id domain.ListingId) error

	GetListing(c ctx.Ctx, id domain.ListingId) (*Listing, error)
	GetListingsByItem(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) ([]*Listing, error)
	GetListings(c ctx.Ctx) ([]*Listing, error)
}
