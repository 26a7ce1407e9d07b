package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")

	// authorization
	ErrNotOwnerNorApproved = errors.New("caller is neither holder nor approved operator")
	ErrNotSeller           = errors.New("caller is not the listing seller")
	ErrNotAdmin            = errors.New("caller is not the marketplace admin")

	// listing preconditions
	ErrNotListed                = errors.New("listing does not exist")
	ErrAlreadyListed            = errors.New("an active listing already exists for this token")
	ErrCollectionNotWhitelisted = errors.New("collection is not whitelisted")
	ErrCurrencyNotAllowed       = errors.New("currency is not allowed")
	ErrCurrencyAlreadyAllowed   = errors.New("currency is already allowed")
	ErrBuyerNotWhitelisted      = errors.New("buyer is not whitelisted for this listing")
	ErrBuyerWhitelistDisabled   = errors.New("buyer whitelist is disabled for this listing")
	ErrWrongQuantityParameter   = errors.New("wrong quantity parameter")
	ErrInvalidUnitPrice         = errors.New("price is not divisible by quantity")
	ErrFreeListingNotSupported  = errors.New("free listings are not supported")
	ErrNoSwapParametersSet      = errors.New("swap parameters set without a swap target")
	ErrUnsupportedTokenStandard = errors.New("unsupported token standard")
	ErrExceedsMaxBatchSize      = errors.New("batch size exceeds the configured maximum")

	// staleness
	ErrListingTermsChanged = errors.New("listing terms have changed")
	ErrListingStillValid   = errors.New("listing preconditions still hold")

	// payment
	ErrWrongPaymentCurrency   = errors.New("attached value does not match the payment currency")
	ErrTokenTransferFailed    = errors.New("token transfer failed")
	ErrRoyaltyExceedsProceeds = errors.New("royalty exceeds remaining proceeds")
	ErrInsufficientFunds      = errors.New("insufficient funds")

	// purchase
	ErrInvalidPurchaseQuantity = errors.New("invalid purchase quantity")
	ErrPartialBuyNotPossible   = errors.New("partial buy is not enabled for this listing")
	ErrSameBuyerAsSeller       = errors.New("buyer must not be the seller")
	ErrWrongHolderParameter    = errors.New("holder parameter does not match actual holder")

	// reentrancy
	ErrReentrantCall = errors.New("reentrant call detected")
)
