package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = StatusOf(err, status)
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}

// StatusOf maps marketplace errors onto HTTP statuses; unmapped errors keep
// the fallback the handler chose.
func StatusOf(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotListed),
		errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAdmin),
		errors.Is(err, domain.ErrNotSeller),
		errors.Is(err, domain.ErrNotOwnerNorApproved),
		errors.Is(err, domain.ErrBuyerNotWhitelisted):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrInvalidNumberFormat),
		errors.Is(err, domain.ErrWrongQuantityParameter),
		errors.Is(err, domain.ErrInvalidUnitPrice),
		errors.Is(err, domain.ErrFreeListingNotSupported),
		errors.Is(err, domain.ErrNoSwapParametersSet),
		errors.Is(err, domain.ErrUnsupportedTokenStandard),
		errors.Is(err, domain.ErrExceedsMaxBatchSize),
		errors.Is(err, domain.ErrBuyerWhitelistDisabled),
		errors.Is(err, domain.ErrInvalidPurchaseQuantity),
		errors.Is(err, domain.ErrWrongHolderParameter),
		errors.Is(err, domain.ErrWrongPaymentCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrCurrencyAlreadyAllowed),
		errors.Is(err, domain.ErrListingTermsChanged),
		errors.Is(err, domain.ErrListingStillValid),
		errors.Is(err, domain.ErrSameBuyerAsSeller),
		errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInternalServerError):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrCollectionNotWhitelisted),
		errors.Is(err, domain.ErrCurrencyNotAllowed),
		errors.Is(err, domain.ErrPartialBuyNotPossible),
		errors.Is(err, domain.ErrTokenTransferFailed),
		errors.Is(err, domain.ErrRoyaltyExceedsProceeds),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	}
	return fallback
}
