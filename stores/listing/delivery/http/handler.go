package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/delivery"
	"github.com/vendue/goapi/base/metrics"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/keys"
	"github.com/vendue/goapi/domain/listing"
	"github.com/vendue/goapi/middleware"
	"github.com/vendue/goapi/service/cache"
)

var met metrics.Service

type handler struct {
	listing listing.UseCase
	events  listing.EventRepo
	cache   cache.Service
}

// New wires the listing lifecycle endpoints. The cache only fronts the
// read endpoints; every mutating call goes straight to the usecase.
// Cached reads are not invalidated on writes, so they can lag the
// registry by up to the configured cache ttl.
func New(e *echo.Echo, uc listing.UseCase, events listing.EventRepo, cacheService cache.Service) {
	met = metrics.New("listing")

	h := &handler{uc, events, cacheService}

	gs := e.Group("/listings")

	gs.GET("", h.getAll)

	gs.POST("", h.create)

	gs.GET("/item/:contract/:tokenId", h.getByItem, middleware.IsValidAddress("contract"))

	g := e.Group("/listing/:id")

	g.GET("", h.get)

	g.PUT("", h.update)

	g.DELETE("", h.cancel)

	g.POST("/purchase", h.purchase)

	g.DELETE("/stale", h.clean)

	g.GET("/activities", h.getActivities)
}

func listingId(c echo.Context) (domain.ListingId, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return domain.ListingId(id), nil
}

func (h *handler) create(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("create.time").End()

	req := &listing.CreateListingReq{}
	if err := c.Bind(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.listing.CreateListing(context, req)
	if err != nil {
		met.BumpSum("create.err", 1)
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) purchase(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("purchase.time").End()

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	req := &listing.PurchaseListingReq{}
	if err := c.Bind(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	req.ListingId = id
	if err := c.Validate(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.listing.PurchaseListing(context, req)
	if err != nil {
		met.BumpSum("purchase.err", 1)
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) update(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("update.time").End()

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	req := &listing.UpdateListingReq{}
	if err := c.Bind(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	req.ListingId = id
	if err := c.Validate(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.listing.UpdateListing(context, req)
	if err != nil {
		met.BumpSum("update.err", 1)
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) cancel(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("cancel.time").End()

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.listing.CancelListing(context, p.Caller, id); err != nil {
		met.BumpSum("cancel.err", 1)
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) clean(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("clean.time").End()

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.listing.CleanListing(context, id); err != nil {
		met.BumpSum("clean.err", 1)
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) get(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.listing.GetListing(context, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getAll(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	res := &[]*listing.Listing{}
	err := h.cache.GetByFunc(context, keys.RedisKey(keys.PfxListing, "all"), res, func() (interface{}, error) {
		ls, err := h.listing.GetListings(context)
		if err != nil {
			return nil, err
		}
		return &ls, nil
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getByItem(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	contract := domain.Address(c.Param("contract")).ToLower()
	tokenId := domain.TokenId(c.Param("tokenId"))

	res := &[]*listing.Listing{}
	key := keys.RedisKey(keys.PfxListing, string(contract), string(tokenId))
	err := h.cache.GetByFunc(context, key, res, func() (interface{}, error) {
		ls, err := h.listing.GetListingsByItem(context, contract, tokenId)
		if err != nil {
			return nil, err
		}
		return &ls, nil
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getActivities(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	defer met.BumpTime("activities.time").End()

	id, err := listingId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.events.FindByListing(context, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
