package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/delivery"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/currency"
)

type handler struct {
	currency currency.UseCase
}

// New wires the payment-currency allowlist endpoints.
func New(e *echo.Echo, uc currency.UseCase) {
	h := &handler{uc}

	g := e.Group("/currencies")

	g.GET("", h.getAll)

	g.POST("", h.add)

	g.DELETE("", h.remove)
}

type mutateParams struct {
	Caller  domain.Address `json:"caller" validate:"required"`
	Address domain.Address `json:"address"`
}

func (h *handler) getAll(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	res, err := h.currency.ListAll(context)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) add(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	p := &mutateParams{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.currency.Add(context, p.Caller, p.Address); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, "ok")
}

func (h *handler) remove(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	p := &mutateParams{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.currency.Remove(context, p.Caller, p.Address); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
