package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopify-tally-integration/internal/service"
)

type ShopHandler struct {
	shopService service.ShopService
}

func NewShopHandler(shopService service.ShopService) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
	}
}

func (h *ShopHandler) Install(c echo.Context) error {
	url, err := h.shopService.InstallURL(c.Request().Context(), c.QueryParam("shop"))
	if err != nil {
		return httpError(err)
	}

	return c.Redirect(http.StatusFound, url)
}

func (h *ShopHandler) OAuthCallback(c echo.Context) error {
	if err := h.shopService.Callback(c.Request().Context(), c.QueryParams()); err != nil {
		return httpError(err)
	}

	return c.String(http.StatusOK, "Shopify store connected successfully")
}
