package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/service"
)

// httpError maps service errors onto HTTP responses. Storefront failures
// become 502 with the Shopify body passed through as the message; a missing
// storefront configuration is reported without the caller's wrap chain.
func httpError(err error) error {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidShop),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidHMAC):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidSignature):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, client.ErrShopifyNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, client.ErrShopifyNotConfigured.Error())
	case errors.As(err, &apiErr):
		return echo.NewHTTPError(http.StatusBadGateway, apiErr.Body)
	default:
		return err
	}
}
