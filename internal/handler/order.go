package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/service"
)

const maxWebhookBody = 5 << 20

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ShopifyWebhook acknowledges every delivery except one with a bad
// signature. Processing failures are logged, not returned to Shopify.
func (h *OrderHandler) ShopifyWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body")
	}

	err = h.orderService.HandleWebhook(ctx, c.Request().Header, body)
	if errors.Is(err, service.ErrInvalidSignature) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
	}
	if err != nil {
		logger.FromContext(ctx).Error("webhook processing failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OrderHandler) TallyOrders(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DateRange
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vouchers, err := h.orderService.ListVouchers(ctx, req.FromDate, req.ToDate)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.OrdersResponse{Orders: vouchers})
}

func (h *OrderHandler) Sync(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DateRange
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.orderService.SyncRange(ctx, req.FromDate, req.ToDate)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) SyncYesterday(c echo.Context) error {
	resp, err := h.orderService.SyncYesterday(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func refreshParam(c echo.Context) bool {
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))
	return refresh
}

func (h *OrderHandler) Reclassify(c echo.Context) error {
	resp, err := h.orderService.Reclassify(c.Request().Context(), c.Param("id"), refreshParam(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ReclassifyPending(c echo.Context) error {
	resp, err := h.orderService.ReclassifyPending(c.Request().Context(), refreshParam(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Override(c echo.Context) error {
	var req dto.ClassificationOverride
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.orderService.Override(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) OverrideBatch(c echo.Context) error {
	var req dto.BatchOverrideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.orderService.OverrideBatch(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
