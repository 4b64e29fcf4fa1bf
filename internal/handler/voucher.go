package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/service"
)

type VoucherHandler struct {
	voucherService service.VoucherService
}

func NewVoucherHandler(voucherService service.VoucherService) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
	}
}

func (h *VoucherHandler) Push(c echo.Context) error {
	var req dto.Voucher
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.voucherService.Push(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.PushResponse{ShopifyOrderID: id})
}
