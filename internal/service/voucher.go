package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/metrics"
)

const pushedOrderTag = "Tally"

type VoucherService interface {
	Push(ctx context.Context, voucher *dto.Voucher) (string, error)
}

type voucherServiceImpl struct {
	shopifyClient client.ShopifyClient
	metrics       *metrics.Registry
}

func NewVoucherService(shopifyClient client.ShopifyClient, m *metrics.Registry) VoucherService {
	return &voucherServiceImpl{
		shopifyClient: shopifyClient,
		metrics:       m,
	}
}

// Push creates a paid Shopify order from a ledger voucher and returns the
// Shopify order id. Storefront failures are returned unchanged.
func (s *voucherServiceImpl) Push(ctx context.Context, voucher *dto.Voucher) (string, error) {
	payload, err := BuildShopifyOrder(voucher)
	if err != nil {
		s.metrics.VouchersPushed.WithLabelValues("rejected").Inc()
		return "", err
	}

	id, err := s.shopifyClient.CreateOrder(ctx, payload)
	if err != nil {
		s.metrics.VouchersPushed.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("create shopify order: %w", err)
	}
	s.metrics.VouchersPushed.WithLabelValues("created").Inc()

	logger.FromContext(ctx).Info("voucher pushed",
		zap.String("voucher_number", voucher.VoucherNumber),
		zap.String("shopify_order_id", id),
	)
	return id, nil
}

// BuildShopifyOrder maps a voucher onto the Admin API order-create body.
func BuildShopifyOrder(voucher *dto.Voucher) (*dto.ShopifyOrderCreate, error) {
	if voucher == nil || len(voucher.Items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrInvalidRequest)
	}

	items := make([]dto.ShopifyNewItem, len(voucher.Items))
	for i, item := range voucher.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			return nil, fmt.Errorf("%w: items[%d].item_name is required", ErrInvalidRequest, i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: items[%d].quantity must be positive", ErrInvalidRequest, i)
		}
		items[i] = dto.ShopifyNewItem{
			Title:    item.ItemName,
			Quantity: int(item.Quantity),
			Price:    item.Rate.StringFixed(2),
		}
	}

	order := dto.ShopifyNewOrder{
		FinancialStatus: "paid",
		Currency:        voucher.Currency,
		Note:            voucher.Narration,
		Tags:            pushedOrderTag,
		LineItems:       items,
	}
	if voucher.Customer.Email != nil {
		order.Email = *voucher.Customer.Email
	}
	if first, last := SplitName(voucher.Customer.Name); first != "" {
		order.Customer = &dto.ShopifyNewCustomer{
			FirstName: first,
			LastName:  last,
			Email:     order.Email,
		}
	}

	return &dto.ShopifyOrderCreate{Order: order}, nil
}

// SplitName splits on the first whitespace. The remainder, trimmed, is the
// last name.
func SplitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	i := strings.IndexFunc(name, unicode.IsSpace)
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSpace(name[i:])
}
