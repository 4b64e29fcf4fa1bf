package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/metrics"
	"shopify-tally-integration/internal/model"
	"shopify-tally-integration/internal/repository"
)

type fakeShopify struct {
	orders     map[string]json.RawMessage
	listed     []json.RawMessage
	listParams client.ListOrdersParams
	customers  map[string]*model.ShopifyCustomer
	created    *dto.ShopifyOrderCreate
	createErr  error
	token      *model.ShopifyToken
	exchanged  string
}

func (f *fakeShopify) ListOrders(_ context.Context, p client.ListOrdersParams) ([]json.RawMessage, error) {
	f.listParams = p
	return f.listed, nil
}

func (f *fakeShopify) GetOrder(_ context.Context, id string) (json.RawMessage, error) {
	if raw, ok := f.orders[id]; ok {
		return raw, nil
	}
	return nil, &client.APIError{StatusCode: 404, Body: `{"errors":"Not Found"}`}
}

func (f *fakeShopify) GetCustomer(_ context.Context, id string) (*model.ShopifyCustomer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, &client.APIError{StatusCode: 404, Body: "not found"}
}

func (f *fakeShopify) CreateOrder(_ context.Context, p *dto.ShopifyOrderCreate) (string, error) {
	f.created = p
	if f.createErr != nil {
		return "", f.createErr
	}
	return "9001", nil
}

func (f *fakeShopify) GraphQL(context.Context, string, map[string]any, any) error { return nil }

func (f *fakeShopify) AuthorizeURL(shop, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state
}

func (f *fakeShopify) ExchangeCode(_ context.Context, _ string, code string) (*model.ShopifyToken, error) {
	f.exchanged = code
	return f.token, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Shopify: config.Shopify{
			Store:        "demo.myshopify.com",
			ClientID:     "cid",
			ClientSecret: "csecret",
			PageLimit:    250,
		},
		Tally: config.Tally{
			ExchangeRate:   83.0,
			TaxPercent:     18,
			TaxPolicy:      config.TaxPolicyFlat,
			LocalCurrency:  "INR",
			DefaultChannel: "Pending",
			FallbackName:   "Unknown Customer",
			VoucherPrefix:  "Sales",
			Source:         "Shopify",
			Timezone:       "Asia/Kolkata",
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDBClient(config.Database{
		Driver:       "sqlite",
		URL:          ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	return db
}

type fixture struct {
	cfg      *config.Config
	shopify  *fakeShopify
	orders   OrderService
	vouchers VoucherService
	shops    ShopService
	orderDB  repository.OrderRepository
	shopDB   repository.ShopRepository
	metrics  *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	fake := &fakeShopify{
		orders:    map[string]json.RawMessage{},
		customers: map[string]*model.ShopifyCustomer{},
	}
	m := metrics.NewRegistry()
	orderRepo := repository.NewOrderRepository(db)
	shopRepo := repository.NewShopRepository(db)
	return &fixture{
		cfg:      cfg,
		shopify:  fake,
		orders:   NewOrderService(cfg, fake, orderRepo, repository.NewWebhookEventRepository(db), m),
		vouchers: NewVoucherService(fake, m),
		shops:    NewShopService(&cfg.Shopify, fake, shopRepo),
		orderDB:  orderRepo,
		shopDB:   shopRepo,
		metrics:  m,
	}
}

func orderJSON(id int, date, tags string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %d,
		"order_number": %d,
		"created_at": "%sT10:00:00+05:30",
		"total_price": "100.00",
		"currency": "USD",
		"financial_status": "pending",
		"tags": %q,
		"line_items": [{"title": "Shirt", "quantity": 2, "price": "25.00"}],
		"customer": {"first_name": "Asha", "last_name": "Rao", "email": "a@x.com"}
	}`, id, id, date, tags))
}
