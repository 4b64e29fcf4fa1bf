package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShopifyOrder_Tolerant(t *testing.T) {
	raw := []byte(`{
		"id": 1001,
		"order_number": "1001",
		"created_at": "2025-01-05T23:30:00+05:30",
		"currency": "USD",
		"total_price": "100.00",
		"total_tax": 18,
		"total_discounts": "",
		"subtotal_price": null,
		"note_attributes": [{"name": "channel", "value": 42}],
		"line_items": [
			{"title": "Shirt", "quantity": 2, "price": "25.00"},
			{"title": "Cap", "quantity": "3", "price": 10.5, "total_discount": "abc"}
		],
		"customer": {"id": "77", "first_name": "Asha"}
	}`)

	order, err := ParseShopifyOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, FlexID("1001"), order.ID)
	assert.Equal(t, "1001", order.OrderNumber.String())
	assert.Equal(t, "100", order.TotalPrice.String())
	assert.Equal(t, "18", order.TotalTax.String())
	assert.True(t, order.TotalDiscounts.IsZero())
	assert.True(t, order.SubtotalPrice.IsZero())
	assert.Equal(t, FlexString("42"), order.NoteAttributes[0].Value)

	require.Len(t, order.LineItems, 2)
	assert.Equal(t, FlexInt(2), order.LineItems[0].Quantity)
	assert.Equal(t, FlexInt(3), order.LineItems[1].Quantity)
	assert.Equal(t, "10.5", order.LineItems[1].Price.String())
	assert.True(t, order.LineItems[1].TotalDiscount.IsZero())

	assert.Equal(t, FlexID("77"), order.Customer.ID)
	assert.True(t, order.Customer.HasIdentity())
	assert.Equal(t, "2025-01-05", order.OrderDate())
}

func TestParseShopifyOrder_MistypedFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, o *ShopifyOrder)
	}{
		{name: "numeric phone", raw: `{"id": 1, "phone": 9876543210}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.Equal(t, "9876543210", o.Phone.String())
		}},
		{name: "string taxes_included", raw: `{"id": 2, "taxes_included": "false"}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.False(t, bool(o.TaxesIncluded))
		}},
		{name: "quoted true taxes_included", raw: `{"id": 3, "taxes_included": "TRUE"}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.True(t, bool(o.TaxesIncluded))
		}},
		{name: "tags array", raw: `{"id": 4, "tags": ["carrier:DTDC", " vip ", ""]}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.Equal(t, FlexList{"carrier:DTDC", "vip"}, o.Tags)
		}},
		{name: "tags string", raw: `{"id": 5, "tags": "vip, carrier:DTDC,"}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.Equal(t, FlexList{"vip", "carrier:DTDC"}, o.Tags)
		}},
		{name: "object where string expected", raw: `{"id": 6, "name": {"x": 1}, "email": "a@x.com"}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.Empty(t, o.Name)
			assert.Equal(t, "a@x.com", o.Email.String())
		}},
		{name: "string where object expected", raw: `{"id": 7, "customer": "guest", "currency": "INR"}`, check: func(t *testing.T, o *ShopifyOrder) {
			assert.Nil(t, o.Customer)
			assert.Equal(t, "INR", o.Currency.String())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := ParseShopifyOrder([]byte(tt.raw))
			require.NoError(t, err)
			assert.NotEmpty(t, order.ID)
			tt.check(t, order)
		})
	}
}

func TestParseShopifyOrder_Envelope(t *testing.T) {
	order, err := ParseShopifyOrder([]byte(`{"order": {"id": 5, "name": "#1005"}}`))
	require.NoError(t, err)
	assert.Equal(t, FlexID("5"), order.ID)
	assert.Equal(t, "#1005", order.Name.String())
}

func TestParseShopifyOrder_Invalid(t *testing.T) {
	_, err := ParseShopifyOrder([]byte(`[1,2`))
	assert.Error(t, err)
}

func TestOrderDate(t *testing.T) {
	tests := []struct {
		createdAt string
		want      string
	}{
		{"2025-03-01T00:15:00-05:00", "2025-03-01"},
		{"2025-03-01 10:00:00", "2025-03-01"},
		{"2025", ""},
		{"", ""},
	}
	for _, tt := range tests {
		o := &ShopifyOrder{CreatedAt: FlexString(tt.createdAt)}
		assert.Equal(t, tt.want, o.OrderDate(), tt.createdAt)
	}
}

func TestLineItem_DisplayName(t *testing.T) {
	assert.Equal(t, "Shirt - L", LineItem{Title: "Shirt", Name: "Shirt - L"}.DisplayName())
	assert.Equal(t, "Shirt", LineItem{Title: "Shirt"}.DisplayName())
}

func TestOrder_Effective(t *testing.T) {
	o := &Order{PaymentMethod: PaymentPrepaid, DeliveryChannel: "Pending"}
	assert.Equal(t, PaymentPrepaid, o.EffectivePayment())
	assert.Equal(t, "Pending", o.EffectiveChannel())

	o.ManualPayment = PaymentCOD
	o.ManualChannel = "DTDC"
	assert.Equal(t, PaymentCOD, o.EffectivePayment())
	assert.Equal(t, "DTDC", o.EffectiveChannel())
}
