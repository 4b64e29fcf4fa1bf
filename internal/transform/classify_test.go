package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shopify-tally-integration/internal/model"
)

func TestPayment(t *testing.T) {
	tests := []struct {
		name  string
		order model.ShopifyOrder
		want  string
	}{
		{name: "cod gateway", order: model.ShopifyOrder{Gateway: "Cash on Delivery (COD)", FinancialStatus: "paid"}, want: model.PaymentCOD},
		{name: "pending status", order: model.ShopifyOrder{FinancialStatus: "pending"}, want: model.PaymentCOD},
		{name: "paid online", order: model.ShopifyOrder{Gateway: "razorpay", FinancialStatus: "paid"}, want: model.PaymentPrepaid},
		{name: "authorized", order: model.ShopifyOrder{FinancialStatus: "authorized"}, want: model.PaymentPrepaid},
		{name: "partially paid", order: model.ShopifyOrder{FinancialStatus: "partially_paid"}, want: model.PaymentPrepaid},
		{name: "gateway names", order: model.ShopifyOrder{FinancialStatus: "paid", PaymentGatewayNames: []string{"gift_card", "cash_on_delivery"}}, want: model.PaymentCOD},
		{name: "nothing known", order: model.ShopifyOrder{}, want: model.PaymentPrepaid},
		{name: "refunded", order: model.ShopifyOrder{FinancialStatus: "refunded"}, want: model.PaymentPrepaid},
		{name: "cashfree gateway", order: model.ShopifyOrder{Gateway: "Cashfree Payments", FinancialStatus: "paid"}, want: model.PaymentPrepaid},
		{name: "cashfree gateway name", order: model.ShopifyOrder{FinancialStatus: "paid", PaymentGatewayNames: []string{"Cashfree"}}, want: model.PaymentPrepaid},
		{name: "bare cod gateway", order: model.ShopifyOrder{Gateway: "COD", FinancialStatus: "paid"}, want: model.PaymentCOD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Payment(&tt.order))
		})
	}
}

func TestIsCash(t *testing.T) {
	for _, s := range []string{"cash", "Cash on Delivery (COD)", "cash_on_delivery", "COD", "manual-cod"} {
		assert.True(t, isCash(s), s)
	}
	for _, s := range []string{"", "Cashfree Payments", "cashfree", "codeshop", "razorpay", "paid"} {
		assert.False(t, isCash(s), s)
	}
}

func TestClassifier_Channel(t *testing.T) {
	c := NewClassifier("Pending", "Sales")

	tests := []struct {
		name       string
		order      model.ShopifyOrder
		wantLabel  string
		wantSource string
	}{
		{name: "explicit carrier tag", order: model.ShopifyOrder{Tags: model.FlexList{"vip", "carrier:DTDC"}}, wantLabel: "DTDC", wantSource: "tags"},
		{name: "keyword tag", order: model.ShopifyOrder{Tags: model.FlexList{"delhivery-surface"}}, wantLabel: "Delhivery", wantSource: "tags"},
		{
			name: "journey utm",
			order: model.ShopifyOrder{CustomerJourney: &model.Journey{FirstVisit: &model.Visit{
				UtmParameters: &model.UtmParameters{Source: "instagram", Medium: "social"},
			}}},
			wantLabel:  "Instagram",
			wantSource: "customer_journey",
		},
		{
			name:       "in-app browser",
			order:      model.ShopifyOrder{ClientDetails: &model.ClientDetails{UserAgent: "Mozilla/5.0 [FBAN/FBIOS;FBAV/400.0]"}},
			wantLabel:  "Facebook",
			wantSource: "user_agent",
		},
		{name: "referring site", order: model.ShopifyOrder{ReferringSite: "https://l.instagram.com/?u=x"}, wantLabel: "Instagram", wantSource: "landing_site"},
		{
			name:       "shipping line",
			order:      model.ShopifyOrder{ShippingLines: []model.ShippingLine{{Title: "Standard", Code: "BLUEDART_EXPRESS"}}},
			wantLabel:  "Blue Dart",
			wantSource: "shipping_lines",
		},
		{
			name:       "note attribute",
			order:      model.ShopifyOrder{NoteAttributes: []model.NoteAttribute{{Name: "Courier", Value: "Professional Couriers"}}},
			wantLabel:  "Professional Couriers",
			wantSource: "note_attributes",
		},
		{name: "source name", order: model.ShopifyOrder{SourceName: "amazon-marketplace"}, wantLabel: "Amazon", wantSource: "source_name"},
		{name: "note text", order: model.ShopifyOrder{Note: "ordered over whatsapp"}, wantLabel: "WhatsApp", wantSource: "note"},
		{name: "nothing", order: model.ShopifyOrder{SourceName: "web"}, wantLabel: "Pending", wantSource: "fallback"},
		{
			name:       "tags beat shipping lines",
			order:      model.ShopifyOrder{Tags: model.FlexList{"carrier:Ekart"}, ShippingLines: []model.ShippingLine{{Code: "dtdc"}}},
			wantLabel:  "Ekart",
			wantSource: "tags",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, source := c.Channel(&tt.order)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestClassifier_ClassificationExample(t *testing.T) {
	c := NewClassifier("Pending", "Sales")
	order := &model.ShopifyOrder{Tags: model.FlexList{"carrier:DTDC"}, FinancialStatus: "pending"}

	cls := c.Classify(order)
	assert.Equal(t, model.PaymentCOD, cls.PaymentMethod)
	assert.Equal(t, "DTDC", cls.DeliveryChannel)
	assert.Equal(t, "Sales-COD-DTDC", c.VoucherType(cls.PaymentMethod, cls.DeliveryChannel))
}

func TestClassifier_Idempotent(t *testing.T) {
	c := NewClassifier("Website", "Sales")
	order := &model.ShopifyOrder{}

	first := c.Classify(order)
	assert.Equal(t, "Website", first.DeliveryChannel)

	order.Tags = model.FlexList{"carrier:Delhivery"}
	second := c.Classify(order)
	assert.Equal(t, "Delhivery", second.DeliveryChannel)
	assert.Equal(t, second, c.Classify(order))
}
