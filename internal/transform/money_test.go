package transform

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}

func TestConverter_Convert(t *testing.T) {
	c := NewConverter(dec("83"))

	tests := []struct {
		amount string
		want   string
	}{
		{"25", "2075"},
		{"0.015", "1.25"},
		{"19.99", "1659.17"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got := c.Convert(dec(tt.amount))
		assertDec(t, tt.want, got, tt.amount)
		assert.True(t, got.Equal(c.Convert(dec(tt.amount))), "conversion must be deterministic")
	}
}

func TestFlatTax_Split(t *testing.T) {
	f := FlatTax{Converter: NewConverter(decimal.NewFromInt(1)), Percent: dec("18")}

	for _, amount := range []string{"4150", "100", "0.05", "33.33", "1"} {
		split := f.Split(dec(amount))
		expected := dec(amount).Mul(dec("18")).Div(dec("100")).Round(2)

		assert.True(t, split.Total().Equal(expected), amount)
		assert.True(t, split.CGST.Equal(split.SGST), amount)
		assert.True(t, split.IGST.IsZero(), amount)
	}

	split := f.Split(dec("4150"))
	assertDec(t, "373.5", split.CGST)
	assertDec(t, "373.5", split.SGST)
}

func TestFlatTax_Line(t *testing.T) {
	f := NewTaxPolicy(config.Tally{ExchangeRate: 83, TaxPercent: 18, TaxPolicy: config.TaxPolicyFlat})
	assert.Equal(t, "flat", f.Name())

	line := f.Line(&model.ShopifyOrder{}, model.LineItem{
		Quantity:      2,
		Price:         model.NewMoney("25.00"),
		TotalDiscount: model.NewMoney("1.00"),
	})

	assertDec(t, "2075", line.Rate)
	assertDec(t, "83", line.Discount)
	assertDec(t, "4067", line.Amount)
	assertDec(t, "732.06", line.Tax.Total())
	assertDec(t, "366.03", line.Tax.CGST)
}

func TestFlatTax_Shipping(t *testing.T) {
	f := NewTaxPolicy(config.Tally{ExchangeRate: 2, TaxPercent: 10, TaxPolicy: config.TaxPolicyFlat})
	charge, tax := f.Shipping(&model.ShopifyOrder{ShippingLines: []model.ShippingLine{
		{Price: model.NewMoney("5")},
		{Price: model.NewMoney("2.5")},
	}})
	assertDec(t, "15", charge)
	assertDec(t, "1.5", tax)
}

func TestSourceTax_Line(t *testing.T) {
	s := NewTaxPolicy(config.Tally{ExchangeRate: 1, TaxPercent: 18, TaxPolicy: config.TaxPolicySource})
	assert.Equal(t, "source", s.Name())

	li := model.LineItem{
		Quantity: 2,
		Price:    model.NewMoney("59"),
		TaxLines: []model.TaxLine{
			{Title: "CGST 9%", Price: model.NewMoney("9")},
			{Title: "SGST 9%", Price: model.NewMoney("9")},
		},
	}

	t.Run("taxes included", func(t *testing.T) {
		line := s.Line(&model.ShopifyOrder{TaxesIncluded: true}, li)
		assertDec(t, "100", line.Amount)
		assertDec(t, "59", line.Rate)
		assertDec(t, "9", line.Tax.CGST)
		assertDec(t, "9", line.Tax.SGST)
		assert.True(t, line.Tax.IGST.IsZero())
	})

	t.Run("taxes excluded", func(t *testing.T) {
		line := s.Line(&model.ShopifyOrder{}, li)
		assertDec(t, "118", line.Amount)
		assertDec(t, "68", line.Rate)
	})

	t.Run("unlabelled tax is igst", func(t *testing.T) {
		line := s.Line(&model.ShopifyOrder{}, model.LineItem{
			Quantity: 1,
			Price:    model.NewMoney("100"),
			TaxLines: []model.TaxLine{{Title: "IGST", Price: model.NewMoney("18")}, {Title: "GST", Price: model.NewMoney("1")}},
		})
		assertDec(t, "19", line.Tax.IGST)
		assert.True(t, line.Tax.CGST.IsZero())
	})
}

func TestSourceTax_Shipping(t *testing.T) {
	s := NewTaxPolicy(config.Tally{ExchangeRate: 1, TaxPolicy: config.TaxPolicySource})
	charge, tax := s.Shipping(&model.ShopifyOrder{ShippingLines: []model.ShippingLine{
		{Price: model.NewMoney("50"), TaxLines: []model.TaxLine{{Title: "IGST", Price: model.NewMoney("9")}}},
	}})
	assertDec(t, "50", charge)
	assertDec(t, "9", tax)
}
