package transform

import (
	"strings"

	"github.com/shopspring/decimal"

	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Converter turns source-currency amounts into local currency at a fixed rate.
type Converter struct {
	Rate decimal.Decimal
}

func NewConverter(rate decimal.Decimal) Converter {
	return Converter{Rate: rate}
}

// Convert returns round(amount * rate, 2).
func (c Converter) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.Rate).Round(2)
}

type TaxSplit struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

func (t TaxSplit) Total() decimal.Decimal {
	return t.CGST.Add(t.SGST).Add(t.IGST)
}

func (t TaxSplit) Add(o TaxSplit) TaxSplit {
	return TaxSplit{CGST: t.CGST.Add(o.CGST), SGST: t.SGST.Add(o.SGST), IGST: t.IGST.Add(o.IGST)}
}

// LineAmounts are the local-currency figures of one line item.
type LineAmounts struct {
	Rate     decimal.Decimal
	Amount   decimal.Decimal // tax exclusive, after discount
	Discount decimal.Decimal
	Tax      TaxSplit
}

// TaxPolicy decides where tax figures come from. A deployment uses exactly
// one policy for every order.
type TaxPolicy interface {
	Name() string
	Line(order *model.ShopifyOrder, li model.LineItem) LineAmounts
	Shipping(order *model.ShopifyOrder) (charge, tax decimal.Decimal)
}

func NewTaxPolicy(cfg config.Tally) TaxPolicy {
	conv := NewConverter(cfg.Rate())
	if cfg.TaxPolicy == config.TaxPolicySource {
		return SourceTax{Converter: conv}
	}
	return FlatTax{Converter: conv, Percent: cfg.TaxRate()}
}

// FlatTax computes tax as a fixed percentage of the local amount, split
// evenly into CGST and SGST. IGST is always zero.
type FlatTax struct {
	Converter Converter
	Percent   decimal.Decimal
}

func (FlatTax) Name() string { return config.TaxPolicyFlat }

// Split returns a split whose total is round(amount * percent / 100, 2).
func (f FlatTax) Split(amount decimal.Decimal) TaxSplit {
	total := amount.Mul(f.Percent).Div(hundred).Round(2)
	half := total.Div(decimal.NewFromInt(2))
	return TaxSplit{CGST: half, SGST: half, IGST: decimal.Zero}
}

func (f FlatTax) Line(_ *model.ShopifyOrder, li model.LineItem) LineAmounts {
	qty := decimal.NewFromInt(int64(li.Quantity))
	discount := f.Converter.Convert(li.TotalDiscount.Decimal)
	amount := f.Converter.Convert(li.Price.Mul(qty)).Sub(discount)
	return LineAmounts{
		Rate:     f.Converter.Convert(li.Price.Decimal),
		Amount:   amount,
		Discount: discount,
		Tax:      f.Split(amount),
	}
}

func (f FlatTax) Shipping(o *model.ShopifyOrder) (decimal.Decimal, decimal.Decimal) {
	charge := decimal.Zero
	for _, sl := range o.ShippingLines {
		charge = charge.Add(f.Converter.Convert(sl.Price.Decimal))
	}
	return charge, f.Split(charge).Total()
}

// SourceTax trusts the tax lines already attached to the order. Tax lines are
// keyed by title; anything that is neither CGST nor SGST/UTGST counts as IGST.
type SourceTax struct {
	Converter Converter
}

func (SourceTax) Name() string { return config.TaxPolicySource }

func (s SourceTax) Split(lines []model.TaxLine) TaxSplit {
	split := TaxSplit{CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
	for _, tl := range lines {
		amount := s.Converter.Convert(tl.Price.Decimal)
		title := strings.ToUpper(tl.Title.String())
		switch {
		case strings.Contains(title, "CGST"):
			split.CGST = split.CGST.Add(amount)
		case strings.Contains(title, "SGST"), strings.Contains(title, "UTGST"):
			split.SGST = split.SGST.Add(amount)
		default:
			split.IGST = split.IGST.Add(amount)
		}
	}
	return split
}

func (s SourceTax) Line(o *model.ShopifyOrder, li model.LineItem) LineAmounts {
	qty := decimal.NewFromInt(int64(li.Quantity))
	discount := s.Converter.Convert(li.TotalDiscount.Decimal)
	gross := s.Converter.Convert(li.Price.Mul(qty)).Sub(discount)
	tax := s.Split(li.TaxLines)

	taxable, inclusive := gross, gross.Add(tax.Total())
	if o.TaxesIncluded {
		taxable, inclusive = gross.Sub(tax.Total()), gross
	}

	rate := decimal.Zero
	if !qty.IsZero() {
		rate = inclusive.Div(qty).Round(2)
	}
	return LineAmounts{Rate: rate, Amount: taxable, Discount: discount, Tax: tax}
}

func (s SourceTax) Shipping(o *model.ShopifyOrder) (decimal.Decimal, decimal.Decimal) {
	charge, tax := decimal.Zero, decimal.Zero
	for _, sl := range o.ShippingLines {
		charge = charge.Add(s.Converter.Convert(sl.Price.Decimal))
		tax = tax.Add(s.Split(sl.TaxLines).Total())
	}
	return charge, tax
}
