package transform

import (
	"github.com/shopspring/decimal"

	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/model"
)

// BuildVoucher projects a stored order and its items into the ledger shape.
// Summary figures are recomputed from the items; the narration and source
// total come from the retained raw document.
func BuildVoucher(order *model.Order) *dto.Voucher {
	var (
		gross    = decimal.Zero
		discount = decimal.Zero
		net      = decimal.Zero
		tax      = TaxSplit{CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
	)

	items := make([]dto.VoucherItem, 0, len(order.Items))
	for _, item := range order.Items {
		gross = gross.Add(item.Amount).Add(item.Discount)
		discount = discount.Add(item.Discount)
		net = net.Add(item.Amount)
		tax = tax.Add(TaxSplit{CGST: item.CGST, SGST: item.SGST, IGST: item.IGST})

		items = append(items, dto.VoucherItem{
			ItemName: item.Name,
			SKU:      item.SKU,
			Quantity: model.FlexInt(item.Quantity),
			Rate:     model.MoneyOf(item.Rate),
			Amount:   model.MoneyOf(item.Amount),
			Discount: model.MoneyOf(item.Discount),
			GST: dto.GST{
				CGST: model.MoneyOf(item.CGST),
				SGST: model.MoneyOf(item.SGST),
				IGST: model.MoneyOf(item.IGST),
			},
		})
	}

	inclusive := net.Add(tax.Total())
	grand := inclusive.Add(order.ShippingCharge).Add(order.ShippingTax)

	v := &dto.Voucher{
		VoucherType:   order.VoucherType,
		VoucherNumber: order.OrderNumber,
		VoucherDate:   order.OrderDate,
		Customer: dto.Customer{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		},
		Items: items,
		GST: dto.GST{
			CGST: model.MoneyOf(tax.CGST),
			SGST: model.MoneyOf(tax.SGST),
			IGST: model.MoneyOf(tax.IGST),
		},
		Summary: dto.VoucherSummary{
			GrossTotal:        model.MoneyOf(gross),
			DiscountTotal:     model.MoneyOf(discount),
			NetTotal:          model.MoneyOf(net),
			TaxableTotal:      model.MoneyOf(net),
			TaxTotal:          model.MoneyOf(tax.Total()),
			TaxInclusiveTotal: model.MoneyOf(inclusive),
			ShippingCharge:    model.MoneyOf(order.ShippingCharge),
			ShippingTax:       model.MoneyOf(order.ShippingTax),
			GrandTotal:        model.MoneyOf(grand),
		},
		TotalAmount:     model.MoneyOf(order.TotalAmount),
		Currency:        order.LocalCurrency,
		SourceCurrency:  order.Currency,
		ExchangeRate:    model.MoneyOf(order.ExchangeRate),
		PaymentMethod:   order.EffectivePayment(),
		DeliveryChannel: order.EffectiveChannel(),
		TaxPolicy:       order.TaxPolicy,
		Source:          order.Source,
		ShopifyOrderID:  order.ShopifyOrderID,
	}

	if doc, err := model.ParseShopifyOrder(order.RawPayload); err == nil {
		v.Narration = doc.Note.String()
		v.SourceTotal = doc.TotalPrice
	}
	return v
}
