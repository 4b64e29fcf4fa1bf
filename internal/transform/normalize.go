package transform

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/model"
)

// Normalizer derives the stored order record from a Shopify order document.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	Customers  *CustomerResolver
	Classifier *Classifier
	Converter  Converter
	Tax        TaxPolicy

	localCurrency string
	source        string
}

func NewNormalizer(cfg config.Tally) *Normalizer {
	return &Normalizer{
		Customers:     NewCustomerResolver(cfg.FallbackName),
		Classifier:    NewClassifier(cfg.DefaultChannel, cfg.VoucherPrefix),
		Converter:     NewConverter(cfg.Rate()),
		Tax:           NewTaxPolicy(cfg),
		localCurrency: cfg.LocalCurrency,
		source:        cfg.Source,
	}
}

func (n *Normalizer) DefaultChannel() string {
	return n.Classifier.Fallback
}

// Normalize builds the order and its items. raw is stored verbatim.
func (n *Normalizer) Normalize(o *model.ShopifyOrder, raw []byte) (*model.Order, []model.OrderItem) {
	identity := n.Customers.Resolve(o)
	cls := n.Classifier.Classify(o)

	items := make([]model.OrderItem, 0, len(o.LineItems))
	taxable := decimal.Zero
	for i, li := range o.LineItems {
		amounts := n.Tax.Line(o, li)
		taxable = taxable.Add(amounts.Amount)
		items = append(items, model.OrderItem{
			ShopifyOrderID: o.ID.String(),
			Position:       i,
			Name:           li.DisplayName(),
			SKU:            li.SKU.String(),
			Quantity:       int(li.Quantity),
			Rate:           amounts.Rate,
			Amount:         amounts.Amount,
			Discount:       amounts.Discount,
			CGST:           amounts.Tax.CGST,
			SGST:           amounts.Tax.SGST,
			IGST:           amounts.Tax.IGST,
		})
	}
	shippingCharge, shippingTax := n.Tax.Shipping(o)

	orderNumber := o.OrderNumber.String()
	if orderNumber == "" {
		orderNumber = o.Name.String()
	}

	order := &model.Order{
		ShopifyOrderID:  o.ID.String(),
		OrderNumber:     orderNumber,
		OrderDate:       o.OrderDate(),
		CustomerName:    identity.Name,
		CustomerEmail:   identity.Email,
		CustomerPhone:   identity.Phone,
		Currency:        o.Currency.String(),
		LocalCurrency:   n.localCurrency,
		ExchangeRate:    n.Converter.Rate,
		TotalAmount:     n.Converter.Convert(o.TotalPrice.Decimal),
		TaxableAmount:   taxable,
		ShippingCharge:  shippingCharge,
		ShippingTax:     shippingTax,
		TaxPolicy:       n.Tax.Name(),
		PaymentMethod:   cls.PaymentMethod,
		DeliveryChannel: cls.DeliveryChannel,
		VoucherType:     n.Classifier.VoucherType(cls.PaymentMethod, cls.DeliveryChannel),
		Source:          n.source,
		RawPayload:      datatypes.JSON(raw),
	}
	return order, items
}

// Classify re-evaluates only the classification of o.
func (n *Normalizer) Classify(o *model.ShopifyOrder) Classification {
	return n.Classifier.Classify(o)
}

// ApplyClassification writes cls to order and recomputes its voucher type,
// honoring any manual override already on the order.
func (n *Normalizer) ApplyClassification(order *model.Order, cls Classification) {
	order.PaymentMethod = cls.PaymentMethod
	order.DeliveryChannel = cls.DeliveryChannel
	n.RefreshVoucherType(order)
}

func (n *Normalizer) RefreshVoucherType(order *model.Order) {
	order.VoucherType = n.Classifier.VoucherType(order.EffectivePayment(), order.EffectiveChannel())
}
