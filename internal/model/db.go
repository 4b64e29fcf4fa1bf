package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PaymentCOD     = "COD"
	PaymentPrepaid = "Prepaid"
)

// Order is the normalized record of one Shopify order. It is replaced
// wholesale on every delivery; manual overrides survive replacement.
type Order struct {
	ShopifyOrderID string `gorm:"primaryKey;size:32;not null"`
	OrderNumber    string `gorm:"size:32;index"`
	OrderDate      string `gorm:"size:10;index;not null"` // YYYY-MM-DD

	CustomerName  string  `gorm:"size:255;not null"`
	CustomerEmail *string `gorm:"size:255"`
	CustomerPhone *string `gorm:"size:64"`

	Currency       string          `gorm:"size:8;not null"` // source currency
	LocalCurrency  string          `gorm:"size:8;not null"`
	ExchangeRate   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"` // gross, local currency
	TaxableAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"` // tax exclusive
	ShippingCharge decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingTax    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxPolicy      string          `gorm:"size:16;not null"`

	PaymentMethod   string `gorm:"size:16;not null"`
	DeliveryChannel string `gorm:"size:64;index;not null"`
	ManualPayment   string `gorm:"size:16"`
	ManualChannel   string `gorm:"size:64"`
	VoucherType     string `gorm:"size:128;not null"`

	Source     string         `gorm:"size:32;not null"`
	RawPayload datatypes.JSON `gorm:"not null"`

	Items []OrderItem `gorm:"foreignKey:ShopifyOrderID;references:ShopifyOrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePayment returns the manual override when one is set.
func (o *Order) EffectivePayment() string {
	if o.ManualPayment != "" {
		return o.ManualPayment
	}
	return o.PaymentMethod
}

func (o *Order) EffectiveChannel() string {
	if o.ManualChannel != "" {
		return o.ManualChannel
	}
	return o.DeliveryChannel
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.shopify_order_id
	ShopifyOrderID string          `gorm:"size:32;index;not null"`
	Position       int             `gorm:"not null"`
	Name           string          `gorm:"size:255;not null"`
	SKU            string          `gorm:"size:64"`
	Quantity       int             `gorm:"not null"`
	Rate           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"` // tax exclusive, after discount
	Discount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST           decimal.Decimal `gorm:"column:cgst;type:decimal(18,3);not null"`
	SGST           decimal.Decimal `gorm:"column:sgst;type:decimal(18,3);not null"`
	IGST           decimal.Decimal `gorm:"column:igst;type:decimal(18,3);not null"`
}

// Shop holds the access token issued by the OAuth install flow.
type Shop struct {
	Domain      string `gorm:"primaryKey;size:255;not null"` // myshop.myshopify.com
	AccessToken string `gorm:"size:255"`
	Scope       string `gorm:"size:255"`
	State       string `gorm:"size:64"` // pending OAuth nonce
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type WebhookEvent struct {
	EventID        string `gorm:"primaryKey;size:128;not null"`
	Topic          string `gorm:"size:64;index"`
	ShopifyOrderID string `gorm:"size:32;index"`
	Status         string `gorm:"size:16;not null"` // processed, failed
	Error          string `gorm:"size:1024"`
	ProcessedAt    time.Time
	CreatedAt      time.Time
}
