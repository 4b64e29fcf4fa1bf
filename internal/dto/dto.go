package dto

import "shopify-tally-integration/internal/model"

type DateRange struct {
	FromDate string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate   string `json:"to_date" validate:"required,datetime=2006-01-02"`
}

type Customer struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type GST struct {
	CGST model.Money `json:"cgst"`
	SGST model.Money `json:"sgst"`
	IGST model.Money `json:"igst"`
}

type VoucherItem struct {
	ItemName string        `json:"item_name" validate:"required"`
	SKU      string        `json:"sku,omitempty"`
	Quantity model.FlexInt `json:"quantity" validate:"gt=0"`
	Rate     model.Money   `json:"rate"`
	Amount   model.Money   `json:"amount"`
	Discount model.Money   `json:"discount"`
	GST      GST           `json:"gst"`
}

type VoucherSummary struct {
	GrossTotal        model.Money `json:"gross_total"`
	DiscountTotal     model.Money `json:"discount_total"`
	NetTotal          model.Money `json:"net_total"`
	TaxableTotal      model.Money `json:"taxable_total"`
	TaxTotal          model.Money `json:"tax_total"`
	TaxInclusiveTotal model.Money `json:"tax_inclusive_total"`
	ShippingCharge    model.Money `json:"shipping_charge"`
	ShippingTax       model.Money `json:"shipping_tax"`
	GrandTotal        model.Money `json:"grand_total"`
}

// Voucher is the ledger-side shape of one order. It is produced by the
// order query and accepted by the push endpoint.
type Voucher struct {
	VoucherType     string         `json:"voucher_type"`
	VoucherNumber   string         `json:"voucher_number"`
	VoucherDate     string         `json:"voucher_date"`
	Customer        Customer       `json:"customer"`
	Items           []VoucherItem  `json:"items" validate:"required,min=1,dive"`
	GST             GST            `json:"gst"`
	Summary         VoucherSummary `json:"summary"`
	TotalAmount     model.Money    `json:"total_amount"`
	SourceTotal     model.Money    `json:"source_total"`
	Currency        string         `json:"currency"`
	SourceCurrency  string         `json:"source_currency"`
	ExchangeRate    model.Money    `json:"exchange_rate"`
	PaymentMethod   string         `json:"payment_method"`
	DeliveryChannel string         `json:"delivery_channel"`
	TaxPolicy       string         `json:"tax_policy"`
	Narration       string         `json:"narration,omitempty"`
	Source          string         `json:"source"`
	ShopifyOrderID  string         `json:"shopify_order_id"`
}

type OrdersResponse struct {
	Orders []*Voucher `json:"orders"`
}

type PushResponse struct {
	ShopifyOrderID string `json:"shopify_order_id"`
}

type ClassificationOverride struct {
	ShopifyOrderID  string `json:"shopify_order_id" validate:"required_without=OrderNumber"`
	OrderNumber     string `json:"order_number" validate:"required_without=ShopifyOrderID"`
	DeliveryChannel string `json:"delivery_channel" validate:"required_without=PaymentMethod"`
	PaymentMethod   string `json:"payment_method" validate:"omitempty,oneof=COD Prepaid"`
}

type BatchOverrideRequest struct {
	Overrides []ClassificationOverride `json:"overrides" validate:"required,min=1,dive"`
}

type OverrideResponse struct {
	ShopifyOrderID  string `json:"shopify_order_id"`
	OrderNumber     string `json:"order_number"`
	PaymentMethod   string `json:"payment_method"`
	DeliveryChannel string `json:"delivery_channel"`
	VoucherType     string `json:"voucher_type"`
}

type BatchOverrideResponse struct {
	Updated  []*OverrideResponse `json:"updated"`
	NotFound []string            `json:"not_found"`
}

type SyncResponse struct {
	FromDate string   `json:"from_date"`
	ToDate   string   `json:"to_date"`
	Fetched  int      `json:"fetched"`
	Ingested int      `json:"ingested"`
	Failed   []string `json:"failed"`
}

type ReclassifyResponse struct {
	Checked int                 `json:"checked"`
	Changed []*OverrideResponse `json:"changed"`
	Failed  []string            `json:"failed,omitempty"`
}

// ShopifyOrderCreate is the Admin API body for POST /orders.json.
type ShopifyOrderCreate struct {
	Order ShopifyNewOrder `json:"order"`
}

type ShopifyNewOrder struct {
	Email           string              `json:"email,omitempty"`
	FinancialStatus string              `json:"financial_status"`
	Currency        string              `json:"currency,omitempty"`
	Note            string              `json:"note,omitempty"`
	Tags            string              `json:"tags,omitempty"`
	LineItems       []ShopifyNewItem    `json:"line_items"`
	Customer        *ShopifyNewCustomer `json:"customer,omitempty"`
}

type ShopifyNewItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type ShopifyNewCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}
