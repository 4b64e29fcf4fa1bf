package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ShopifyOrder is the subset of the Admin API order document this service
// reads. Every field is optional.
type ShopifyOrder struct {
	ID                  FlexID           `json:"id"`
	OrderNumber         FlexID           `json:"order_number"`
	Name                FlexString       `json:"name"`
	CreatedAt           FlexString       `json:"created_at"`
	Currency            FlexString       `json:"currency"`
	TotalPrice          Money            `json:"total_price"`
	SubtotalPrice       Money            `json:"subtotal_price"`
	TotalTax            Money            `json:"total_tax"`
	TotalDiscounts      Money            `json:"total_discounts"`
	TaxesIncluded       FlexBool         `json:"taxes_included"`
	Email               FlexString       `json:"email"`
	ContactEmail        FlexString       `json:"contact_email"`
	Phone               FlexString       `json:"phone"`
	FinancialStatus     FlexString       `json:"financial_status"`
	Gateway             FlexString       `json:"gateway"`
	PaymentGatewayNames FlexList         `json:"payment_gateway_names"`
	Tags                FlexList         `json:"tags"`
	Note                FlexString       `json:"note"`
	NoteAttributes      []NoteAttribute  `json:"note_attributes"`
	SourceName          FlexString       `json:"source_name"`
	LandingSite         FlexString       `json:"landing_site"`
	ReferringSite       FlexString       `json:"referring_site"`
	ClientDetails       *ClientDetails   `json:"client_details"`
	CustomerJourney     *Journey         `json:"customer_journey_summary"`
	Customer            *ShopifyCustomer `json:"customer"`
	BillingAddress      *Address         `json:"billing_address"`
	ShippingAddress     *Address         `json:"shipping_address"`
	LineItems           []LineItem       `json:"line_items"`
	ShippingLines       []ShippingLine   `json:"shipping_lines"`
}

type ShopifyCustomer struct {
	ID        FlexID     `json:"id"`
	FirstName FlexString `json:"first_name"`
	LastName  FlexString `json:"last_name"`
	Email     FlexString `json:"email"`
	Phone     FlexString `json:"phone"`
}

// HasIdentity reports whether the customer sub-record carries anything
// beyond its id.
func (c *ShopifyCustomer) HasIdentity() bool {
	return strings.TrimSpace(string(c.FirstName+c.LastName+c.Email+c.Phone)) != ""
}

type Address struct {
	FirstName FlexString `json:"first_name"`
	LastName  FlexString `json:"last_name"`
	Name      FlexString `json:"name"`
	Phone     FlexString `json:"phone"`
	Email     FlexString `json:"email"`
}

type NoteAttribute struct {
	Name  FlexString `json:"name"`
	Value FlexString `json:"value"`
}

type ClientDetails struct {
	UserAgent FlexString `json:"user_agent"`
	BrowserIP FlexString `json:"browser_ip"`
}

type Journey struct {
	FirstVisit *Visit `json:"first_visit"`
	LastVisit  *Visit `json:"last_visit"`
}

type Visit struct {
	LandingPage   FlexString     `json:"landing_page"`
	ReferrerURL   FlexString     `json:"referrer_url"`
	Source        FlexString     `json:"source"`
	UtmParameters *UtmParameters `json:"utm_parameters"`
}

type UtmParameters struct {
	Source   FlexString `json:"source"`
	Medium   FlexString `json:"medium"`
	Campaign FlexString `json:"campaign"`
}

type LineItem struct {
	ID            FlexID     `json:"id"`
	Title         FlexString `json:"title"`
	Name          FlexString `json:"name"`
	SKU           FlexString `json:"sku"`
	Quantity      FlexInt    `json:"quantity"`
	Price         Money      `json:"price"`
	TotalDiscount Money      `json:"total_discount"`
	TaxLines      []TaxLine  `json:"tax_lines"`
}

// DisplayName prefers the variant-qualified name over the product title.
func (li LineItem) DisplayName() string {
	if li.Name != "" {
		return li.Name.String()
	}
	return li.Title.String()
}

type TaxLine struct {
	Title FlexString `json:"title"`
	Price Money      `json:"price"`
	Rate  Money      `json:"rate"`
}

type ShippingLine struct {
	Title             FlexString `json:"title"`
	Code              FlexString `json:"code"`
	Source            FlexString `json:"source"`
	CarrierIdentifier FlexString `json:"carrier_identifier"`
	Price             Money      `json:"price"`
	TaxLines          []TaxLine  `json:"tax_lines"`
}

// ParseShopifyOrder decodes a raw order document. A document wrapped in an
// {"order": {...}} envelope is unwrapped.
func ParseShopifyOrder(raw []byte) (*ShopifyOrder, error) {
	var envelope struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Order) > 0 && string(envelope.Order) != "null" {
		raw = envelope.Order
	}

	// A field of an unexpected type is left at its zero value; the rest of
	// the document is still decoded.
	var order ShopifyOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, err
		}
	}
	return &order, nil
}

// OrderDate truncates created_at to a calendar day in the timezone the
// timestamp was written in.
func (o *ShopifyOrder) OrderDate() string {
	created := o.CreatedAt.String()
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(created) >= 10 {
		return created[:10]
	}
	return ""
}

// ShopifyToken is the OAuth access token response.
type ShopifyToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
