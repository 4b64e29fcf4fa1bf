package transform

import (
	"strings"

	"shopify-tally-integration/internal/model"
)

// Rule extracts one candidate value from an order document. An empty result
// means the source had nothing usable.
type Rule struct {
	Source  string
	Extract func(o *model.ShopifyOrder) string
}

// FirstMatch evaluates rules in order and returns the first non-empty value
// together with the name of the source that produced it.
func FirstMatch(rules []Rule, o *model.ShopifyOrder) (string, string, bool) {
	for _, rule := range rules {
		if v := strings.TrimSpace(rule.Extract(o)); v != "" {
			return v, rule.Source, true
		}
	}
	return "", "", false
}

var DefaultNameRules = []Rule{
	{Source: "customer", Extract: func(o *model.ShopifyOrder) string {
		if o.Customer == nil {
			return ""
		}
		return joinName(o.Customer.FirstName, o.Customer.LastName)
	}},
	{Source: "billing_address", Extract: func(o *model.ShopifyOrder) string { return addressName(o.BillingAddress) }},
	{Source: "shipping_address", Extract: func(o *model.ShopifyOrder) string { return addressName(o.ShippingAddress) }},
	{Source: "note_attribute", Extract: func(o *model.ShopifyOrder) string {
		return noteAttribute(o, "name", "customer name", "customer_name", "full name")
	}},
	{Source: "customer_email", Extract: customerEmail},
	{Source: "email", Extract: func(o *model.ShopifyOrder) string { return o.Email.String() }},
	{Source: "contact_email", Extract: func(o *model.ShopifyOrder) string { return o.ContactEmail.String() }},
}

var DefaultEmailRules = []Rule{
	{Source: "customer_email", Extract: customerEmail},
	{Source: "email", Extract: func(o *model.ShopifyOrder) string { return o.Email.String() }},
	{Source: "contact_email", Extract: func(o *model.ShopifyOrder) string { return o.ContactEmail.String() }},
	{Source: "billing_address", Extract: func(o *model.ShopifyOrder) string {
		if o.BillingAddress == nil {
			return ""
		}
		return o.BillingAddress.Email.String()
	}},
	{Source: "shipping_address", Extract: func(o *model.ShopifyOrder) string {
		if o.ShippingAddress == nil {
			return ""
		}
		return o.ShippingAddress.Email.String()
	}},
}

var DefaultPhoneRules = []Rule{
	{Source: "customer_phone", Extract: func(o *model.ShopifyOrder) string {
		if o.Customer == nil {
			return ""
		}
		return o.Customer.Phone.String()
	}},
	{Source: "phone", Extract: func(o *model.ShopifyOrder) string { return o.Phone.String() }},
	{Source: "billing_address", Extract: func(o *model.ShopifyOrder) string {
		if o.BillingAddress == nil {
			return ""
		}
		return o.BillingAddress.Phone.String()
	}},
	{Source: "shipping_address", Extract: func(o *model.ShopifyOrder) string {
		if o.ShippingAddress == nil {
			return ""
		}
		return o.ShippingAddress.Phone.String()
	}},
}

type Identity struct {
	Name       string
	NameSource string
	Email      *string
	Phone      *string
}

// CustomerResolver resolves the display name, email and phone of an order's
// buyer. The three chains are independent of each other.
type CustomerResolver struct {
	NameRules  []Rule
	EmailRules []Rule
	PhoneRules []Rule
	Fallback   string
}

func NewCustomerResolver(fallback string) *CustomerResolver {
	return &CustomerResolver{
		NameRules:  DefaultNameRules,
		EmailRules: DefaultEmailRules,
		PhoneRules: DefaultPhoneRules,
		Fallback:   fallback,
	}
}

func (r *CustomerResolver) Resolve(o *model.ShopifyOrder) Identity {
	id := Identity{Name: r.Fallback, NameSource: "fallback"}
	if name, source, ok := FirstMatch(r.NameRules, o); ok {
		id.Name = name
		id.NameSource = source
	}
	if email, _, ok := FirstMatch(r.EmailRules, o); ok {
		id.Email = &email
	}
	if phone, _, ok := FirstMatch(r.PhoneRules, o); ok {
		id.Phone = &phone
	}
	return id
}

func customerEmail(o *model.ShopifyOrder) string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Email.String()
}

func joinName(first, last model.FlexString) string {
	return strings.TrimSpace(strings.TrimSpace(string(first)) + " " + strings.TrimSpace(string(last)))
}

func addressName(a *model.Address) string {
	if a == nil {
		return ""
	}
	if name := joinName(a.FirstName, a.LastName); name != "" {
		return name
	}
	return a.Name.String()
}

func noteAttribute(o *model.ShopifyOrder, names ...string) string {
	for _, attr := range o.NoteAttributes {
		key := strings.ToLower(strings.TrimSpace(string(attr.Name)))
		for _, name := range names {
			if key == name {
				if v := strings.TrimSpace(string(attr.Value)); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
