package transform

import (
	"strings"
	"unicode"

	"shopify-tally-integration/internal/model"
)

// Keyword maps a lowercase substring to the channel label it implies.
type Keyword struct {
	Needle string
	Label  string
}

// DefaultKeywords is checked in order; the first needle found wins.
var DefaultKeywords = []Keyword{
	{"dtdc", "DTDC"},
	{"delhivery", "Delhivery"},
	{"bluedart", "Blue Dart"},
	{"blue dart", "Blue Dart"},
	{"xpressbees", "XpressBees"},
	{"ekart", "Ekart"},
	{"shiprocket", "Shiprocket"},
	{"ecom express", "Ecom Express"},
	{"shadowfax", "Shadowfax"},
	{"india post", "India Post"},
	{"indiapost", "India Post"},
	{"speed post", "India Post"},
	{"porter", "Porter"},
	{"dunzo", "Dunzo"},
	{"amazon", "Amazon"},
	{"flipkart", "Flipkart"},
	{"meesho", "Meesho"},
	{"myntra", "Myntra"},
	{"ajio", "Ajio"},
	{"instagram", "Instagram"},
	{"facebook", "Facebook"},
	{"fban", "Facebook"},
	{"fbav", "Facebook"},
	{"whatsapp", "WhatsApp"},
	{"wa.me", "WhatsApp"},
	{"youtube", "YouTube"},
	{"google", "Google"},
}

// explicit tag and attribute prefixes whose value is taken verbatim
var channelKeys = []string{"carrier", "courier", "channel", "delivery", "delivery channel", "delivery_channel", "delivery partner"}

// ChannelRule inspects one part of the order for a channel label.
type ChannelRule struct {
	Source string
	Match  func(o *model.ShopifyOrder, kw []Keyword) string
}

var DefaultChannelRules = []ChannelRule{
	{Source: "tags", Match: matchTags},
	{Source: "customer_journey", Match: matchJourney},
	{Source: "user_agent", Match: func(o *model.ShopifyOrder, kw []Keyword) string {
		if o.ClientDetails == nil {
			return ""
		}
		return matchKeywords(kw, o.ClientDetails.UserAgent.String())
	}},
	{Source: "landing_site", Match: func(o *model.ShopifyOrder, kw []Keyword) string {
		return matchKeywords(kw, o.LandingSite.String(), o.ReferringSite.String())
	}},
	{Source: "shipping_lines", Match: func(o *model.ShopifyOrder, kw []Keyword) string {
		for _, sl := range o.ShippingLines {
			if label := matchKeywords(kw, sl.Code.String(), sl.Title.String(), sl.CarrierIdentifier.String(), sl.Source.String()); label != "" {
				return label
			}
		}
		return ""
	}},
	{Source: "note_attributes", Match: matchNoteAttributes},
	{Source: "source_name", Match: func(o *model.ShopifyOrder, kw []Keyword) string {
		return matchKeywords(kw, o.SourceName.String())
	}},
	{Source: "note", Match: func(o *model.ShopifyOrder, kw []Keyword) string {
		return matchKeywords(kw, o.Note.String())
	}},
}

type Classification struct {
	PaymentMethod   string
	DeliveryChannel string
	ChannelSource   string
}

type Classifier struct {
	Rules    []ChannelRule
	Keywords []Keyword
	Fallback string
	Prefix   string
}

func NewClassifier(fallback, prefix string) *Classifier {
	return &Classifier{
		Rules:    DefaultChannelRules,
		Keywords: DefaultKeywords,
		Fallback: fallback,
		Prefix:   prefix,
	}
}

func (c *Classifier) Classify(o *model.ShopifyOrder) Classification {
	channel, source := c.Channel(o)
	return Classification{
		PaymentMethod:   Payment(o),
		DeliveryChannel: channel,
		ChannelSource:   source,
	}
}

// Channel returns the first label any rule produces, or the fallback.
func (c *Classifier) Channel(o *model.ShopifyOrder) (string, string) {
	for _, rule := range c.Rules {
		if label := strings.TrimSpace(rule.Match(o, c.Keywords)); label != "" {
			return label, rule.Source
		}
	}
	return c.Fallback, "fallback"
}

// VoucherType builds the composite ledger voucher type, e.g. Sales-COD-DTDC.
func (c *Classifier) VoucherType(payment, channel string) string {
	return c.Prefix + "-" + payment + "-" + channel
}

// Payment classifies an order as COD or Prepaid. Gateway, financial status
// and gateway names are checked in that order.
func Payment(o *model.ShopifyOrder) string {
	if isCash(o.Gateway.String()) {
		return model.PaymentCOD
	}

	status := strings.ToLower(strings.TrimSpace(o.FinancialStatus.String()))
	switch {
	case isCash(status):
		return model.PaymentCOD
	case status == "paid", status == "authorized", strings.HasPrefix(status, "partially"):
		// paid orders can still have been collected in cash
	case status == "pending", status == "unpaid":
		return model.PaymentCOD
	}

	for _, name := range o.PaymentGatewayNames {
		if isCash(name) {
			return model.PaymentCOD
		}
	}
	return model.PaymentPrepaid
}

// isCash matches "cash" or "cod" as whole words, so cash_on_delivery and
// "Cash on Delivery (COD)" match while a gateway like Cashfree does not.
func isCash(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if w == "cash" || w == "cod" {
			return true
		}
	}
	return false
}

func matchKeywords(kw []Keyword, texts ...string) string {
	for _, text := range texts {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		for _, k := range kw {
			if strings.Contains(lower, k.Needle) {
				return k.Label
			}
		}
	}
	return ""
}

// explicitValue returns v if key names a channel field.
func explicitValue(key, v string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, k := range channelKeys {
		if key == k {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func matchTags(o *model.ShopifyOrder, kw []Keyword) string {
	tags := []string(o.Tags)
	for _, tag := range tags {
		if key, value, ok := strings.Cut(tag, ":"); ok {
			if label := explicitValue(key, value); label != "" {
				return label
			}
		}
	}
	return matchKeywords(kw, tags...)
}

func matchJourney(o *model.ShopifyOrder, kw []Keyword) string {
	if o.CustomerJourney == nil {
		return ""
	}
	for _, visit := range []*model.Visit{o.CustomerJourney.FirstVisit, o.CustomerJourney.LastVisit} {
		if visit == nil {
			continue
		}
		texts := []string{visit.LandingPage.String(), visit.ReferrerURL.String(), visit.Source.String()}
		if utm := visit.UtmParameters; utm != nil {
			texts = append(texts, utm.Source.String(), utm.Medium.String(), utm.Campaign.String())
		}
		if label := matchKeywords(kw, texts...); label != "" {
			return label
		}
	}
	return ""
}

func matchNoteAttributes(o *model.ShopifyOrder, kw []Keyword) string {
	for _, attr := range o.NoteAttributes {
		if label := explicitValue(attr.Name.String(), attr.Value.String()); label != "" {
			return label
		}
	}
	for _, attr := range o.NoteAttributes {
		if label := matchKeywords(kw, attr.Value.String()); label != "" {
			return label
		}
	}
	return ""
}
