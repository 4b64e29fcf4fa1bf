package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal that decodes from a JSON string, a JSON number, an empty
// string or null. Anything unparseable decodes to zero so a partially broken
// payload is still processed.
type Money struct {
	decimal.Decimal
}

// NewMoney parses s, yielding zero when s is not a number.
func NewMoney(s string) Money {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}
	}
	return Money{d}
}

func (m *Money) UnmarshalJSON(b []byte) error {
	*m = NewMoney(string(bytes.Trim(b, `"`)))
	return nil
}

// MarshalJSON writes a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func MoneyOf(d decimal.Decimal) Money {
	return Money{d}
}

// FlexID holds an identifier that may arrive as a JSON number or string.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	*f = FlexID(strings.TrimSpace(s))
	return nil
}

func (f FlexID) String() string { return string(f) }

// FlexInt is a quantity that may arrive as a number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(d.IntPart())
	return nil
}

// FlexString accepts any JSON scalar and keeps its text form. Objects and
// arrays decode to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	*f = FlexString(scalarText(b))
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexBool accepts true/false as a JSON boolean, a string or a number.
// Anything else decodes to false.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseBool(strings.ToLower(scalarText(b)))
	*f = FlexBool(err == nil && v)
	return nil
}

// FlexList is a list of strings that may arrive as a JSON array or as a
// single comma-separated string. Blank entries are dropped.
type FlexList []string

func (f *FlexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var parts []string
	if len(b) > 0 && b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err == nil {
			for _, item := range items {
				parts = append(parts, scalarText(item))
			}
		}
	} else {
		parts = strings.Split(scalarText(b), ",")
	}
	list := FlexList{}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	*f = list
	return nil
}

func scalarText(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || b[0] == '{' || b[0] == '[' {
		return ""
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
		return strings.Trim(string(b), `"`)
	}
	return string(b)
}
