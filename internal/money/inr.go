// Package money formats rupee amounts the way Indian customers read them.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	lakh  = decimal.NewFromInt(100_000)
	crore = decimal.NewFromInt(10_000_000)
)

// FormatINR renders a whole-rupee amount with lakh grouping, e.g. ₹2,75,000.
func FormatINR(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "₹" + Group(d.String())
}

// FormatINRCompact abbreviates lakhs and crores, e.g. ₹2.75L or ₹1.20Cr.
func FormatINRCompact(amount float64) string {
	d := decimal.NewFromFloat(amount)
	switch {
	case d.GreaterThanOrEqual(crore):
		return "₹" + d.Div(crore).StringFixed(2) + "Cr"
	case d.GreaterThanOrEqual(lakh):
		return "₹" + d.Div(lakh).StringFixed(2) + "L"
	}
	return FormatINR(amount)
}

// FormatNumber renders a plain number with lakh grouping and no currency symbol.
func FormatNumber(v float64) string {
	d := decimal.NewFromFloat(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.String()
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i:]
	}
	return sign + Group(s) + frac
}

// Group inserts Indian-system separators into a string of digits: the last three
// digits form one group and every two digits before them another.
func Group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
