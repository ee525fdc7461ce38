package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	rateLow       = decimal.NewFromFloat(0.05)
	rateHigh      = decimal.NewFromFloat(0.12)
	rateThreshold = decimal.NewFromInt(1000)
	one           = decimal.NewFromInt(1)
	two           = decimal.NewFromInt(2)
)

// GSTBreakdown is the reverse tax split for one order.
// Gross = Net + GST always holds, and IGST + CGST + SGST = GST.
type GSTBreakdown struct {
	Rate decimal.Decimal
	Net  decimal.Decimal
	GST  decimal.Decimal
	IGST decimal.Decimal
	CGST decimal.Decimal
	SGST decimal.Decimal
}

// isHomeState matches the store's home state by full name or 2-letter
// code, case-insensitively.
func isHomeState(state string) bool {
	s := strings.ToLower(strings.TrimSpace(state))
	return s == "gujarat" || s == "gj"
}

// ComputeGSTBreakdown reverse-calculates GST out of a gross total:
// 5% up to 1000 inclusive, 12% above; net = gross / (1 + rate)
// rounded to 2 decimals, gst = gross - net.
//
// Intra-state (home state Gujarat) sales split the tax into CGST and
// SGST halves, with the second half taking the rounding remainder so
// the sum stays exact. Every other billing state, missing or unknown
// included, records the full amount as IGST; the inter-state default
// for absent state data is deliberate.
func ComputeGSTBreakdown(gross decimal.Decimal, billState string) GSTBreakdown {
	rate := rateHigh
	if gross.Cmp(rateThreshold) <= 0 {
		rate = rateLow
	}

	net := gross.Div(one.Add(rate)).Round(2)
	gst := gross.Sub(net).Round(2)

	b := GSTBreakdown{Rate: rate, Net: net, GST: gst}
	if isHomeState(billState) {
		b.CGST = gst.Div(two).Round(2)
		b.SGST = gst.Sub(b.CGST)
	} else {
		b.IGST = gst
	}
	return b
}
