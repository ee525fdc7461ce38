package core

import (
	"strings"

	"kc-order-sync/internal/shopify"
)

// IsReturnedOrder classifies a downstream order as returned. First
// matching rule wins:
//
//  1. a refund line item with restock_type "return" and quantity > 0;
//  2. financial status refunded/partially_refunded while the order
//     carries no refund records at all (fallback for incomplete data);
//  3. the tag string contains "return" (store convention).
//
// Refunds that exist but are all cancel/no_restock do NOT make the
// order returned, and a "voided" financial status is a cancelled
// authorization, not a return.
func IsReturnedOrder(o shopify.Order) bool {
	if len(o.Refunds) > 0 {
		for _, r := range o.Refunds {
			for _, item := range r.RefundLineItems {
				if strings.EqualFold(item.RestockType, "return") && item.Quantity > 0 {
					return true
				}
			}
		}
	}

	fs := strings.ToLower(strings.TrimSpace(o.FinancialStatus))
	if (fs == "refunded" || fs == "partially_refunded") && len(o.Refunds) == 0 {
		return true
	}

	return strings.Contains(strings.ToLower(o.Tags), "return")
}

// EligibleForExport drops cancelled orders and, when paidOnly is set,
// anything not paid or partially paid.
func EligibleForExport(o shopify.Order, paidOnly bool) bool {
	if o.CancelledAt != nil && *o.CancelledAt != "" {
		return false
	}
	if paidOnly {
		fs := strings.ToLower(strings.TrimSpace(o.FinancialStatus))
		if fs != "paid" && fs != "partially_paid" {
			return false
		}
	}
	return true
}
