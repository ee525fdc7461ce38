package core

import (
	"strings"

	"kc-order-sync/internal/shopify"
)

// resolvedAddresses carries the outcome of billing/shipping identity
// resolution for one order.
type resolvedAddresses struct {
	customer *shopify.Customer
	billTo   *shopify.Address
	shipTo   *shopify.Address
}

// resolveAddresses picks billing and shipping addresses by preference:
// billing: order billing -> customer default -> order shipping;
// shipping: order shipping -> order billing -> customer default.
func resolveAddresses(o shopify.Order, customer *shopify.Customer) resolvedAddresses {
	var customerDefault *shopify.Address
	if customer != nil {
		customerDefault = customer.DefaultAddress
	}

	bill := firstAddress(o.BillingAddress, customerDefault, o.ShippingAddress)
	ship := firstAddress(o.ShippingAddress, o.BillingAddress, customerDefault)
	return resolvedAddresses{customer: customer, billTo: bill, shipTo: ship}
}

func firstAddress(candidates ...*shopify.Address) *shopify.Address {
	for _, a := range candidates {
		if a != nil {
			return a
		}
	}
	return nil
}

// billingState derives the state used for the GST split: the bill-to
// province (name or code), falling back to the customer's default
// address.
func billingState(r resolvedAddresses) string {
	if r.billTo != nil {
		if s := firstNonEmpty(r.billTo.Province, r.billTo.ProvinceCode); s != "" {
			return s
		}
	}
	if r.customer != nil && r.customer.DefaultAddress != nil {
		return firstNonEmpty(r.customer.DefaultAddress.Province, r.customer.DefaultAddress.ProvinceCode)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func customerFullName(c *shopify.Customer) string {
	if c == nil {
		return ""
	}
	return joinNonEmpty(" ", c.FirstName, c.LastName)
}

func addressFullName(a *shopify.Address) string {
	if a == nil {
		return ""
	}
	if n := strings.TrimSpace(a.Name); n != "" {
		return n
	}
	return joinNonEmpty(" ", a.FirstName, a.LastName)
}

func joinNonEmpty(sep string, values ...string) string {
	var parts []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// formatAddress renders "Name, Company, Address1, Address2, City,
// State, Zip, Country, Phone", dropping blanks and case-insensitive
// duplicates.
func formatAddress(a *shopify.Address, customer *shopify.Customer) string {
	leadName := customerFullName(customer)
	if leadName == "" {
		leadName = addressFullName(a)
	}

	var province string
	if a != nil {
		province = firstNonEmpty(a.Province, a.ProvinceCode)
	}
	parts := []string{leadName}
	if a != nil {
		parts = append(parts, a.Company, a.Address1, a.Address2, a.City, province, a.Zip, a.Country, a.Phone)
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return strings.Join(out, ", ")
}
