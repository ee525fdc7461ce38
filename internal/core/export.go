package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/shopify"
)

// ExportHeader is the shared column schema of both export row sets.
var ExportHeader = []string{
	"Order Number",
	"Order Date",
	"Bill To Address",
	"Ship To Address",
	"Item Details",
	"Gross Total amount",
	"GST amount",
	"IGST amount",
	"CGST amount",
	"SGST amount",
	"Total (Excluding GST amount)",
	"Total (Including GST amount)",
	"Order Tags",
}

// Commerce is the subset of the downstream platform API the exporter
// reads from.
type Commerce interface {
	FetchOrders(ctx context.Context, windowStart, windowEnd time.Time) ([]shopify.Order, error)
	FetchCustomer(ctx context.Context, customerID int64) (*shopify.Customer, error)
}

// ExportResult holds the two emitted row sets. Row 0 of each table is
// the header. Rows are computed fresh on every run; nothing is
// incremental.
type ExportResult struct {
	Window   MonthWindow
	Normal   *ledger.Table
	Returned *ledger.Table
}

// Exporter builds the monthly GST export from the downstream order
// history, cross-referencing the reconciliation ledger (read-only) for
// customer display names.
type Exporter struct {
	commerce        Commerce
	store           ledger.Store
	names           OrderNames
	loc             *time.Location
	paidOnly        bool
	nameLookupLimit int
	log             *logrus.Logger
}

func NewExporter(commerce Commerce, store ledger.Store, names OrderNames, loc *time.Location, paidOnly bool, nameLookupLimit int, log *logrus.Logger) *Exporter {
	return &Exporter{
		commerce:        commerce,
		store:           store,
		names:           names,
		loc:             loc,
		paidOnly:        paidOnly,
		nameLookupLimit: nameLookupLimit,
		log:             log,
	}
}

// Run exports one calendar month: fetch the window, filter, classify
// returned vs normal, and build both row sets.
func (e *Exporter) Run(ctx context.Context, year int, month time.Month) (*ExportResult, error) {
	window, err := NewMonthWindow(year, month, e.loc)
	if err != nil {
		return nil, err
	}

	orders, err := e.commerce.FetchOrders(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("fetching export window: %w", err)
	}

	nameLookup, err := e.ledgerNameLookup(ctx)
	if err != nil {
		return nil, err
	}

	var normal, returned []shopify.Order
	for _, o := range orders {
		if !EligibleForExport(o, e.paidOnly) {
			continue
		}
		if IsReturnedOrder(o) {
			returned = append(returned, o)
		} else {
			normal = append(normal, o)
		}
	}

	// Customer lookups are cached for the whole run to bound API calls.
	cache := make(map[int64]*shopify.Customer)

	result := &ExportResult{
		Window:   window,
		Normal:   e.buildTable(ctx, normal, nameLookup, cache),
		Returned: e.buildTable(ctx, returned, nameLookup, cache),
	}
	e.log.WithFields(logrus.Fields{
		"month":   window.MonthName,
		"orders":  len(normal),
		"returns": len(returned),
		"fetched": len(orders),
	}).Info("gst export built")
	return result, nil
}

// ledgerNameLookup maps downstream display names to the customer name
// recorded in the reconciliation ledger.
func (e *Exporter) ledgerNameLookup(ctx context.Context) (map[string]string, error) {
	table, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ledger for name lookup: %w", err)
	}
	cols, err := table.ResolveColumns()
	if err != nil {
		return nil, err
	}
	return table.CustomerNameLookup(cols, e.nameLookupLimit, e.names.ToDisplay), nil
}

func (e *Exporter) resolveCustomer(ctx context.Context, o shopify.Order, cache map[int64]*shopify.Customer) *shopify.Customer {
	if o.Customer != nil && (o.Customer.FirstName != "" || o.Customer.LastName != "" || o.Customer.DefaultAddress != nil) {
		return o.Customer
	}
	var id int64
	if o.Customer != nil {
		id = o.Customer.ID
	}
	if id == 0 {
		return o.Customer
	}
	if cached, ok := cache[id]; ok {
		return cached
	}
	customer, err := e.commerce.FetchCustomer(ctx, id)
	if err != nil {
		e.log.WithField("customer", id).WithError(err).Warn("customer fetch failed")
		customer = o.Customer
	}
	cache[id] = customer
	return customer
}

func (e *Exporter) buildTable(ctx context.Context, orders []shopify.Order, nameLookup map[string]string, cache map[int64]*shopify.Customer) *ledger.Table {
	table := &ledger.Table{Header: append([]string(nil), ExportHeader...)}

	for _, o := range orders {
		gross, err := decimal.NewFromString(o.TotalPrice)
		if err != nil {
			e.log.WithField("order", o.Name).Warnf("skipping order: invalid total_price %q", o.TotalPrice)
			continue
		}

		orderName := e.names.EnsureDisplay(o.Name)
		orderDate := formatOrderDate(o.CreatedAt, e.loc)

		customer := e.resolveCustomer(ctx, o, cache)
		resolved := resolveAddresses(o, customer)

		billTo := formatAddress(resolved.billTo, customer)
		shipTo := formatAddress(resolved.shipTo, customer)
		if mapped := nameLookup[orderName]; mapped != "" {
			billTo = prependName(mapped, billTo)
			shipTo = prependName(mapped, shipTo)
		}

		b := ComputeGSTBreakdown(gross, billingState(resolved))

		table.Rows = append(table.Rows, []string{
			orderName,
			orderDate,
			billTo,
			shipTo,
			itemSummary(o.LineItems),
			gross.StringFixed(2),
			b.GST.StringFixed(2),
			blankIfZero(b.IGST),
			blankIfZero(b.CGST),
			blankIfZero(b.SGST),
			b.Net.StringFixed(2),
			gross.StringFixed(2),
			o.Tags,
		})
	}
	return table
}

func prependName(name, address string) string {
	if address == "" {
		return name
	}
	return name + ", " + address
}

// itemSummary concatenates "Title Variant xQty" for every line item.
func itemSummary(items []shopify.LineItem) string {
	var parts []string
	for _, li := range items {
		s := li.Title
		if v := li.VariantTitle; v != "" {
			s += " " + v
		}
		if li.Quantity > 0 {
			s += fmt.Sprintf(" x%d", li.Quantity)
		}
		parts = append(parts, s)
	}
	return joinNonEmpty(", ", parts...)
}

// formatOrderDate renders the platform timestamp as yyyy-MMM-dd in
// the export timezone, falling back to the raw value when unparsable.
func formatOrderDate(createdAt string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	return t.In(loc).Format("2006-Jan-02")
}

func blankIfZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
