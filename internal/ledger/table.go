package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Column names as they appeared on the original sheet. Lookups are by
// header name; the historical fixed position of "Order No" survives
// only as its place in DefaultHeader.
const (
	ColOrderNo            = "Order No"
	ColStatus             = "Status"
	ColTrackingLink       = "TrackingLink"
	ColAWBNo              = "AwbNo"
	ColCourierPartner     = "CourierPartner"
	ColCustomerName       = "Customer Name"
	ColShopifyFulfillment = "ShopifyFulfillment"
)

// DefaultHeader is the ledger's column layout.
var DefaultHeader = []string{
	ColOrderNo,
	ColStatus,
	ColTrackingLink,
	ColAWBNo,
	ColCourierPartner,
	ColCustomerName,
	ColShopifyFulfillment,
}

// ErrColumnNotFound aborts a run before any row is processed; a
// missing required column is a configuration problem, not something to
// guess around.
var ErrColumnNotFound = errors.New("ledger column not found")

// Table is the raw tabular form of the ledger: a header row plus data
// rows of cell strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex resolves a column by header name.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// ReadCell returns the trimmed cell value, or "" when the row is
// ragged.
func (t *Table) ReadCell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Columns is the resolved index of every required ledger column.
// Resolving it up front makes a missing column fail the run before any
// row is touched.
type Columns struct {
	OrderNo            int
	Status             int
	TrackingLink       int
	AWBNo              int
	CourierPartner     int
	CustomerName       int
	ShopifyFulfillment int
}

// ResolveColumns locates all required columns or fails with
// ErrColumnNotFound.
func (t *Table) ResolveColumns() (Columns, error) {
	var cols Columns
	var err error
	if cols.OrderNo, err = t.ColumnIndex(ColOrderNo); err != nil {
		return cols, err
	}
	if cols.Status, err = t.ColumnIndex(ColStatus); err != nil {
		return cols, err
	}
	if cols.TrackingLink, err = t.ColumnIndex(ColTrackingLink); err != nil {
		return cols, err
	}
	if cols.AWBNo, err = t.ColumnIndex(ColAWBNo); err != nil {
		return cols, err
	}
	if cols.CourierPartner, err = t.ColumnIndex(ColCourierPartner); err != nil {
		return cols, err
	}
	if cols.CustomerName, err = t.ColumnIndex(ColCustomerName); err != nil {
		return cols, err
	}
	if cols.ShopifyFulfillment, err = t.ColumnIndex(ColShopifyFulfillment); err != nil {
		return cols, err
	}
	return cols, nil
}

// Row is the typed view of one ledger row. Index is its position in
// the table, used to address cell writes.
type Row struct {
	Index              int
	OrderNo            string
	Status             Status
	RawStatus          string
	TrackingLink       string
	AWBNo              string
	CourierPartner     string
	CustomerName       string
	ShopifyFulfillment string
}

// TypedRows converts the raw table into typed rows using the resolved
// columns. Order numbers are trimmed; status parsing is lenient (an
// unknown literal stays visible via RawStatus).
func (t *Table) TypedRows(cols Columns) []Row {
	rows := make([]Row, 0, len(t.Rows))
	for i := range t.Rows {
		raw := t.ReadCell(i, cols.Status)
		rows = append(rows, Row{
			Index:              i,
			OrderNo:            t.ReadCell(i, cols.OrderNo),
			Status:             ParseStatus(raw),
			RawStatus:          raw,
			TrackingLink:       t.ReadCell(i, cols.TrackingLink),
			AWBNo:              t.ReadCell(i, cols.AWBNo),
			CourierPartner:     t.ReadCell(i, cols.CourierPartner),
			CustomerName:       t.ReadCell(i, cols.CustomerName),
			ShopifyFulfillment: t.ReadCell(i, cols.ShopifyFulfillment),
		})
	}
	return rows
}

// CustomerNameLookup scans the last limit rows and returns a map of
// converted order number to customer name. convert maps the ledger's
// upstream order number to the downstream display name.
func (t *Table) CustomerNameLookup(cols Columns, limit int, convert func(string) string) map[string]string {
	lookup := make(map[string]string)
	start := 0
	if limit > 0 && len(t.Rows) > limit {
		start = len(t.Rows) - limit
	}
	for i := start; i < len(t.Rows); i++ {
		orderNo := t.ReadCell(i, cols.OrderNo)
		name := t.ReadCell(i, cols.CustomerName)
		if orderNo == "" || name == "" {
			continue
		}
		lookup[convert(orderNo)] = name
	}
	return lookup
}
