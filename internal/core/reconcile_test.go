package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/qikink"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memStore is an in-memory ledger.Store backed by a Table.
type memStore struct {
	table *ledger.Table
}

func newMemStore(rows ...[]string) *memStore {
	t := &ledger.Table{Header: append([]string(nil), ledger.DefaultHeader...)}
	t.Rows = append(t.Rows, rows...)
	return &memStore{table: t}
}

// row builds a ledger row in DefaultHeader order:
// order no, status, tracking link, awb, courier, customer, fulfillment.
func row(orderNo, status, tracking, awb, courier, customer, fulfillment string) []string {
	return []string{orderNo, status, tracking, awb, courier, customer, fulfillment}
}

func (m *memStore) LoadAll(ctx context.Context) (*ledger.Table, error) {
	return m.table, nil
}

func (m *memStore) WriteCell(ctx context.Context, row, col int, value string) error {
	m.table.Rows[row][col] = value
	return nil
}

func (m *memStore) AppendRow(ctx context.Context, values []string) error {
	m.table.Rows = append(m.table.Rows, append([]string(nil), values...))
	return nil
}

type auditRecord struct {
	Lane       string
	OrderID    string
	ChangeType ledger.ChangeType
	OldState   string
	NewState   string
	Notes      string
}

type memAudit struct {
	entries []auditRecord
}

func (a *memAudit) Append(ctx context.Context, lane, orderID string, changeType ledger.ChangeType, oldState, newState, notes string) error {
	a.entries = append(a.entries, auditRecord{lane, orderID, changeType, oldState, newState, notes})
	return nil
}

func (a *memAudit) byType(ct ledger.ChangeType) []auditRecord {
	var out []auditRecord
	for _, e := range a.entries {
		if e.ChangeType == ct {
			out = append(out, e)
		}
	}
	return out
}

// fakeDownstream resolves order names to ids and records mark-paid
// calls. Errors are injected per method.
type fakeDownstream struct {
	ids       map[string]int64
	paid      []int64
	lookupErr error
	markErr   error
}

func (f *fakeDownstream) OrderIDByName(ctx context.Context, name string) (int64, error) {
	if f.lookupErr != nil {
		return 0, f.lookupErr
	}
	return f.ids[name], nil
}

func (f *fakeDownstream) MarkOrderPaid(ctx context.Context, orderID int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.paid = append(f.paid, orderID)
	return nil
}

func typedRows(t *testing.T, table *ledger.Table) []ledger.Row {
	t.Helper()
	cols, err := table.ResolveColumns()
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	return table.TypedRows(cols)
}

func deliveredOrder(number, payment string) qikink.Order {
	awb := "AWB123"
	return qikink.Order{
		Number:      number,
		Status:      "Delivered",
		PaymentType: payment,
		Shipping: qikink.Shipping{
			FirstName:    "Asha",
			LastName:     "Patel",
			CourierName:  "Delhivery",
			AWB:          &awb,
			TrackingLink: "https://track.example/AWB123",
		},
	}
}

func TestPlanStatusTransition(t *testing.T) {
	store := newMemStore(
		row("172086_4848", "", "", "", "", "", ""),
		row("172086_4849", "Prepaid", "", "", "", "", ""),
		row("172086_4850", "Delivered", "", "", "", "", ""),
	)
	upstream := []qikink.Order{
		deliveredOrder("172086_4848", "COD"),
		deliveredOrder("172086_4849", "Prepaid"),
		deliveredOrder("172086_4850", "COD"),
	}

	changes := Plan(typedRows(t, store.table), upstream)

	var statusChanges []Change
	for _, ch := range changes {
		if ch.Kind == KindStatus {
			statusChanges = append(statusChanges, ch)
		}
	}
	if len(statusChanges) != 2 {
		t.Fatalf("status changes = %d, want 2 (settled row must not transition)", len(statusChanges))
	}
	if !statusChanges[0].MarkPaid {
		t.Errorf("COD order should carry MarkPaid")
	}
	if statusChanges[1].MarkPaid {
		t.Errorf("prepaid order should not carry MarkPaid")
	}
	if statusChanges[0].NewStatus != ledger.StatusDelivered {
		t.Errorf("NewStatus = %v, want Delivered", statusChanges[0].NewStatus)
	}
}

func TestPlanTrackingAndName(t *testing.T) {
	store := newMemStore(
		// stale tracking and name
		row("172086_4848", "Delivered", "https://old", "OLD1", "OldCourier", "Old Name", ""),
		// already current
		row("172086_4849", "Delivered", "https://track.example/AWB123", "AWB123", "Delhivery", "Asha Patel", ""),
	)
	upstream := []qikink.Order{
		deliveredOrder("172086_4848", "Prepaid"),
		deliveredOrder("172086_4849", "Prepaid"),
	}

	changes := Plan(typedRows(t, store.table), upstream)

	var tracking, names int
	for _, ch := range changes {
		switch ch.Kind {
		case KindTracking:
			tracking++
			if ch.RowIndex != 0 {
				t.Errorf("tracking change on row %d, want 0", ch.RowIndex)
			}
			if ch.AWBNo != "AWB123" || ch.CourierPartner != "Delhivery" {
				t.Errorf("tracking change = %+v", ch)
			}
		case KindCustomerName:
			names++
			if ch.CustomerName != "Asha Patel" {
				t.Errorf("CustomerName = %q", ch.CustomerName)
			}
		}
	}
	if tracking != 1 {
		t.Errorf("tracking changes = %d, want 1 (current row must not rewrite)", tracking)
	}
	if names != 1 {
		t.Errorf("name changes = %d, want 1", names)
	}
}

func TestPlanExceptionAuditRepeats(t *testing.T) {
	store := newMemStore(
		row("172086_4848", "Prepaid", "", "", "", "", ""),
		row("172086_4849", "Delivered", "", "", "", "", ""),
	)
	upstream := []qikink.Order{
		{Number: "172086_4848", Status: "RTO Initiated"},
		{Number: "172086_4849", Status: "Exception"},
	}

	first := exceptionAudits(Plan(typedRows(t, store.table), upstream))
	if len(first) != 1 {
		t.Fatalf("exception audits = %d, want 1 (settled rows are not re-checked)", len(first))
	}
	if first[0].UpstreamStatus != "RTO Initiated" {
		t.Errorf("UpstreamStatus = %q", first[0].UpstreamStatus)
	}

	// Same inputs again: the audit is planned again by design.
	second := exceptionAudits(Plan(typedRows(t, store.table), upstream))
	if len(second) != 1 {
		t.Errorf("second pass exception audits = %d, want 1", len(second))
	}
}

func exceptionAudits(changes []Change) []Change {
	var out []Change
	for _, ch := range changes {
		if ch.Kind == KindExceptionAudit {
			out = append(out, ch)
		}
	}
	return out
}

func TestPlanSkipsUnmatchedAndBlankRows(t *testing.T) {
	store := newMemStore(
		row("", "Prepaid", "", "", "", "", ""),
		row("172086_9999", "Prepaid", "", "", "", "", ""),
	)
	upstream := []qikink.Order{deliveredOrder("172086_4848", "COD")}

	if changes := Plan(typedRows(t, store.table), upstream); len(changes) != 0 {
		t.Errorf("changes = %d, want 0", len(changes))
	}
}

func TestPlanMatchIsCaseAndSpaceInsensitive(t *testing.T) {
	store := newMemStore(row("  172086_4848  ", "Prepaid", "", "", "", "", ""))
	upstream := []qikink.Order{deliveredOrder("172086_4848", "Prepaid")}

	rows := typedRows(t, store.table)
	changes := Plan(rows, upstream)
	if len(changes) == 0 {
		t.Fatal("expected changes for whitespace-padded order number")
	}
}

func TestRunAppliesAndConverges(t *testing.T) {
	store := newMemStore(
		row("172086_4848", "", "", "", "", "", ""),
	)
	audit := &memAudit{}
	shop := &fakeDownstream{ids: map[string]int64{"#KC4848": 777}}
	names := OrderNames{UpstreamPrefix: "172086_", DisplayPrefix: "#KC"}
	r := NewReconciler(store, audit, shop, names, discardLogger())

	upstream := []qikink.Order{deliveredOrder("172086_4848", "COD")}

	summary, err := r.Run(context.Background(), upstream)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.StatusUpdates != 1 || summary.TrackingUpdates != 1 || summary.NameUpdates != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	if got := store.table.Rows[0][1]; got != "Delivered" {
		t.Errorf("status cell = %q, want Delivered", got)
	}
	if got := store.table.Rows[0][3]; got != "AWB123" {
		t.Errorf("awb cell = %q", got)
	}
	if len(shop.paid) != 1 || shop.paid[0] != 777 {
		t.Errorf("mark-paid calls = %v, want [777]", shop.paid)
	}

	statusLogs := audit.byType(ledger.ChangeStatusUpdate)
	if len(statusLogs) != 1 {
		t.Fatalf("status audit entries = %d, want 1", len(statusLogs))
	}
	entry := statusLogs[0]
	if entry.Lane != ledger.LaneQikink || entry.NewState != "Delivered" {
		t.Errorf("audit entry = %+v", entry)
	}
	if !strings.Contains(entry.Notes, "marked paid") {
		t.Errorf("audit notes = %q, want mark-paid outcome", entry.Notes)
	}

	// Second pass over the updated ledger plans nothing.
	summary, err = r.Run(context.Background(), upstream)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.StatusUpdates != 0 || summary.TrackingUpdates != 0 || summary.NameUpdates != 0 {
		t.Errorf("second pass summary = %+v, want no mutations", summary)
	}
}

func TestRunMarkPaidFailureDoesNotBlockTransition(t *testing.T) {
	store := newMemStore(row("172086_4848", "", "", "", "", "", ""))
	audit := &memAudit{}
	shop := &fakeDownstream{markErr: errors.New("payment gateway down")}
	names := OrderNames{UpstreamPrefix: "172086_", DisplayPrefix: "#KC"}
	r := NewReconciler(store, audit, shop, names, discardLogger())

	order := deliveredOrder("172086_4848", "COD")
	order.Shipping.TrackingLink = ""
	order.Shipping.AWB = nil
	order.Shipping.FirstName = ""
	order.Shipping.LastName = ""

	if _, err := r.Run(context.Background(), []qikink.Order{order}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := store.table.Rows[0][1]; got != "Delivered" {
		t.Errorf("status cell = %q, want Delivered despite mark-paid failure", got)
	}
	logs := audit.byType(ledger.ChangeStatusUpdate)
	if len(logs) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(logs))
	}
	if !strings.Contains(logs[0].Notes, "ERROR") {
		t.Errorf("audit notes = %q, want embedded error", logs[0].Notes)
	}
}

func TestRunEmitsExceptionAuditEveryPass(t *testing.T) {
	store := newMemStore(row("172086_4848", "Prepaid", "", "", "", "", ""))
	audit := &memAudit{}
	names := OrderNames{UpstreamPrefix: "172086_", DisplayPrefix: "#KC"}
	r := NewReconciler(store, audit, &fakeDownstream{}, names, discardLogger())

	upstream := []qikink.Order{{Number: "172086_4848", Status: "Returned"}}

	for pass := 0; pass < 2; pass++ {
		if _, err := r.Run(context.Background(), upstream); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
	}
	if got := len(audit.byType(ledger.ChangeExceptionRTO)); got != 2 {
		t.Errorf("ExceptionRTOCheck entries = %d, want one per pass", got)
	}
}
