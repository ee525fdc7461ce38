// Package core holds the engine's decision logic: the status
// reconciler and the GST export pipeline. Decisions are computed as
// plain values first and applied to the ledger and the downstream
// platform afterwards, so the logic stays testable without a network.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/qikink"
)

// upstream status literals, compared verbatim against the API payload.
const (
	upstreamDelivered    = "Delivered"
	upstreamException    = "Exception"
	upstreamRTOInitiated = "RTO Initiated"
	upstreamReturned     = "Returned"
	paymentCOD           = "COD"
)

// ChangeKind discriminates planned changes.
type ChangeKind int

const (
	// KindStatus transitions an eligible row to Delivered and may carry
	// a mark-paid side effect for COD orders.
	KindStatus ChangeKind = iota
	// KindTracking overwrites the tracking columns from upstream.
	KindTracking
	// KindCustomerName writes the upstream customer name.
	KindCustomerName
	// KindExceptionAudit appends an ExceptionRTOCheck log entry without
	// touching the row.
	KindExceptionAudit
)

// Change is one planned mutation (or audit-only event) for a ledger
// row. Planning is pure; Apply performs the writes.
type Change struct {
	Kind     ChangeKind
	RowIndex int
	OrderNo  string

	OldStatus ledger.Status
	NewStatus ledger.Status
	MarkPaid  bool // delivered COD orders are marked paid downstream

	TrackingLink   string
	AWBNo          string
	CourierPartner string

	CustomerName string

	// UpstreamStatus and Notes feed the ExceptionRTOCheck entry.
	UpstreamStatus string
	Notes          string
}

// Downstream is the subset of the commerce platform API the reconciler
// writes to.
type Downstream interface {
	OrderIDByName(ctx context.Context, name string) (int64, error)
	MarkOrderPaid(ctx context.Context, orderID int64) error
}

// Reconciler merges fetched upstream orders into the ledger.
type Reconciler struct {
	store      ledger.Store
	audit      ledger.AuditLog
	downstream Downstream
	names      OrderNames
	log        *logrus.Logger
}

func NewReconciler(store ledger.Store, audit ledger.AuditLog, downstream Downstream, names OrderNames, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, audit: audit, downstream: downstream, names: names, log: log}
}

// matchKey normalizes an order number for matching.
func matchKey(orderNo string) string {
	return strings.ToLower(strings.TrimSpace(orderNo))
}

// indexUpstream builds the order-number lookup. Order numbers are
// unique upstream; if a duplicate ever appears the first in fetch
// order wins, deterministically.
func indexUpstream(orders []qikink.Order) map[string]*qikink.Order {
	byNumber := make(map[string]*qikink.Order, len(orders))
	for i := range orders {
		key := matchKey(orders[i].Number)
		if key == "" {
			continue
		}
		if _, seen := byNumber[key]; !seen {
			byNumber[key] = &orders[i]
		}
	}
	return byNumber
}

// Plan computes every change one reconciliation pass would make, in
// row order. It never mutates its inputs.
//
// Rules, per row:
//  1. eligible rows whose upstream status is Delivered transition to
//     Delivered (COD orders additionally get marked paid downstream);
//  2. any matched row with upstream tracking gets the tracking columns
//     overwritten when they differ;
//  3. any matched row gets the upstream customer name when it differs.
//
// A second pass over eligible rows emits audit-only ExceptionRTOCheck
// entries for upstream Exception / RTO Initiated / Returned statuses.
// Those entries are re-emitted on every pass on purpose.
func Plan(rows []ledger.Row, upstream []qikink.Order) []Change {
	byNumber := indexUpstream(upstream)
	var changes []Change

	for _, row := range rows {
		key := matchKey(row.OrderNo)
		if key == "" {
			continue
		}
		match := byNumber[key]
		if match == nil {
			continue
		}

		if row.Status.Eligible() && match.Status == upstreamDelivered {
			changes = append(changes, Change{
				Kind:      KindStatus,
				RowIndex:  row.Index,
				OrderNo:   row.OrderNo,
				OldStatus: row.Status,
				NewStatus: ledger.StatusDelivered,
				MarkPaid:  match.PaymentType == paymentCOD,
			})
		}

		if match.HasTracking() && match.Shipping.TrackingLink != "" {
			if row.TrackingLink != match.Shipping.TrackingLink ||
				row.AWBNo != *match.Shipping.AWB ||
				row.CourierPartner != match.Shipping.CourierName {
				changes = append(changes, Change{
					Kind:           KindTracking,
					RowIndex:       row.Index,
					OrderNo:        row.OrderNo,
					TrackingLink:   match.Shipping.TrackingLink,
					AWBNo:          *match.Shipping.AWB,
					CourierPartner: match.Shipping.CourierName,
				})
			}
		}

		if name := match.CustomerName(); name != "" && name != row.CustomerName {
			changes = append(changes, Change{
				Kind:         KindCustomerName,
				RowIndex:     row.Index,
				OrderNo:      row.OrderNo,
				CustomerName: name,
			})
		}
	}

	for _, row := range rows {
		key := matchKey(row.OrderNo)
		if key == "" || !row.Status.Eligible() {
			continue
		}
		match := byNumber[key]
		if match == nil {
			continue
		}
		switch match.Status {
		case upstreamException, upstreamRTOInitiated, upstreamReturned:
			changes = append(changes, Change{
				Kind:           KindExceptionAudit,
				RowIndex:       row.Index,
				OrderNo:        row.OrderNo,
				UpstreamStatus: match.Status,
				Notes:          match.Shipping.TrackingLink,
			})
		}
	}

	return changes
}

// RunSummary counts what a pass did.
type RunSummary struct {
	UpstreamOrders  int
	LedgerRows      int
	StatusUpdates   int
	TrackingUpdates int
	NameUpdates     int
	ExceptionAudits int
}

// Run executes one reconciliation pass: load the ledger, plan against
// the fetched upstream orders, apply. A missing column or a store
// failure aborts before any row is touched.
func (r *Reconciler) Run(ctx context.Context, upstream []qikink.Order) (*RunSummary, error) {
	table, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := table.ResolveColumns()
	if err != nil {
		return nil, err
	}
	rows := table.TypedRows(cols)

	changes := Plan(rows, upstream)
	summary := &RunSummary{UpstreamOrders: len(upstream), LedgerRows: len(rows)}

	for _, ch := range changes {
		if err := r.apply(ctx, cols, ch, summary); err != nil {
			return summary, err
		}
	}

	r.log.WithFields(logrus.Fields{
		"rows":     summary.LedgerRows,
		"status":   summary.StatusUpdates,
		"tracking": summary.TrackingUpdates,
		"names":    summary.NameUpdates,
		"audits":   summary.ExceptionAudits,
	}).Info("reconciliation pass complete")
	return summary, nil
}

func (r *Reconciler) apply(ctx context.Context, cols ledger.Columns, ch Change, summary *RunSummary) error {
	switch ch.Kind {
	case KindStatus:
		newStatus := ch.NewStatus.String()
		if err := r.store.WriteCell(ctx, ch.RowIndex, cols.Status, newStatus); err != nil {
			return err
		}
		notes := fmt.Sprintf("LEDGER -> changed status to '%s'; ", newStatus)
		if ch.MarkPaid {
			notes += "SHOPIFY -> " + r.markPaid(ctx, ch.OrderNo)
		}
		if err := r.audit.Append(ctx, ledger.LaneQikink, ch.OrderNo, ledger.ChangeStatusUpdate, ch.OldStatus.String(), newStatus, notes); err != nil {
			return err
		}
		summary.StatusUpdates++

	case KindTracking:
		if err := r.store.WriteCell(ctx, ch.RowIndex, cols.TrackingLink, ch.TrackingLink); err != nil {
			return err
		}
		if err := r.store.WriteCell(ctx, ch.RowIndex, cols.AWBNo, ch.AWBNo); err != nil {
			return err
		}
		if err := r.store.WriteCell(ctx, ch.RowIndex, cols.CourierPartner, ch.CourierPartner); err != nil {
			return err
		}
		summary.TrackingUpdates++

	case KindCustomerName:
		if err := r.store.WriteCell(ctx, ch.RowIndex, cols.CustomerName, ch.CustomerName); err != nil {
			return err
		}
		summary.NameUpdates++

	case KindExceptionAudit:
		if err := r.audit.Append(ctx, ledger.LaneQikink, ch.OrderNo, ledger.ChangeExceptionRTO, ch.UpstreamStatus, "", ch.Notes); err != nil {
			return err
		}
		summary.ExceptionAudits++
	}
	return nil
}

// markPaid records the sale transaction downstream. Failures are
// folded into the audit note; they never block the ledger transition.
func (r *Reconciler) markPaid(ctx context.Context, orderNo string) string {
	name := r.names.ToDisplay(orderNo)
	orderID, err := r.downstream.OrderIDByName(ctx, name)
	if err != nil {
		r.log.WithField("order", orderNo).WithError(err).Warn("mark-paid lookup failed")
		return fmt.Sprintf("ERROR: %v", err)
	}
	if orderID == 0 {
		return fmt.Sprintf("ERROR: unable to fetch order id for name=%s", name)
	}
	if err := r.downstream.MarkOrderPaid(ctx, orderID); err != nil {
		r.log.WithField("order", orderNo).WithError(err).Warn("mark-paid failed")
		return fmt.Sprintf("ERROR: %v", err)
	}
	return fmt.Sprintf("order %d marked paid", orderID)
}
