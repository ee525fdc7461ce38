package core

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/qikink"
)

// orderSuffix extracts the numeric part of an upstream order number
// ("172086_4848" -> 4848). Returns false for numbers that don't
// follow the convention.
func orderSuffix(orderNo, prefix string) (int, bool) {
	s := strings.TrimSpace(orderNo)
	s = strings.Replace(s, prefix, "", 1)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// lastOrderSuffix finds the highest conventional order number already
// in the ledger.
func lastOrderSuffix(rows []ledger.Row, prefix string) (int, bool) {
	best := 0
	found := false
	for _, row := range rows {
		if n, ok := orderSuffix(row.OrderNo, prefix); ok && n > best {
			best = n
			found = true
		}
	}
	return best, found
}

// DetectNewOrders returns the fetched upstream orders whose numeric
// suffix is greater than anything already in the ledger, oldest first.
// An empty ledger yields nothing: seeding is a manual decision, not
// something to infer from an empty table.
func DetectNewOrders(rows []ledger.Row, upstream []qikink.Order, prefix string) []qikink.Order {
	last, ok := lastOrderSuffix(rows, prefix)
	if !ok {
		return nil
	}

	var fresh []qikink.Order
	for _, o := range upstream {
		if n, valid := orderSuffix(o.Number, prefix); valid && n > last {
			fresh = append(fresh, o)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		ni, _ := orderSuffix(fresh[i].Number, prefix)
		nj, _ := orderSuffix(fresh[j].Number, prefix)
		return ni < nj
	})
	return fresh
}

// IngestNewOrders appends a skeleton ledger row and a NewOrder audit
// entry for every newly seen upstream order. The row starts with a
// blank status so the next reconciliation pass evaluates it.
func (r *Reconciler) IngestNewOrders(ctx context.Context, upstream []qikink.Order, prefix string) (int, error) {
	table, err := r.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	cols, err := table.ResolveColumns()
	if err != nil {
		return 0, err
	}
	rows := table.TypedRows(cols)

	fresh := DetectNewOrders(rows, upstream, prefix)
	for _, o := range fresh {
		cells := make([]string, len(ledger.DefaultHeader))
		cells[cols.OrderNo] = o.Number
		cells[cols.CustomerName] = o.CustomerName()
		if err := r.store.AppendRow(ctx, cells); err != nil {
			return 0, err
		}
		if err := r.audit.Append(ctx, ledger.LaneQikink, o.Number, ledger.ChangeNewOrder, "", o.Status, ""); err != nil {
			return 0, err
		}
	}
	if len(fresh) > 0 {
		r.log.WithField("orders", len(fresh)).Info("new upstream orders ingested")
	}
	return len(fresh), nil
}
