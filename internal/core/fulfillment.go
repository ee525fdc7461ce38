package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/shopify"
)

// FulfillmentWriter is the subset of the commerce platform API needed
// to attach tracking to an order's fulfillment.
type FulfillmentWriter interface {
	OrderIDByName(ctx context.Context, name string) (int64, error)
	FulfillmentOrderID(ctx context.Context, orderID int64) (int64, error)
	UpdateFulfillmentTracking(ctx context.Context, orderID, fulfillmentID int64, info shopify.TrackingInfo) error
}

// FulfillmentPusher mirrors ledger tracking data to the downstream
// platform: every row that has a tracking link but has not yet been
// notified gets a fulfillment tracking update, then the row is flagged
// so it is never pushed twice.
type FulfillmentPusher struct {
	store ledger.Store
	audit ledger.AuditLog
	shop  FulfillmentWriter
	names OrderNames
	log   *logrus.Logger
	now   func() time.Time
}

func NewFulfillmentPusher(store ledger.Store, audit ledger.AuditLog, shop FulfillmentWriter, names OrderNames, log *logrus.Logger) *FulfillmentPusher {
	return &FulfillmentPusher{store: store, audit: audit, shop: shop, names: names, log: log, now: time.Now}
}

// Run pushes pending tracking updates. Per-order failures are logged
// and skipped so one bad order cannot stall the rest of the batch.
func (p *FulfillmentPusher) Run(ctx context.Context) (pushed int, err error) {
	table, err := p.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	cols, err := table.ResolveColumns()
	if err != nil {
		return 0, err
	}

	for _, row := range table.TypedRows(cols) {
		if row.OrderNo == "" || row.TrackingLink == "" || row.ShopifyFulfillment != "" {
			continue
		}
		if err := p.pushOne(ctx, cols, row); err != nil {
			p.log.WithField("order", row.OrderNo).WithError(err).Warn("fulfillment push failed")
			continue
		}
		pushed++
	}
	return pushed, nil
}

func (p *FulfillmentPusher) pushOne(ctx context.Context, cols ledger.Columns, row ledger.Row) error {
	name := p.names.ToDisplay(row.OrderNo)
	orderID, err := p.shop.OrderIDByName(ctx, name)
	if err != nil {
		return err
	}
	if orderID == 0 {
		p.log.WithField("order", row.OrderNo).Warn("no downstream order for tracking push")
		return nil
	}
	fulfillmentID, err := p.shop.FulfillmentOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if fulfillmentID == 0 {
		p.log.WithField("order", row.OrderNo).Warn("no fulfillment order to attach tracking to")
		return nil
	}

	info := shopify.TrackingInfo{
		Company: row.CourierPartner,
		Number:  row.AWBNo,
		URL:     row.TrackingLink,
	}
	if err := p.shop.UpdateFulfillmentTracking(ctx, orderID, fulfillmentID, info); err != nil {
		return err
	}

	stamp := p.now().Format(time.RFC3339)
	if err := p.store.WriteCell(ctx, row.Index, cols.ShopifyFulfillment, stamp); err != nil {
		return err
	}
	return p.audit.Append(ctx, ledger.LaneShopify, row.OrderNo, ledger.ChangeTrackingUpdate, "", row.TrackingLink, "tracking pushed to fulfillment")
}
