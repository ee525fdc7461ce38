package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/config"
	"kc-order-sync/internal/core"
	"kc-order-sync/internal/db"
	"kc-order-sync/internal/ledger"
	"kc-order-sync/internal/qikink"
	"kc-order-sync/internal/report"
	"kc-order-sync/internal/shopify"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	store := ledger.NewStore(pool, log)
	audit := ledger.NewAuditLog(pool)
	names := core.OrderNames{UpstreamPrefix: cfg.OrderPrefix, DisplayPrefix: cfg.DisplayPrefix}
	upstream := qikink.NewClient(cfg, log)
	shop := shopify.NewClient(cfg, log)
	reconciler := core.NewReconciler(store, audit, shop, names, log)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reconcile":
		orders, err := upstream.FetchAll(ctx)
		if err != nil {
			log.Fatalf("Upstream fetch failed: %v", err)
		}
		summary, err := reconciler.Run(ctx, orders)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		fmt.Printf("reconciled %d rows against %d upstream orders: %d status, %d tracking, %d names, %d audits\n",
			summary.LedgerRows, summary.UpstreamOrders,
			summary.StatusUpdates, summary.TrackingUpdates, summary.NameUpdates, summary.ExceptionAudits)

	case "new-orders":
		orders, err := upstream.FetchAll(ctx)
		if err != nil {
			log.Fatalf("Upstream fetch failed: %v", err)
		}
		n, err := reconciler.IngestNewOrders(ctx, orders, cfg.OrderPrefix)
		if err != nil {
			log.Fatalf("New-order ingestion failed: %v", err)
		}
		fmt.Printf("ingested %d new orders\n", n)

	case "push-fulfillments":
		pusher := core.NewFulfillmentPusher(store, audit, shop, names, log)
		pushed, err := pusher.Run(ctx)
		if err != nil {
			log.Fatalf("Fulfillment push failed: %v", err)
		}
		fmt.Printf("pushed tracking for %d orders\n", pushed)

	case "export":
		loc := cfg.Location()
		year, month := core.LastMonth(time.Now(), loc)
		if len(os.Args) > 2 {
			year, month, err = core.ParseMonth(os.Args[2])
			if err != nil {
				log.Fatalf("Invalid month: %v", err)
			}
		}
		exporter := core.NewExporter(shop, store, names, loc, cfg.PaidOnly, cfg.NameLookupLimit, log)
		result, err := exporter.Run(ctx, year, month)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		path, err := report.Write(result, cfg.ExportDir, time.Now().In(loc))
		if err != nil {
			log.Fatalf("Unable to write workbook: %v", err)
		}
		fmt.Printf("wrote %s (%d orders, %d returns)\n", path, len(result.Normal.Rows), len(result.Returned.Rows))

	default:
		usage()
		os.Exit(1)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: app <command>

Commands:
  reconcile           fetch upstream orders and merge them into the ledger
  new-orders          append upstream orders not yet present in the ledger
  push-fulfillments   mirror pending ledger tracking data to the store
  export [YYYY-MM]    build the monthly GST workbook (default: last month)`)
}
