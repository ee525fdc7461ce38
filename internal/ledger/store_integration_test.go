package ledger

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live database.
	// Set TEST_DATABASE_URL in your .env or environment to run
	// integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE ledger_orders, order_sync_logs`); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestPGStoreRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := NewStore(pool, testLogger())

	table, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll on empty ledger: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("empty ledger rows = %d", len(table.Rows))
	}

	rows := [][]string{
		{"172086_4848", "Prepaid", "", "", "", "Asha Patel", ""},
		{"172086_4849", "", "https://t/2", "AWB2", "Bluedart", "", ""},
	}
	for _, r := range rows {
		if err := store.AppendRow(ctx, r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}

	table, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][0] != "172086_4848" || table.Rows[1][3] != "AWB2" {
		t.Errorf("loaded rows = %v", table.Rows)
	}

	cols, err := table.ResolveColumns()
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if err := store.WriteCell(ctx, 0, cols.Status, "Delivered"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}

	table, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll after write: %v", err)
	}
	if table.Rows[0][cols.Status] != "Delivered" {
		t.Errorf("status cell = %q, want Delivered", table.Rows[0][cols.Status])
	}
}

func TestPGStoreWriteCellOutOfRange(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := NewStore(pool, testLogger())
	if _, err := store.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := store.WriteCell(ctx, 0, 0, "x"); err == nil {
		t.Error("expected error writing past the loaded snapshot")
	}
	if err := store.WriteCell(ctx, -1, 0, "x"); err == nil {
		t.Error("expected error for negative row")
	}
}

func TestPGStoreAppendRowArity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := NewStore(pool, testLogger())
	if err := store.AppendRow(context.Background(), []string{"only-one-cell"}); err == nil {
		t.Error("expected error for wrong cell count")
	}
}

func TestAuditLogAppend(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	audit := NewAuditLog(pool)
	err := audit.Append(ctx, LaneQikink, "172086_4848", ChangeStatusUpdate, "Prepaid", "Delivered", "LEDGER -> changed status")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	err = audit.Append(ctx, LaneQikink, "172086_4848", ChangeExceptionRTO, "Exception", "", "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	var count int
	var lastType string
	row := pool.QueryRow(ctx, `
		SELECT count(*), max(change_type)
		FROM order_sync_logs
		WHERE order_id = $1
	`, "172086_4848")
	if err := row.Scan(&count, &lastType); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 2 {
		t.Errorf("log entries = %d, want 2", count)
	}
}
