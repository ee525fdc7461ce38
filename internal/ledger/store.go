package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Store is the tabular ledger contract: load everything, then address
// cells by (row, column) against the loaded snapshot. Writes are
// cell-level and idempotent; re-writing an identical value is
// harmless.
type Store interface {
	LoadAll(ctx context.Context) (*Table, error)
	WriteCell(ctx context.Context, row, col int, value string) error
	AppendRow(ctx context.Context, values []string) error
}

// columnsByHeader maps sheet-era header names to ledger_orders columns.
var columnsByHeader = map[string]string{
	ColOrderNo:            "order_no",
	ColStatus:             "status",
	ColTrackingLink:       "tracking_link",
	ColAWBNo:              "awb_no",
	ColCourierPartner:     "courier_partner",
	ColCustomerName:       "customer_name",
	ColShopifyFulfillment: "shopify_fulfillment",
}

// PGStore keeps the ledger in the ledger_orders table. LoadAll records
// each row's primary key so later cell writes can address rows by
// their position in the loaded snapshot.
type PGStore struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
	ids  []int64
}

func NewStore(pool *pgxpool.Pool, log *logrus.Logger) *PGStore {
	return &PGStore{pool: pool, log: log}
}

func (s *PGStore) LoadAll(ctx context.Context) (*Table, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_no, status, tracking_link, awb_no, courier_partner, customer_name, shopify_fulfillment
		FROM ledger_orders
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	table := &Table{Header: append([]string(nil), DefaultHeader...)}
	s.ids = s.ids[:0]
	for rows.Next() {
		var id int64
		var orderNo, status, tracking, awb, courier, customer, fulfillment string
		if err := rows.Scan(&id, &orderNo, &status, &tracking, &awb, &courier, &customer, &fulfillment); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		s.ids = append(s.ids, id)
		table.Rows = append(table.Rows, []string{orderNo, status, tracking, awb, courier, customer, fulfillment})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}
	return table, nil
}

func (s *PGStore) WriteCell(ctx context.Context, row, col int, value string) error {
	if row < 0 || row >= len(s.ids) {
		return fmt.Errorf("ledger row %d out of range (loaded %d rows)", row, len(s.ids))
	}
	if col < 0 || col >= len(DefaultHeader) {
		return fmt.Errorf("ledger column %d out of range", col)
	}
	dbCol := columnsByHeader[DefaultHeader[col]]
	sql := fmt.Sprintf("UPDATE ledger_orders SET %s = $1, updated_at = now() WHERE id = $2", dbCol)
	if _, err := s.pool.Exec(ctx, sql, value, s.ids[row]); err != nil {
		return fmt.Errorf("failed to write %s for ledger row %d: %w", dbCol, row, err)
	}
	return nil
}

func (s *PGStore) AppendRow(ctx context.Context, values []string) error {
	if len(values) != len(DefaultHeader) {
		return fmt.Errorf("append expects %d cells, got %d", len(DefaultHeader), len(values))
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ledger_orders (order_no, status, tracking_link, awb_no, courier_partner, customer_name, shopify_fulfillment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, values[0], values[1], values[2], values[3], values[4], values[5], values[6]).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	s.ids = append(s.ids, id)
	return nil
}
