package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sync lanes identify which external system originated a change.
const (
	LaneQikink  = "Qikink"
	LaneShopify = "Shopify"
)

// ChangeType labels an audit entry.
type ChangeType string

const (
	ChangeNewOrder       ChangeType = "NewOrder"
	ChangeStatusUpdate   ChangeType = "StatusUpdate"
	ChangeMarkAsPaid     ChangeType = "MarkAsPaid"
	ChangeTrackingUpdate ChangeType = "TrackingUpdate"
	ChangeExceptionRTO   ChangeType = "ExceptionRTOCheck"
	ChangeReturn         ChangeType = "Return"
)

// AuditEntry is one immutable row in the sync log. The timestamp is
// captured at append time, not taken from the triggering event.
type AuditEntry struct {
	ID         uuid.UUID
	Lane       string
	Timestamp  time.Time
	OrderID    string
	ChangeType ChangeType
	OldState   string
	NewState   string
	Notes      string
}

// AuditLog is the append-only sink for state transitions.
type AuditLog interface {
	Append(ctx context.Context, lane, orderID string, changeType ChangeType, oldState, newState, notes string) error
}

type pgAuditLog struct {
	pool *pgxpool.Pool
}

func NewAuditLog(pool *pgxpool.Pool) AuditLog {
	return &pgAuditLog{pool: pool}
}

func (a *pgAuditLog) Append(ctx context.Context, lane, orderID string, changeType ChangeType, oldState, newState, notes string) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO order_sync_logs (id, lane, logged_at, order_id, change_type, old_state, new_state, notes)
		VALUES ($1, $2, now(), $3, $4, $5, $6, $7)
	`, uuid.New(), lane, orderID, string(changeType), oldState, newState, notes)
	if err != nil {
		return fmt.Errorf("failed to append sync log for order %s: %w", orderID, err)
	}
	return nil
}
