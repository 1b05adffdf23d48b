package stores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openmaint/openmaint/pkg/analytics"
	"github.com/openmaint/openmaint/pkg/workorder"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when an order update carries a stale
// version. The caller should reload the order and retry the transition.
var ErrVersionConflict = errors.New("order version conflict")

// OrderFilter narrows ListOrders results. Zero-valued fields match
// everything.
type OrderFilter struct {
	// Status matches the order status.
	Status workorder.Status

	// Type matches the order type.
	Type workorder.OrderType

	// MachineID matches the target machine.
	MachineID string

	// AssignedTo matches the assigned technician.
	AssignedTo string

	// ScheduledFrom keeps orders scheduled on or after this date.
	ScheduledFrom *time.Time

	// ScheduledTo keeps orders scheduled strictly before this date.
	ScheduledTo *time.Time

	// Limit caps the result size. Zero means no limit.
	Limit int

	// Offset skips the first N results.
	Offset int
}

// AuditEntry records who performed which lifecycle action on which
// order.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	OrderID   *string   `json:"order_id,omitempty"`
	Details   *string   `json:"details,omitempty"` // JSON blob
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for the persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Work order operations
	CreateOrder(ctx context.Context, order *workorder.WorkOrder) error
	GetOrder(ctx context.Context, id string) (*workorder.WorkOrder, error)
	UpdateOrder(ctx context.Context, order *workorder.WorkOrder, expectedVersion int64) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]*workorder.WorkOrder, error)
	DeleteOrder(ctx context.Context, id string) error
	CountOrdersByMachine(ctx context.Context, machineID string) (int, error)
	CountOpenOrdersByAssignee(ctx context.Context, userID string) (int, error)

	// ApplyTransition persists an updated order, its successor, and the
	// appended history in a single transaction.
	ApplyTransition(ctx context.Context, result *workorder.TransitionResult, expectedVersion int64) error

	// History operations
	AppendHistory(ctx context.Context, entries []workorder.HistoryEntry) error
	ListHistory(ctx context.Context, orderID string) ([]workorder.HistoryEntry, error)

	// Checklist template operations
	SaveTemplate(ctx context.Context, tpl *workorder.ChecklistTemplate) error
	GetTemplate(ctx context.Context, id string) (*workorder.ChecklistTemplate, error)
	DefaultTemplate(ctx context.Context) (*workorder.ChecklistTemplate, error)
	ListTemplates(ctx context.Context) ([]*workorder.ChecklistTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error

	// Machine operations
	UpsertMachine(ctx context.Context, machine *analytics.Machine) error
	GetMachine(ctx context.Context, id string) (*analytics.Machine, error)
	ListMachines(ctx context.Context) ([]analytics.Machine, error)
	DeleteMachine(ctx context.Context, id string) error
	MachineDirectory(ctx context.Context) (workorder.MachineDirectory, error)

	// Stop log operations
	RecordStop(ctx context.Context, stop *analytics.StopRecord) error
	ListStops(ctx context.Context, from, to time.Time) ([]analytics.StopRecord, error)

	// Line start operations
	RecordLineStart(ctx context.Context, start *analytics.StartRecord) error
	ListLineStarts(ctx context.Context, from, to time.Time) ([]analytics.StartRecord, error)

	// Audit operations
	CreateAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, action *string, actorID *string, limit, offset int) ([]*AuditEntry, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
