package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/openmaint/openmaint/pkg/analytics"
	"github.com/openmaint/openmaint/pkg/workorder"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection and set PRAGMAs
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const orderColumns = `id, title, description, type, priority, status, machine_id,
	assigned_to, created_by, scheduled_date, closed_date, postponed_date,
	postpone_reason, partial_close_notes, recurrence, estimated_hours,
	checklist, technician_signature, failure_cause, spare_part_used,
	spare_part_reference, notes, created_at, updated_at, version`

// CreateOrder inserts a new work order.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *workorder.WorkOrder) error {
	return createOrder(ctx, s.db, order)
}

func createOrder(ctx context.Context, q dbtx, order *workorder.WorkOrder) error {
	checklist, err := json.Marshal(order.Checklist)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}

	query := `
		INSERT INTO work_orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		order.ID,
		order.Title,
		order.Description,
		string(order.Type),
		string(order.Priority),
		string(order.Status),
		order.MachineID,
		order.AssignedTo,
		order.CreatedBy,
		order.ScheduledDate,
		order.ClosedDate,
		order.PostponedDate,
		order.PostponeReason,
		order.PartialCloseNotes,
		string(order.Recurrence),
		order.EstimatedHours,
		string(checklist),
		order.TechnicianSignature,
		order.FailureCause,
		order.SparePartUsed,
		order.SparePartReference,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
		order.Version,
	)

	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}

	return nil
}

// GetOrder retrieves a work order by ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*workorder.WorkOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM work_orders WHERE id = ?`

	order, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}

	return order, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*workorder.WorkOrder, error) {
	order := &workorder.WorkOrder{}
	var (
		orderType, priority, status, recurrence string
		checklist                               string
	)

	err := row.Scan(
		&order.ID,
		&order.Title,
		&order.Description,
		&orderType,
		&priority,
		&status,
		&order.MachineID,
		&order.AssignedTo,
		&order.CreatedBy,
		&order.ScheduledDate,
		&order.ClosedDate,
		&order.PostponedDate,
		&order.PostponeReason,
		&order.PartialCloseNotes,
		&recurrence,
		&order.EstimatedHours,
		&checklist,
		&order.TechnicianSignature,
		&order.FailureCause,
		&order.SparePartUsed,
		&order.SparePartReference,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}

	order.Type = workorder.OrderType(orderType)
	order.Priority = workorder.Priority(priority)
	order.Status = workorder.Status(status)
	order.Recurrence = workorder.Recurrence(recurrence)

	if checklist != "" && checklist != "null" {
		if err := json.Unmarshal([]byte(checklist), &order.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist: %w", err)
		}
	}

	return order, nil
}

// UpdateOrder persists an updated order. The update only applies when
// the stored version matches expectedVersion.
func (s *SQLiteStore) UpdateOrder(ctx context.Context, order *workorder.WorkOrder, expectedVersion int64) error {
	return updateOrder(ctx, s.db, order, expectedVersion)
}

func updateOrder(ctx context.Context, q dbtx, order *workorder.WorkOrder, expectedVersion int64) error {
	checklist, err := json.Marshal(order.Checklist)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}

	query := `
		UPDATE work_orders
		SET title = ?, description = ?, type = ?, priority = ?, status = ?,
			machine_id = ?, assigned_to = ?, scheduled_date = ?, closed_date = ?,
			postponed_date = ?, postpone_reason = ?, partial_close_notes = ?,
			recurrence = ?, estimated_hours = ?, checklist = ?,
			technician_signature = ?, failure_cause = ?, spare_part_used = ?,
			spare_part_reference = ?, notes = ?, updated_at = ?, version = ?
		WHERE id = ? AND version = ?
	`

	result, err := q.ExecContext(ctx, query,
		order.Title,
		order.Description,
		string(order.Type),
		string(order.Priority),
		string(order.Status),
		order.MachineID,
		order.AssignedTo,
		order.ScheduledDate,
		order.ClosedDate,
		order.PostponedDate,
		order.PostponeReason,
		order.PartialCloseNotes,
		string(order.Recurrence),
		order.EstimatedHours,
		string(checklist),
		order.TechnicianSignature,
		order.FailureCause,
		order.SparePartUsed,
		order.SparePartReference,
		order.Notes,
		order.UpdatedAt,
		order.Version,
		order.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		var exists int
		err := q.QueryRowContext(ctx, `SELECT 1 FROM work_orders WHERE id = ?`, order.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("work order %s: %w", order.ID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check work order: %w", err)
		}
		return fmt.Errorf("work order %s: %w", order.ID, ErrVersionConflict)
	}

	return nil
}

// ListOrders lists work orders matching the filter, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, filter OrderFilter) ([]*workorder.WorkOrder, error) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.MachineID != "" {
		conds = append(conds, "machine_id = ?")
		args = append(args, filter.MachineID)
	}
	if filter.AssignedTo != "" {
		conds = append(conds, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.ScheduledFrom != nil {
		conds = append(conds, "scheduled_date >= ?")
		args = append(args, *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		conds = append(conds, "scheduled_date < ?")
		args = append(args, *filter.ScheduledTo)
	}

	query := `SELECT ` + orderColumns + ` FROM work_orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()

	orders := []*workorder.WorkOrder{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work orders: %w", err)
	}

	return orders, nil
}

// DeleteOrder deletes a work order and its history.
func (s *SQLiteStore) DeleteOrder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM work_orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("work order %s: %w", id, ErrNotFound)
	}

	return nil
}

// CountOrdersByMachine counts all orders referencing a machine.
func (s *SQLiteStore) CountOrdersByMachine(ctx context.Context, machineID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_orders WHERE machine_id = ?`, machineID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count work orders: %w", err)
	}
	return count, nil
}

// CountOpenOrdersByAssignee counts non-terminal orders assigned to a user.
func (s *SQLiteStore) CountOpenOrdersByAssignee(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_orders WHERE assigned_to = ? AND status NOT IN (?, ?, ?)`,
		userID,
		string(workorder.StatusCompleted),
		string(workorder.StatusCancelled),
		string(workorder.StatusPartiallyClosed)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open work orders: %w", err)
	}
	return count, nil
}

// ApplyTransition persists the outcome of a transition atomically: the
// updated order, the successor if one was spawned, and the history.
func (s *SQLiteStore) ApplyTransition(ctx context.Context, result *workorder.TransitionResult, expectedVersion int64) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateOrder(ctx, tx, result.Order, expectedVersion); err != nil {
		return err
	}

	if result.Successor != nil {
		if err := createOrder(ctx, tx, result.Successor); err != nil {
			return err
		}
	}

	if err := appendHistory(ctx, tx, result.History); err != nil {
		return err
	}

	return tx.Commit()
}

// AppendHistory appends history entries.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entries []workorder.HistoryEntry) error {
	return appendHistory(ctx, s.db, entries)
}

func appendHistory(ctx context.Context, q dbtx, entries []workorder.HistoryEntry) error {
	query := `
		INSERT INTO work_order_history (
			id, work_order_id, action, field_changed, old_value, new_value,
			changed_by, changed_by_name, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, e := range entries {
		_, err := q.ExecContext(ctx, query,
			e.ID,
			e.WorkOrderID,
			e.Action,
			e.FieldChanged,
			e.OldValue,
			e.NewValue,
			e.ChangedBy,
			e.ChangedByName,
			e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to append history entry: %w", err)
		}
	}

	return nil
}

// ListHistory lists the history of an order, oldest first.
func (s *SQLiteStore) ListHistory(ctx context.Context, orderID string) ([]workorder.HistoryEntry, error) {
	query := `
		SELECT id, work_order_id, action, field_changed, old_value, new_value,
			   changed_by, changed_by_name, timestamp
		FROM work_order_history
		WHERE work_order_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []workorder.HistoryEntry{}
	for rows.Next() {
		var e workorder.HistoryEntry
		err := rows.Scan(
			&e.ID,
			&e.WorkOrderID,
			&e.Action,
			&e.FieldChanged,
			&e.OldValue,
			&e.NewValue,
			&e.ChangedBy,
			&e.ChangedByName,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// SaveTemplate inserts or updates a checklist template. Saving a default
// template clears the default flag on every other template.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl *workorder.ChecklistTemplate) error {
	items, err := json.Marshal(tpl.Items)
	if err != nil {
		return fmt.Errorf("failed to encode template items: %w", err)
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if tpl.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE checklist_templates SET is_default = 0 WHERE id != ?`, tpl.ID); err != nil {
			return fmt.Errorf("failed to clear default templates: %w", err)
		}
	}

	query := `
		INSERT INTO checklist_templates (id, name, is_default, items, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_default = excluded.is_default,
			items = excluded.items
	`

	if _, err := tx.ExecContext(ctx, query,
		tpl.ID, tpl.Name, tpl.IsDefault, string(items), tpl.CreatedAt); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return tx.Commit()
}

// GetTemplate retrieves a checklist template by ID.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*workorder.ChecklistTemplate, error) {
	query := `SELECT id, name, is_default, items, created_at FROM checklist_templates WHERE id = ?`

	tpl, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return tpl, nil
}

// DefaultTemplate returns the default checklist template, or nil if none
// is configured.
func (s *SQLiteStore) DefaultTemplate(ctx context.Context) (*workorder.ChecklistTemplate, error) {
	query := `SELECT id, name, is_default, items, created_at FROM checklist_templates WHERE is_default = 1 LIMIT 1`

	tpl, err := scanTemplate(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default template: %w", err)
	}

	return tpl, nil
}

func scanTemplate(row scanner) (*workorder.ChecklistTemplate, error) {
	tpl := &workorder.ChecklistTemplate{}
	var items string

	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.IsDefault, &items, &tpl.CreatedAt); err != nil {
		return nil, err
	}

	if items != "" && items != "null" {
		if err := json.Unmarshal([]byte(items), &tpl.Items); err != nil {
			return nil, fmt.Errorf("failed to decode template items: %w", err)
		}
	}

	return tpl, nil
}

// ListTemplates lists all checklist templates by name.
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*workorder.ChecklistTemplate, error) {
	query := `SELECT id, name, is_default, items, created_at FROM checklist_templates ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*workorder.ChecklistTemplate{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// DeleteTemplate deletes a checklist template by ID. The default
// template cannot be deleted; demote it first by saving another
// template as the default.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	var isDefault bool
	err := s.db.QueryRowContext(ctx, `SELECT is_default FROM checklist_templates WHERE id = ?`, id).Scan(&isDefault)
	if err == sql.ErrNoRows {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if isDefault {
		return fmt.Errorf("template %s is the default template and cannot be deleted", id)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM checklist_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// UpsertMachine inserts or updates a machine.
func (s *SQLiteStore) UpsertMachine(ctx context.Context, machine *analytics.Machine) error {
	query := `
		INSERT INTO machines (id, name, department_id, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department_id = excluded.department_id,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query, machine.ID, machine.Name, machine.DepartmentID, machine.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert machine: %w", err)
	}

	return nil
}

// GetMachine retrieves a machine by ID.
func (s *SQLiteStore) GetMachine(ctx context.Context, id string) (*analytics.Machine, error) {
	machine := &analytics.Machine{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, department_id, status FROM machines WHERE id = ?`, id).Scan(
		&machine.ID, &machine.Name, &machine.DepartmentID, &machine.Status)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}

	return machine, nil
}

// ListMachines lists all machines by name.
func (s *SQLiteStore) ListMachines(ctx context.Context) ([]analytics.Machine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department_id, status FROM machines ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	machines := []analytics.Machine{}
	for rows.Next() {
		var m analytics.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.DepartmentID, &m.Status); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating machines: %w", err)
	}

	return machines, nil
}

// DeleteMachine deletes a machine by ID.
func (s *SQLiteStore) DeleteMachine(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM machines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}

	return nil
}

// machineDirectory is an in-memory name lookup snapshot.
type machineDirectory map[string]string

// MachineName returns the display name for a machine ID.
func (d machineDirectory) MachineName(id string) (string, bool) {
	name, ok := d[id]
	return name, ok
}

// MachineDirectory loads a name lookup snapshot of all machines.
func (s *SQLiteStore) MachineDirectory(ctx context.Context) (workorder.MachineDirectory, error) {
	machines, err := s.ListMachines(ctx)
	if err != nil {
		return nil, err
	}

	dir := make(machineDirectory, len(machines))
	for _, m := range machines {
		dir[m.ID] = m.Name
	}
	return dir, nil
}

// RecordStop inserts a machine stop record.
func (s *SQLiteStore) RecordStop(ctx context.Context, stop *analytics.StopRecord) error {
	query := `
		INSERT INTO stop_records (id, machine_id, stop_type, reason, start_time, end_time, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var endTime *time.Time
	if !stop.EndTime.IsZero() {
		endTime = &stop.EndTime
	}

	_, err := s.db.ExecContext(ctx, query,
		stop.ID, stop.MachineID, stop.StopType, stop.Reason,
		stop.StartTime, endTime, stop.DurationMinutes)
	if err != nil {
		return fmt.Errorf("failed to record stop: %w", err)
	}

	return nil
}

// ListStops lists stop records starting within [from, to), oldest first.
func (s *SQLiteStore) ListStops(ctx context.Context, from, to time.Time) ([]analytics.StopRecord, error) {
	query := `
		SELECT id, machine_id, stop_type, reason, start_time, end_time, duration_minutes
		FROM stop_records
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time ASC
	`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	defer rows.Close()

	stops := []analytics.StopRecord{}
	for rows.Next() {
		var (
			stop    analytics.StopRecord
			endTime sql.NullTime
		)
		err := rows.Scan(&stop.ID, &stop.MachineID, &stop.StopType, &stop.Reason,
			&stop.StartTime, &endTime, &stop.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		if endTime.Valid {
			stop.EndTime = endTime.Time
		}
		stops = append(stops, stop)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stops: %w", err)
	}

	return stops, nil
}

// RecordLineStart inserts a production line start record.
func (s *SQLiteStore) RecordLineStart(ctx context.Context, start *analytics.StartRecord) error {
	query := `
		INSERT INTO line_start_records (id, line_id, department_id, machine_id, date, target_time, actual_time, delay_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		start.ID, start.LineID, start.DepartmentID, start.MachineID,
		start.Date, start.TargetTime, start.ActualTime, start.DelayReason)
	if err != nil {
		return fmt.Errorf("failed to record line start: %w", err)
	}

	return nil
}

// ListLineStarts lists line start records dated within [from, to),
// oldest first.
func (s *SQLiteStore) ListLineStarts(ctx context.Context, from, to time.Time) ([]analytics.StartRecord, error) {
	query := `
		SELECT id, line_id, department_id, machine_id, date, target_time, actual_time, delay_reason
		FROM line_start_records
		WHERE date >= ? AND date < ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list line starts: %w", err)
	}
	defer rows.Close()

	starts := []analytics.StartRecord{}
	for rows.Next() {
		var r analytics.StartRecord
		err := rows.Scan(&r.ID, &r.LineID, &r.DepartmentID, &r.MachineID,
			&r.Date, &r.TargetTime, &r.ActualTime, &r.DelayReason)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line start: %w", err)
		}
		starts = append(starts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line starts: %w", err)
	}

	return starts, nil
}

// CreateAuditEntry creates a new audit log entry
func (s *SQLiteStore) CreateAuditEntry(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO audit (action, actor_id, actor_role, order_id, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		entry.Action,
		entry.ActorID,
		entry.ActorRole,
		entry.OrderID,
		entry.Details,
		entry.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	// Get the auto-generated ID
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// ListAuditEntries lists audit entries with optional filters and pagination
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, action *string, actorID *string, limit, offset int) ([]*AuditEntry, error) {
	query := `
		SELECT id, action, actor_id, actor_role, order_id, details, timestamp
		FROM audit
		WHERE (? IS NULL OR action = ?)
		  AND (? IS NULL OR actor_id = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, action, action, actorID, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*AuditEntry{}
	for rows.Next() {
		entry := &AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.OrderID,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

// TemplateSource adapts the store to the engine's template lookup
// interface.
type TemplateSource struct {
	store Store
}

// NewTemplateSource wraps a store as a workorder.TemplateSource.
func NewTemplateSource(store Store) *TemplateSource {
	return &TemplateSource{store: store}
}

// DefaultTemplate returns the default checklist template, or nil if none
// is configured.
func (t *TemplateSource) DefaultTemplate() (*workorder.ChecklistTemplate, error) {
	return t.store.DefaultTemplate(context.Background())
}
