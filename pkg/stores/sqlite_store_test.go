package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmaint/openmaint/pkg/analytics"
	"github.com/openmaint/openmaint/pkg/workorder"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

func testOrder(id string) *workorder.WorkOrder {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	scheduled := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &workorder.WorkOrder{
		ID:            id,
		Title:         "Revisión mensual de compresor",
		Description:   "Inspección y engrase",
		Type:          workorder.TypePreventive,
		Priority:      workorder.PriorityMedium,
		Status:        workorder.StatusPending,
		MachineID:     "m-1",
		AssignedTo:    "u-2",
		CreatedBy:     "u-1",
		ScheduledDate: &scheduled,
		Recurrence:    workorder.RecurrenceMonthly,
		Checklist: []workorder.ChecklistItem{
			{ID: "c-1", Name: "Revisar presión", IsRequired: true, Ordinal: 1},
			{ID: "c-2", Name: "Engrasar rodamientos", IsRequired: true, Ordinal: 2},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Check that tables exist by querying them
	tables := []string{
		"work_orders", "work_order_history", "checklist_templates",
		"machines", "stop_records", "line_start_records", "audit",
	}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

// TestOrderCRUD tests work order CRUD operations
func TestOrderCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	order := testOrder("wo-1")

	if err := store.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	got, err := store.GetOrder(ctx, "wo-1")
	if err != nil {
		t.Fatalf("failed to get order: %v", err)
	}
	if got.Title != order.Title || got.Status != workorder.StatusPending {
		t.Errorf("got %q/%s, want %q/%s", got.Title, got.Status, order.Title, order.Status)
	}
	if len(got.Checklist) != 2 || got.Checklist[0].Name != "Revisar presión" {
		t.Errorf("checklist round trip failed: %+v", got.Checklist)
	}
	if got.ScheduledDate == nil || !got.ScheduledDate.Equal(*order.ScheduledDate) {
		t.Errorf("scheduled date = %v, want %v", got.ScheduledDate, order.ScheduledDate)
	}

	got.Status = workorder.StatusInProgress
	got.Version = 2
	if err := store.UpdateOrder(ctx, got, 1); err != nil {
		t.Fatalf("failed to update order: %v", err)
	}

	updated, err := store.GetOrder(ctx, "wo-1")
	if err != nil {
		t.Fatalf("failed to get updated order: %v", err)
	}
	if updated.Status != workorder.StatusInProgress || updated.Version != 2 {
		t.Errorf("update not persisted: status %s version %d", updated.Status, updated.Version)
	}

	if err := store.DeleteOrder(ctx, "wo-1"); err != nil {
		t.Fatalf("failed to delete order: %v", err)
	}
	if _, err := store.GetOrder(ctx, "wo-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteOrder(ctx, "wo-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

// TestUpdateOrderVersionConflict tests optimistic locking
func TestUpdateOrderVersionConflict(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	order := testOrder("wo-1")
	if err := store.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	stale := order.Clone()
	stale.Status = workorder.StatusCancelled
	stale.Version = 2
	if err := store.UpdateOrder(ctx, stale, 7); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale update = %v, want ErrVersionConflict", err)
	}

	missing := testOrder("wo-404")
	if err := store.UpdateOrder(ctx, missing, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing order = %v, want ErrNotFound", err)
	}
}

// TestListOrdersFilters tests order listing with filters
func TestListOrdersFilters(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	preventive := testOrder("wo-1")
	if err := store.CreateOrder(ctx, preventive); err != nil {
		t.Fatal(err)
	}

	corrective := testOrder("wo-2")
	corrective.Type = workorder.TypeCorrective
	corrective.Status = workorder.StatusInProgress
	corrective.MachineID = "m-2"
	corrective.Checklist = nil
	if err := store.CreateOrder(ctx, corrective); err != nil {
		t.Fatal(err)
	}

	all, err := store.ListOrders(ctx, OrderFilter{})
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d orders, want 2", len(all))
	}

	byType, err := store.ListOrders(ctx, OrderFilter{Type: workorder.TypeCorrective})
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 1 || byType[0].ID != "wo-2" {
		t.Errorf("type filter returned %+v", byType)
	}

	byStatus, err := store.ListOrders(ctx, OrderFilter{Status: workorder.StatusPending})
	if err != nil {
		t.Fatal(err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "wo-1" {
		t.Errorf("status filter returned %+v", byStatus)
	}

	byMachine, err := store.ListOrders(ctx, OrderFilter{MachineID: "m-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byMachine) != 1 || byMachine[0].ID != "wo-2" {
		t.Errorf("machine filter returned %+v", byMachine)
	}

	count, err := store.CountOrdersByMachine(ctx, "m-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("machine order count = %d, want 1", count)
	}

	open, err := store.CountOpenOrdersByAssignee(ctx, "u-2")
	if err != nil {
		t.Fatal(err)
	}
	if open != 2 {
		t.Errorf("open assigned count = %d, want 2", open)
	}
}

// TestApplyTransition tests atomic persistence of a transition outcome
func TestApplyTransition(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	order := testOrder("wo-1")
	if err := store.CreateOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	updated := order.Clone()
	updated.Status = workorder.StatusCompleted
	updated.ClosedDate = &now
	updated.UpdatedAt = now
	updated.Version = 2

	nextDate := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	successor := testOrder("wo-2")
	successor.ScheduledDate = &nextDate

	result := &workorder.TransitionResult{
		Order:     updated,
		Successor: successor,
		History: []workorder.HistoryEntry{
			{
				ID: "h-1", WorkOrderID: "wo-1", Action: workorder.HistoryActionUpdated,
				FieldChanged: "status", OldValue: "pendiente", NewValue: "completada",
				ChangedBy: "u-2", ChangedByName: "Marta García", Timestamp: now,
			},
			{
				ID: "h-2", WorkOrderID: "wo-2", Action: workorder.HistoryActionCreated,
				ChangedBy: "u-2", ChangedByName: "Marta García", Timestamp: now,
			},
		},
	}

	if err := store.ApplyTransition(ctx, result, 1); err != nil {
		t.Fatalf("failed to apply transition: %v", err)
	}

	got, err := store.GetOrder(ctx, "wo-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != workorder.StatusCompleted || got.Version != 2 {
		t.Errorf("order not updated: %s v%d", got.Status, got.Version)
	}

	if _, err := store.GetOrder(ctx, "wo-2"); err != nil {
		t.Errorf("successor not persisted: %v", err)
	}

	history, err := store.ListHistory(ctx, "wo-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].FieldChanged != "status" {
		t.Errorf("history = %+v, want one status entry", history)
	}

	// A stale transition must leave everything untouched.
	stale := &workorder.TransitionResult{
		Order:   updated,
		History: []workorder.HistoryEntry{{ID: "h-3", WorkOrderID: "wo-1", Action: workorder.HistoryActionUpdated, ChangedBy: "u-2", Timestamp: now}},
	}
	if err := store.ApplyTransition(ctx, stale, 1); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale transition = %v, want ErrVersionConflict", err)
	}
	history, err = store.ListHistory(ctx, "wo-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("rolled back transition must not append history, got %d entries", len(history))
	}
}

// TestTemplateCRUD tests checklist template operations
func TestTemplateCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// No default configured yet.
	tpl, err := store.DefaultTemplate(ctx)
	if err != nil {
		t.Fatalf("failed to get default template: %v", err)
	}
	if tpl != nil {
		t.Errorf("default template = %+v, want nil", tpl)
	}

	first := &workorder.ChecklistTemplate{
		ID:        "t-1",
		Name:      "Mantenimiento general",
		IsDefault: true,
		Items: []workorder.TemplateItem{
			{Name: "Área o máquina recogida", IsRequired: true, Ordinal: 1},
			{Name: "Orden y limpieza", IsRequired: true, Ordinal: 2},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveTemplate(ctx, first); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	second := &workorder.ChecklistTemplate{
		ID:        "t-2",
		Name:      "Inspección eléctrica",
		IsDefault: true,
		Items:     []workorder.TemplateItem{{Name: "Revisar cuadros", IsRequired: true, Ordinal: 1}},
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveTemplate(ctx, second); err != nil {
		t.Fatalf("failed to save second template: %v", err)
	}

	// Saving a new default demotes the previous one.
	def, err := store.DefaultTemplate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.ID != "t-2" {
		t.Errorf("default template = %+v, want t-2", def)
	}

	got, err := store.GetTemplate(ctx, "t-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsDefault {
		t.Error("t-1 must have been demoted")
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Área o máquina recogida" {
		t.Errorf("template items round trip failed: %+v", got.Items)
	}

	all, err := store.ListTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("listed %d templates, want 2", len(all))
	}

	source := NewTemplateSource(store)
	fromSource, err := source.DefaultTemplate()
	if err != nil {
		t.Fatal(err)
	}
	if fromSource == nil || fromSource.ID != "t-2" {
		t.Errorf("template source returned %+v, want t-2", fromSource)
	}

	if err := store.DeleteTemplate(ctx, "t-1"); err != nil {
		t.Fatalf("failed to delete template: %v", err)
	}
	if _, err := store.GetTemplate(ctx, "t-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}

	if err := store.DeleteTemplate(ctx, "t-2"); err == nil {
		t.Error("expected error deleting the default template")
	}
	if err := store.DeleteTemplate(ctx, "no-such"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing template = %v, want ErrNotFound", err)
	}
}

// TestMachineCRUD tests machine operations and the directory snapshot
func TestMachineCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	machines := []analytics.Machine{
		{ID: "m-1", Name: "Compresor A", DepartmentID: "d-1", Status: "operativa"},
		{ID: "m-2", Name: "Envasadora", DepartmentID: "d-2", Status: "en_mantenimiento"},
	}
	for i := range machines {
		if err := store.UpsertMachine(ctx, &machines[i]); err != nil {
			t.Fatalf("failed to upsert machine: %v", err)
		}
	}

	// Upsert updates in place.
	machines[0].Status = "fuera_de_servicio"
	if err := store.UpsertMachine(ctx, &machines[0]); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetMachine(ctx, "m-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "fuera_de_servicio" {
		t.Errorf("machine status = %s, want fuera_de_servicio", got.Status)
	}

	list, err := store.ListMachines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("listed %d machines, want 2", len(list))
	}

	dir, err := store.MachineDirectory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	name, ok := dir.MachineName("m-2")
	if !ok || name != "Envasadora" {
		t.Errorf("directory lookup = %q/%v", name, ok)
	}
	if _, ok := dir.MachineName("m-404"); ok {
		t.Error("unknown machine must not resolve")
	}

	if err := store.DeleteMachine(ctx, "m-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetMachine(ctx, "m-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

// TestStopAndLineStartLogs tests the analytics source logs
func TestStopAndLineStartLogs(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	start := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)

	stop := &analytics.StopRecord{
		ID:        "s-1",
		MachineID: "m-1",
		StopType:  "averia",
		Reason:    "Rotura de correa",
		StartTime: start,
		EndTime:   start.Add(90 * time.Minute),
	}
	if err := store.RecordStop(ctx, stop); err != nil {
		t.Fatalf("failed to record stop: %v", err)
	}

	// Ongoing stop with no end time.
	ongoing := &analytics.StopRecord{
		ID:              "s-2",
		MachineID:       "m-1",
		StopType:        "calidad",
		StartTime:       start.Add(24 * time.Hour),
		DurationMinutes: 15,
	}
	if err := store.RecordStop(ctx, ongoing); err != nil {
		t.Fatal(err)
	}

	stops, err := store.ListStops(ctx, start.Add(-time.Hour), start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("failed to list stops: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("listed %d stops, want 2", len(stops))
	}
	if !stops[0].EndTime.Equal(stop.EndTime) {
		t.Errorf("end time = %v, want %v", stops[0].EndTime, stop.EndTime)
	}
	if !stops[1].EndTime.IsZero() {
		t.Errorf("ongoing stop end time = %v, want zero", stops[1].EndTime)
	}

	// Window excludes records outside it.
	windowed, err := store.ListStops(ctx, start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 1 {
		t.Errorf("windowed list = %d stops, want 1", len(windowed))
	}

	lineStart := &analytics.StartRecord{
		ID:           "ls-1",
		LineID:       "l-1",
		DepartmentID: "d-1",
		Date:         start,
		TargetTime:   "06:00",
		ActualTime:   "06:12",
		DelayReason:  "Falta de personal",
	}
	if err := store.RecordLineStart(ctx, lineStart); err != nil {
		t.Fatalf("failed to record line start: %v", err)
	}

	starts, err := store.ListLineStarts(ctx, start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to list line starts: %v", err)
	}
	if len(starts) != 1 || starts[0].ActualTime != "06:12" {
		t.Errorf("line starts = %+v", starts)
	}
}

// TestAuditEntries tests audit trail operations
func TestAuditEntries(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	orderID := "wo-1"

	entry := &AuditEntry{
		Action:    "complete",
		ActorID:   "u-2",
		ActorRole: "tecnico",
		OrderID:   &orderID,
		Timestamp: time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC),
	}
	if err := store.CreateAuditEntry(ctx, entry); err != nil {
		t.Fatalf("failed to create audit entry: %v", err)
	}
	if entry.ID == 0 {
		t.Error("audit entry ID must be assigned")
	}

	other := &AuditEntry{
		Action:    "cancel",
		ActorID:   "u-1",
		ActorRole: "admin",
		Timestamp: time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC),
	}
	if err := store.CreateAuditEntry(ctx, other); err != nil {
		t.Fatal(err)
	}

	action := "complete"
	entries, err := store.ListAuditEntries(ctx, &action, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorID != "u-2" {
		t.Errorf("filtered audit entries = %+v", entries)
	}

	all, err := store.ListAuditEntries(ctx, nil, nil, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("listed %d audit entries, want 2", len(all))
	}
}
