package workorder

import (
	"fmt"
	"strconv"
	"time"
)

// Recorder decides what a transition writes to the append-only change
// log. The sink is external; the engine only produces entries.
type Recorder struct {
	clock Clock
	ids   IDGenerator
}

// NewRecorder creates a history recorder with the given collaborators.
func NewRecorder(clock Clock, ids IDGenerator) *Recorder {
	return &Recorder{clock: clock, ids: ids}
}

// CreationEntry returns the single "creada" entry recorded when an
// order is created.
func (r *Recorder) CreationEntry(order *WorkOrder, actor Actor) HistoryEntry {
	return HistoryEntry{
		ID:            r.ids.NewID(),
		WorkOrderID:   order.ID,
		Action:        HistoryActionCreated,
		ChangedBy:     actor.ID,
		ChangedByName: actor.Name,
		Timestamp:     r.clock.Now(),
	}
}

// DiffEntries compares an order before and after a transition and
// returns one "actualizada" entry per changed field.
func (r *Recorder) DiffEntries(before, after *WorkOrder, actor Actor) []HistoryEntry {
	now := r.clock.Now()
	var entries []HistoryEntry
	record := func(field, old, new string) {
		if old == new {
			return
		}
		entries = append(entries, HistoryEntry{
			ID:            r.ids.NewID(),
			WorkOrderID:   after.ID,
			Action:        HistoryActionUpdated,
			FieldChanged:  field,
			OldValue:      old,
			NewValue:      new,
			ChangedBy:     actor.ID,
			ChangedByName: actor.Name,
			Timestamp:     now,
		})
	}

	record("title", before.Title, after.Title)
	record("description", before.Description, after.Description)
	record("priority", string(before.Priority), string(after.Priority))
	record("status", string(before.Status), string(after.Status))
	record("assigned_to", before.AssignedTo, after.AssignedTo)
	record("scheduled_date", formatDate(before.ScheduledDate), formatDate(after.ScheduledDate))
	record("closed_date", formatDate(before.ClosedDate), formatDate(after.ClosedDate))
	record("postponed_date", formatDate(before.PostponedDate), formatDate(after.PostponedDate))
	record("postpone_reason", before.PostponeReason, after.PostponeReason)
	record("partial_close_notes", before.PartialCloseNotes, after.PartialCloseNotes)
	record("notes", before.Notes, after.Notes)
	record("failure_cause", before.FailureCause, after.FailureCause)
	record("spare_part_used", before.SparePartUsed, after.SparePartUsed)
	record("spare_part_reference", before.SparePartReference, after.SparePartReference)
	record("estimated_hours", formatHours(before.EstimatedHours), formatHours(after.EstimatedHours))
	record("checklist", summarizeChecklist(before.Checklist), summarizeChecklist(after.Checklist))
	record("technician_signature", signaturePresence(before.TechnicianSignature), signaturePresence(after.TechnicianSignature))

	return entries
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatHours(h float64) string {
	if h == 0 {
		return ""
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// summarizeChecklist renders a compact checked/total summary so history
// rows stay readable instead of carrying the full item list.
func summarizeChecklist(items []ChecklistItem) string {
	if len(items) == 0 {
		return ""
	}
	checked := 0
	for _, item := range items {
		if item.Checked {
			checked++
		}
	}
	return fmt.Sprintf("%d/%d", checked, len(items))
}

// signaturePresence records whether a signature exists, never its
// base64 payload.
func signaturePresence(sig string) string {
	if sig == "" {
		return ""
	}
	return "firmada"
}
