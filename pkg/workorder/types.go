package workorder

import (
	"time"
)

// WorkOrder represents a single maintenance request, preventive or
// corrective, together with its checklist and change history.
type WorkOrder struct {
	// ID is the unique identifier for this order.
	ID string `json:"id"`

	// Title is the short summary shown in lists and the calendar.
	Title string `json:"title"`

	// Description holds the failure report for corrective orders and the
	// technician's observations for preventive orders.
	Description string `json:"description"`

	// Type is the kind of maintenance work (preventivo, correctivo).
	Type OrderType `json:"type"`

	// Priority is the urgency of the order.
	Priority Priority `json:"priority"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// MachineID identifies the machine this order applies to.
	MachineID string `json:"machine_id"`

	// AssignedTo is the user ID of the assigned technician, if any.
	AssignedTo string `json:"assigned_to,omitempty"`

	// CreatedBy is the user ID of the order creator.
	CreatedBy string `json:"created_by"`

	// ScheduledDate is the calendar date the work is due.
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`

	// ClosedDate is set when and only when the status is completada or
	// cerrada_parcial.
	ClosedDate *time.Time `json:"closed_date,omitempty"`

	// PostponedDate is the new date chosen by the last postpone, if any.
	PostponedDate *time.Time `json:"postponed_date,omitempty"`

	// PostponeReason documents why the order was postponed.
	PostponeReason string `json:"postpone_reason,omitempty"`

	// PartialCloseNotes documents the pending work of a partial close.
	PartialCloseNotes string `json:"partial_close_notes,omitempty"`

	// Recurrence is the successor interval rule. Preventive orders only.
	Recurrence Recurrence `json:"recurrence,omitempty"`

	// EstimatedHours is the planned effort.
	EstimatedHours float64 `json:"estimated_hours,omitempty"`

	// Checklist holds the ordered verification items. Preventive orders only.
	Checklist []ChecklistItem `json:"checklist,omitempty"`

	// TechnicianSignature is the base64-encoded signature captured on
	// completion. Preventive orders only.
	TechnicianSignature string `json:"technician_signature,omitempty"`

	// FailureCause classifies the failure. Corrective orders only.
	FailureCause string `json:"failure_cause,omitempty"`

	// SparePartUsed names the spare part consumed. Corrective orders only.
	SparePartUsed string `json:"spare_part_used,omitempty"`

	// SparePartReference is the part catalogue reference. Corrective orders only.
	SparePartReference string `json:"spare_part_reference,omitempty"`

	// Notes holds free-form follow-up notes.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is when the order was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the order was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the order version for optimistic locking.
	Version int64 `json:"version"`
}

// Clone returns a deep copy of the order. The checklist is copied by
// value so a clone never aliases the original's items.
func (o *WorkOrder) Clone() *WorkOrder {
	c := *o
	if o.ScheduledDate != nil {
		d := *o.ScheduledDate
		c.ScheduledDate = &d
	}
	if o.ClosedDate != nil {
		d := *o.ClosedDate
		c.ClosedDate = &d
	}
	if o.PostponedDate != nil {
		d := *o.PostponedDate
		c.PostponedDate = &d
	}
	c.Checklist = make([]ChecklistItem, len(o.Checklist))
	copy(c.Checklist, o.Checklist)
	return &c
}

// ChecklistItem is a single verification step attached to a preventive
// order. Ordinal is display ordering only; it never gates completion.
type ChecklistItem struct {
	// ID is the unique identifier for this item.
	ID string `json:"id"`

	// Name is the verification text shown to the technician.
	Name string `json:"name"`

	// IsRequired marks items that must be checked before completion.
	IsRequired bool `json:"is_required"`

	// Checked records whether the technician verified the item.
	Checked bool `json:"checked"`

	// Ordinal is the display position within the checklist.
	Ordinal int `json:"order"`
}

// TemplateItem is a checklist item as authored in a template: name and
// required flag, without runtime state.
type TemplateItem struct {
	// Name is the verification text.
	Name string `json:"name"`

	// IsRequired marks the item as completion-gating.
	IsRequired bool `json:"is_required"`

	// Ordinal is the display position.
	Ordinal int `json:"order"`
}

// ChecklistTemplate is an ordered list of template items used to seed the
// checklist of new preventive orders.
type ChecklistTemplate struct {
	// ID is the unique identifier for this template.
	ID string `json:"id"`

	// Name is the template name.
	Name string `json:"name"`

	// IsDefault marks the template used for new preventive orders.
	IsDefault bool `json:"is_default"`

	// Items are the ordered template items.
	Items []TemplateItem `json:"items"`

	// CreatedAt is when the template was created.
	CreatedAt time.Time `json:"created_at"`
}

// Actor identifies who is performing an engine operation. It is passed
// explicitly into every call so the engine never reads ambient session
// state.
type Actor struct {
	// ID is the user ID.
	ID string `json:"id"`

	// Name is the display name recorded in history entries.
	Name string `json:"name"`

	// Role is the authorization role (admin, supervisor, tecnico,
	// encargado_linea).
	Role string `json:"role"`
}

// HistoryEntry is one append-only change record. A successful transition
// appends one entry per changed field.
type HistoryEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// WorkOrderID is the order this entry belongs to.
	WorkOrderID string `json:"work_order_id"`

	// Action is the history action (creada, actualizada).
	Action string `json:"action"`

	// FieldChanged names the changed field for actualizada entries.
	FieldChanged string `json:"field_changed,omitempty"`

	// OldValue is the value before the change.
	OldValue string `json:"old_value,omitempty"`

	// NewValue is the value after the change.
	NewValue string `json:"new_value,omitempty"`

	// ChangedBy is the acting user's ID.
	ChangedBy string `json:"changed_by"`

	// ChangedByName is the acting user's display name.
	ChangedByName string `json:"changed_by_name"`

	// Timestamp is when the change happened.
	Timestamp time.Time `json:"timestamp"`
}

// History actions.
const (
	// HistoryActionCreated is recorded once when an order is created.
	HistoryActionCreated = "creada"

	// HistoryActionUpdated is recorded once per changed field on a
	// successful transition.
	HistoryActionUpdated = "actualizada"
)

// Payload carries the free-form fields merged into an order before a
// transition's preconditions run. Nil pointers leave the field untouched.
type Payload struct {
	// Title replaces the order title.
	Title *string `json:"title,omitempty"`

	// Description replaces the description/observations.
	Description *string `json:"description,omitempty"`

	// Priority replaces the priority.
	Priority *Priority `json:"priority,omitempty"`

	// Status overrides the status. Honored by edit only; other actions
	// derive the target status from the action itself.
	Status *Status `json:"status,omitempty"`

	// AssignedTo replaces the assigned technician.
	AssignedTo *string `json:"assigned_to,omitempty"`

	// ScheduledDate replaces the scheduled date. Honored by edit only;
	// postpone uses Date.
	ScheduledDate *string `json:"scheduled_date,omitempty"`

	// Date is the new date for postpone, as a calendar date string.
	Date *string `json:"date,omitempty"`

	// Reason is the postpone reason.
	Reason *string `json:"reason,omitempty"`

	// Notes is the partial close notes for partial_close, or free-form
	// notes otherwise.
	Notes *string `json:"notes,omitempty"`

	// Checklist replaces the checklist items (typically with checked
	// flags updated by the technician).
	Checklist []ChecklistItem `json:"checklist,omitempty"`

	// TechnicianSignature replaces the signature.
	TechnicianSignature *string `json:"technician_signature,omitempty"`

	// FailureCause replaces the failure cause. Corrective orders only.
	FailureCause *string `json:"failure_cause,omitempty"`

	// SparePartUsed replaces the spare part. Corrective orders only.
	SparePartUsed *string `json:"spare_part_used,omitempty"`

	// SparePartReference replaces the part reference. Corrective orders only.
	SparePartReference *string `json:"spare_part_reference,omitempty"`

	// EstimatedHours replaces the planned effort.
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
}

// TransitionResult is everything a successful Apply produced. The caller
// persists Order, Successor (if any), and History in one storage
// transaction so the transition is all-or-nothing.
type TransitionResult struct {
	// Order is the updated order.
	Order *WorkOrder `json:"order"`

	// Successor is the freshly constructed recurrence successor, or nil.
	Successor *WorkOrder `json:"successor,omitempty"`

	// History holds the entries appended by this transition, including
	// the successor's creation entry when a successor was produced.
	History []HistoryEntry `json:"history"`
}
