package workorder

// NewOrderSpec carries the caller-supplied fields for order creation.
type NewOrderSpec struct {
	// Title is the order title.
	Title string `json:"title" validate:"required"`

	// Description is the failure report or planned work description.
	Description string `json:"description"`

	// Type is the order type (preventivo, correctivo).
	Type OrderType `json:"type" validate:"required"`

	// Priority is the order priority. Defaults to media.
	Priority Priority `json:"priority"`

	// MachineID identifies the target machine.
	MachineID string `json:"machine_id" validate:"required"`

	// AssignedTo is the assigned technician's user ID, if any.
	AssignedTo string `json:"assigned_to"`

	// ScheduledDate is the due date as a calendar date string.
	ScheduledDate string `json:"scheduled_date"`

	// Recurrence is the successor interval rule. Preventive orders only.
	Recurrence Recurrence `json:"recurrence"`

	// EstimatedHours is the planned effort.
	EstimatedHours float64 `json:"estimated_hours"`

	// FailureCause classifies the failure. Corrective orders only.
	FailureCause string `json:"failure_cause"`

	// SparePartUsed names the spare part consumed. Corrective orders only.
	SparePartUsed string `json:"spare_part_used"`

	// SparePartReference is the part catalogue reference. Corrective orders only.
	SparePartReference string `json:"spare_part_reference"`
}

// Factory builds new orders in status pendiente with their checklist
// seeded from the default template.
type Factory struct {
	clock     Clock
	ids       IDGenerator
	templates TemplateSource
	recorder  *Recorder
}

// NewFactory creates an order factory with the given collaborators.
func NewFactory(clock Clock, ids IDGenerator, templates TemplateSource) *Factory {
	return &Factory{
		clock:     clock,
		ids:       ids,
		templates: templates,
		recorder:  NewRecorder(clock, ids),
	}
}

// Create builds a new order from the spec. Fields belonging to the
// other order type are scrubbed: a preventive order carries no failure
// or spare part data, a corrective order carries no checklist,
// recurrence, or signature. The returned history holds the single
// creation entry.
func (f *Factory) Create(spec NewOrderSpec, actor Actor) (*WorkOrder, []HistoryEntry, error) {
	if err := spec.Type.Validate(); err != nil {
		return nil, nil, err
	}
	priority := spec.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if err := priority.Validate(); err != nil {
		return nil, nil, err
	}
	if err := spec.Recurrence.Validate(); err != nil {
		return nil, nil, err
	}

	now := f.clock.Now()
	order := &WorkOrder{
		ID:             f.ids.NewID(),
		Title:          spec.Title,
		Description:    spec.Description,
		Type:           spec.Type,
		Priority:       priority,
		Status:         StatusPending,
		MachineID:      spec.MachineID,
		AssignedTo:     spec.AssignedTo,
		CreatedBy:      actor.ID,
		EstimatedHours: spec.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	if spec.ScheduledDate != "" {
		date, err := ParseDate(spec.ScheduledDate)
		if err != nil {
			return nil, nil, NewInvalidDateError("scheduled_date", err)
		}
		order.ScheduledDate = &date
	}

	switch spec.Type {
	case TypePreventive:
		order.Recurrence = spec.Recurrence
		order.Checklist = DefaultChecklist(f.templates, f.ids)
	case TypeCorrective:
		order.FailureCause = spec.FailureCause
		order.SparePartUsed = spec.SparePartUsed
		order.SparePartReference = spec.SparePartReference
	}

	history := []HistoryEntry{f.recorder.CreationEntry(order, actor)}
	return order, history, nil
}
