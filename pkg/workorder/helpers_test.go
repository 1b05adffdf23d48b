package workorder

import (
	"errors"
	"fmt"
	"time"
)

var errFake = errors.New("template source unavailable")

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// seqIDs returns id-1, id-2, ... deterministically.
type seqIDs struct {
	n int
}

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// fakeTemplates serves a canned default template.
type fakeTemplates struct {
	tpl *ChecklistTemplate
	err error
}

func (f *fakeTemplates) DefaultTemplate() (*ChecklistTemplate, error) {
	return f.tpl, f.err
}

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(value string) *time.Time {
	t := date(value)
	return &t
}

func preventiveOrder() *WorkOrder {
	scheduled := date("2024-01-15")
	return &WorkOrder{
		ID:            "wo-1",
		Title:         "Revisión mensual compresor",
		Description:   "Inspección general",
		Type:          TypePreventive,
		Priority:      PriorityMedium,
		Status:        StatusPending,
		MachineID:     "m-1",
		AssignedTo:    "u-2",
		CreatedBy:     "u-1",
		ScheduledDate: &scheduled,
		Recurrence:    RecurrenceMonthly,
		Checklist: []ChecklistItem{
			{ID: "ci-1", Name: "Área o máquina recogida", IsRequired: true, Checked: true, Ordinal: 1},
			{ID: "ci-2", Name: "Orden y limpieza", IsRequired: true, Checked: true, Ordinal: 2},
			{ID: "ci-3", Name: "Engrase de rodamientos", IsRequired: false, Checked: false, Ordinal: 3},
		},
		CreatedAt: date("2024-01-01"),
		UpdatedAt: date("2024-01-01"),
		Version:   1,
	}
}

func correctiveOrder() *WorkOrder {
	scheduled := date("2024-01-10")
	return &WorkOrder{
		ID:            "wo-2",
		Title:         "Fuga de aceite",
		Description:   "Fuga en el circuito hidráulico",
		Type:          TypeCorrective,
		Priority:      PriorityHigh,
		Status:        StatusPending,
		MachineID:     "m-1",
		CreatedBy:     "u-1",
		ScheduledDate: &scheduled,
		CreatedAt:     date("2024-01-09"),
		UpdatedAt:     date("2024-01-09"),
		Version:       1,
	}
}

var testActor = Actor{ID: "u-9", Name: "Marta García", Role: "supervisor"}
