package workorder

import (
	"fmt"
	"time"
)

// AddInterval returns the date one recurrence interval after the given
// date. Day intervals shift the calendar day; month and year intervals
// advance the calendar month/year and clamp the day to the last valid
// day of the target month when the anchor day does not exist there
// (Jan 31 + 1 month is Feb 28, or Feb 29 in a leap year).
func AddInterval(date time.Time, recurrence Recurrence) (time.Time, error) {
	switch recurrence {
	case RecurrenceDaily:
		return date.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return date.AddDate(0, 0, 7), nil
	case RecurrenceMonthly:
		return addMonthsClamped(date, 1), nil
	case RecurrenceQuarterly:
		return addMonthsClamped(date, 3), nil
	case RecurrenceYearly:
		return addMonthsClamped(date, 12), nil
	default:
		return time.Time{}, fmt.Errorf("no interval defined for recurrence %q", recurrence)
	}
}

// addMonthsClamped advances by whole calendar months. time.AddDate
// normalizes overflow (Jan 31 + 1 month becomes Mar 2/3), so the day is
// clamped manually before constructing the result.
func addMonthsClamped(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if last := daysInMonth(year, time.Month(m)); day > last {
		day = last
	}
	h, min, sec := date.Clock()
	return time.Date(year, time.Month(m), day, h, min, sec, date.Nanosecond(), date.Location())
}

// daysInMonth returns the number of days in the given month. Day zero
// of the following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Scheduler constructs recurrence successors for completed preventive
// orders.
type Scheduler struct {
	clock Clock
	ids   IDGenerator
}

// NewScheduler creates a scheduler with the given collaborators.
func NewScheduler(clock Clock, ids IDGenerator) *Scheduler {
	return &Scheduler{clock: clock, ids: ids}
}

// HasSuccessor reports whether completing the order should spawn a
// successor. Only preventive orders with a recurrence rule qualify.
func (s *Scheduler) HasSuccessor(order *WorkOrder) bool {
	return order.Type == TypePreventive && order.Recurrence != RecurrenceNone
}

// Next builds the successor for a preventive order being completed. The
// successor is a brand-new instance: fresh ID, status pendiente, the
// scheduled date advanced one interval, and the checklist reset to all
// unchecked. The closing instance's signature, closed date, and filled
// checklist state are never carried over.
func (s *Scheduler) Next(order *WorkOrder) (*WorkOrder, error) {
	if !s.HasSuccessor(order) {
		return nil, fmt.Errorf("order %s is not recurring", order.ID)
	}
	anchor := order.CreatedAt
	if order.ScheduledDate != nil {
		anchor = *order.ScheduledDate
	}
	next, err := AddInterval(anchor, order.Recurrence)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return &WorkOrder{
		ID:             s.ids.NewID(),
		Title:          order.Title,
		Description:    order.Description,
		Type:           TypePreventive,
		Priority:       order.Priority,
		Status:         StatusPending,
		MachineID:      order.MachineID,
		AssignedTo:     order.AssignedTo,
		CreatedBy:      order.CreatedBy,
		ScheduledDate:  &next,
		Recurrence:     order.Recurrence,
		EstimatedHours: order.EstimatedHours,
		Checklist:      ResetChecklist(order.Checklist, s.ids),
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}, nil
}
