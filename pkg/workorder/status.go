package workorder

import (
	"encoding/json"
	"fmt"
)

// Status represents the lifecycle state of a work order. The wire values
// are the Spanish terms used throughout the plant floor UI and database.
type Status string

const (
	// StatusPending indicates the order has been created but work has not started.
	StatusPending Status = "pendiente"

	// StatusInProgress indicates a technician is actively working the order.
	StatusInProgress Status = "en_progreso"

	// StatusCompleted indicates the order was fully completed. Terminal.
	StatusCompleted Status = "completada"

	// StatusCancelled indicates the order was cancelled before completion. Terminal.
	StatusCancelled Status = "cancelada"

	// StatusPostponed indicates the order was rescheduled to a later date.
	// A postponed order may re-enter any later transition.
	StatusPostponed Status = "pospuesta"

	// StatusPartiallyClosed indicates the order was closed with pending
	// follow-up work, documented in the partial close notes. Terminal.
	StatusPartiallyClosed Status = "cerrada_parcial"
)

// IsTerminal returns true if the status is final for the life of this
// order instance. A recurrence successor, if any, is a new instance.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusPartiallyClosed
}

// IsClosed returns true if the status carries a closed date.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusPartiallyClosed
}

// Validate checks if the status is valid.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusPostponed, StatusPartiallyClosed:
		return nil
	default:
		return fmt.Errorf("invalid order status: %s", s)
	}
}

// OrderType represents the kind of maintenance work.
type OrderType string

const (
	// TypePreventive is scheduled preventive maintenance, often recurring.
	TypePreventive OrderType = "preventivo"

	// TypeCorrective is a reactive repair raised after a failure.
	TypeCorrective OrderType = "correctivo"
)

// Validate checks if the order type is valid.
func (t OrderType) Validate() error {
	switch t {
	case TypePreventive, TypeCorrective:
		return nil
	default:
		return fmt.Errorf("invalid order type: %s", t)
	}
}

// Priority represents the urgency of a work order.
type Priority string

const (
	// PriorityLow is routine work with no production impact.
	PriorityLow Priority = "baja"

	// PriorityMedium is the default priority.
	PriorityMedium Priority = "media"

	// PriorityHigh is work that degrades production if deferred.
	PriorityHigh Priority = "alta"

	// PriorityCritical is work blocking production.
	PriorityCritical Priority = "critica"
)

// Validate checks if the priority is valid.
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s", p)
	}
}

// Recurrence represents the interval rule governing automatic successor
// creation for preventive orders.
type Recurrence string

const (
	// RecurrenceNone disables successor creation.
	RecurrenceNone Recurrence = ""

	// RecurrenceDaily schedules the successor one day later.
	RecurrenceDaily Recurrence = "diario"

	// RecurrenceWeekly schedules the successor seven days later.
	RecurrenceWeekly Recurrence = "semanal"

	// RecurrenceMonthly schedules the successor one calendar month later,
	// clamping to the last valid day of the target month.
	RecurrenceMonthly Recurrence = "mensual"

	// RecurrenceQuarterly schedules the successor three calendar months later.
	RecurrenceQuarterly Recurrence = "trimestral"

	// RecurrenceYearly schedules the successor one calendar year later.
	RecurrenceYearly Recurrence = "anual"
)

// Validate checks if the recurrence is valid. The empty value is valid
// and means no recurrence.
func (r Recurrence) Validate() error {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly,
		RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return nil
	default:
		return fmt.Errorf("invalid recurrence: %s", r)
	}
}

// Action represents a state machine transition request.
type Action string

const (
	// ActionStart moves a pending order into progress.
	ActionStart Action = "start"

	// ActionComplete closes the order as fully done. For preventive orders
	// every required checklist item must be checked first.
	ActionComplete Action = "complete"

	// ActionCancel cancels the order. No successor is scheduled.
	ActionCancel Action = "cancel"

	// ActionPostpone reschedules the order to a new date.
	ActionPostpone Action = "postpone"

	// ActionPartialClose closes the order with documented pending work.
	ActionPartialClose Action = "partial_close"

	// ActionEdit is an administrative field overwrite for privileged
	// actors. It routes through the same validation pipeline as the
	// other actions; it cannot bypass integrity checks.
	ActionEdit Action = "edit"
)

// Validate checks if the action is valid.
func (a Action) Validate() error {
	switch a {
	case ActionStart, ActionComplete, ActionCancel,
		ActionPostpone, ActionPartialClose, ActionEdit:
		return nil
	default:
		return fmt.Errorf("invalid action: %s", a)
	}
}

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Status(str)
	return s.Validate()
}
