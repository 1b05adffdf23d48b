package workorder

import (
	"reflect"
	"testing"
)

func newTestMachine() *StateMachine {
	return NewStateMachine(&fakeClock{now: date("2024-01-20")}, &seqIDs{})
}

func TestApplyStart(t *testing.T) {
	m := newTestMachine()
	order := preventiveOrder()

	res, err := m.Apply(order, ActionStart, nil, testActor)
	if err != nil {
		t.Fatalf("Apply(start) error = %v", err)
	}
	if res.Order.Status != StatusInProgress {
		t.Errorf("status = %s, want %s", res.Order.Status, StatusInProgress)
	}
	if order.Status != StatusPending {
		t.Error("input order was mutated")
	}
	if res.Order.Version != order.Version+1 {
		t.Errorf("version = %d, want %d", res.Order.Version, order.Version+1)
	}
}

func TestApplyCompleteChecklistGate(t *testing.T) {
	m := newTestMachine()
	order := preventiveOrder()
	order.Checklist[1].Checked = false

	before := order.Clone()
	res, err := m.Apply(order, ActionComplete, nil, testActor)
	if !IsChecklistIncomplete(err) {
		t.Fatalf("Apply(complete) err = %v, want ChecklistIncomplete", err)
	}
	if res != nil {
		t.Error("failed transition must not return a result")
	}
	if !reflect.DeepEqual(order, before) {
		t.Error("failed transition must leave the order unmodified")
	}
}

func TestApplyCompleteGateUsesMergedChecklist(t *testing.T) {
	// The technician checks the last required item in the same call that
	// completes the order; the payload merges before the gate runs.
	m := newTestMachine()
	order := preventiveOrder()
	order.Checklist[1].Checked = false

	updated := make([]ChecklistItem, len(order.Checklist))
	copy(updated, order.Checklist)
	updated[1].Checked = true

	res, err := m.Apply(order, ActionComplete, &Payload{Checklist: updated}, testActor)
	if err != nil {
		t.Fatalf("Apply(complete) error = %v", err)
	}
	if res.Order.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", res.Order.Status, StatusCompleted)
	}
}

func TestApplyCompleteSpawnsSuccessor(t *testing.T) {
	m := newTestMachine()
	order := preventiveOrder()

	res, err := m.Apply(order, ActionComplete, nil, testActor)
	if err != nil {
		t.Fatalf("Apply(complete) error = %v", err)
	}
	if res.Order.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", res.Order.Status, StatusCompleted)
	}
	if res.Order.ClosedDate == nil {
		t.Fatal("completed order must carry a closed date")
	}
	if res.Successor == nil {
		t.Fatal("recurring preventive completion must spawn a successor")
	}
	if got := res.Successor.ScheduledDate.Format("2006-01-02"); got != "2024-02-15" {
		t.Errorf("successor scheduled date = %s, want 2024-02-15", got)
	}
	for _, item := range res.Successor.Checklist {
		if item.Checked {
			t.Error("successor checklist must be fully unchecked")
		}
	}

	var creation int
	for _, h := range res.History {
		if h.Action == HistoryActionCreated {
			creation++
			if h.WorkOrderID != res.Successor.ID {
				t.Errorf("creation entry order id = %s, want %s", h.WorkOrderID, res.Successor.ID)
			}
		}
	}
	if creation != 1 {
		t.Errorf("creation entries = %d, want 1", creation)
	}
}

func TestApplyCompleteNoSuccessor(t *testing.T) {
	m := newTestMachine()

	t.Run("corrective", func(t *testing.T) {
		res, err := m.Apply(correctiveOrder(), ActionComplete, nil, testActor)
		if err != nil {
			t.Fatalf("Apply(complete) error = %v", err)
		}
		if res.Successor != nil {
			t.Error("corrective completion must not spawn a successor")
		}
	})

	t.Run("no recurrence", func(t *testing.T) {
		order := preventiveOrder()
		order.Recurrence = RecurrenceNone
		res, err := m.Apply(order, ActionComplete, nil, testActor)
		if err != nil {
			t.Fatalf("Apply(complete) error = %v", err)
		}
		if res.Successor != nil {
			t.Error("one-off preventive completion must not spawn a successor")
		}
	})
}

func TestApplyCancel(t *testing.T) {
	m := newTestMachine()
	order := preventiveOrder()

	res, err := m.Apply(order, ActionCancel, nil, testActor)
	if err != nil {
		t.Fatalf("Apply(cancel) error = %v", err)
	}
	if res.Order.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", res.Order.Status, StatusCancelled)
	}
	if res.Order.ClosedDate != nil {
		t.Error("cancelled orders carry no closed date")
	}
	if res.Successor != nil {
		t.Error("cancel must not spawn a successor")
	}
}

func TestApplyPostpone(t *testing.T) {
	m := newTestMachine()
	order := preventiveOrder()
	newDate := "2024-03-01"
	reason := "Parada de producción"

	res, err := m.Apply(order, ActionPostpone, &Payload{Date: &newDate, Reason: &reason}, testActor)
	if err != nil {
		t.Fatalf("Apply(postpone) error = %v", err)
	}
	if res.Order.Status != StatusPostponed {
		t.Errorf("status = %s, want %s", res.Order.Status, StatusPostponed)
	}
	if got := res.Order.ScheduledDate.Format("2006-01-02"); got != newDate {
		t.Errorf("scheduled date = %s, want %s", got, newDate)
	}
	if res.Order.PostponeReason != reason {
		t.Errorf("postpone reason = %q, want %q", res.Order.PostponeReason, reason)
	}
	if !reflect.DeepEqual(res.Order.Checklist, order.Checklist) {
		t.Error("postpone must not touch the checklist")
	}
	if res.Order.Recurrence != order.Recurrence {
		t.Error("postpone must not touch the recurrence")
	}
}

func TestApplyPostponeInvalidDate(t *testing.T) {
	m := newTestMachine()
	empty := ""
	garbage := "mañana"

	for _, payload := range []*Payload{nil, {}, {Date: &empty}, {Date: &garbage}} {
		order := preventiveOrder()
		if _, err := m.Apply(order, ActionPostpone, payload, testActor); !IsInvalidDate(err) {
			t.Errorf("Apply(postpone, %+v) err = %v, want InvalidDate", payload, err)
		}
		if order.Status != StatusPending {
			t.Error("failed postpone must leave the status unchanged")
		}
	}
}

func TestApplyPostponeAcceptsPastDate(t *testing.T) {
	m := newTestMachine()
	past := "2020-05-01"
	if _, err := m.Apply(preventiveOrder(), ActionPostpone, &Payload{Date: &past}, testActor); err != nil {
		t.Errorf("Apply(postpone, past date) error = %v, want success", err)
	}
}

func TestApplyPartialClose(t *testing.T) {
	m := newTestMachine()

	t.Run("empty notes rejected", func(t *testing.T) {
		order := preventiveOrder()
		notes := ""
		_, err := m.Apply(order, ActionPartialClose, &Payload{Notes: &notes}, testActor)
		if !IsMissingNotes(err) {
			t.Fatalf("err = %v, want MissingNotes", err)
		}
		if order.Status != StatusPending {
			t.Error("failed partial close must leave the status unchanged")
		}
	})

	t.Run("notes recorded", func(t *testing.T) {
		notes := "Falta sustituir la correa"
		res, err := m.Apply(preventiveOrder(), ActionPartialClose, &Payload{Notes: &notes}, testActor)
		if err != nil {
			t.Fatalf("Apply(partial_close) error = %v", err)
		}
		if res.Order.Status != StatusPartiallyClosed {
			t.Errorf("status = %s, want %s", res.Order.Status, StatusPartiallyClosed)
		}
		if res.Order.PartialCloseNotes != notes {
			t.Errorf("notes = %q, want %q", res.Order.PartialCloseNotes, notes)
		}
		if res.Order.ClosedDate == nil {
			t.Error("partially closed orders carry a closed date")
		}
	})
}

func TestApplyIllegalTransitions(t *testing.T) {
	m := newTestMachine()
	tests := []struct {
		name   string
		status Status
		action Action
	}{
		{"start from in progress", StatusInProgress, ActionStart},
		{"start from completed", StatusCompleted, ActionStart},
		{"complete from cancelled", StatusCancelled, ActionComplete},
		{"postpone from completed", StatusCompleted, ActionPostpone},
		{"partial close from partially closed", StatusPartiallyClosed, ActionPartialClose},
		{"cancel from completed", StatusCompleted, ActionCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := preventiveOrder()
			order.Status = tt.status
			if _, err := m.Apply(order, tt.action, nil, testActor); !IsIllegalTransition(err) {
				t.Errorf("err = %v, want IllegalTransition", err)
			}
		})
	}
}

func TestApplyPostponedReentry(t *testing.T) {
	m := newTestMachine()
	for _, action := range []Action{ActionStart, ActionComplete, ActionCancel, ActionPartialClose} {
		order := preventiveOrder()
		order.Status = StatusPostponed
		payload := &Payload{}
		if action == ActionPartialClose {
			notes := "pendiente"
			payload.Notes = &notes
		}
		if _, err := m.Apply(order, action, payload, testActor); err != nil {
			t.Errorf("Apply(%s) from pospuesta error = %v, want success", action, err)
		}
	}
}

func TestApplyEdit(t *testing.T) {
	m := newTestMachine()

	t.Run("field overwrite", func(t *testing.T) {
		order := preventiveOrder()
		priority := PriorityCritical
		assigned := "u-7"
		res, err := m.Apply(order, ActionEdit, &Payload{Priority: &priority, AssignedTo: &assigned}, testActor)
		if err != nil {
			t.Fatalf("Apply(edit) error = %v", err)
		}
		if res.Order.Priority != PriorityCritical || res.Order.AssignedTo != "u-7" {
			t.Errorf("edit result = %+v, want overwritten fields", res.Order)
		}
	})

	t.Run("status completada still gated", func(t *testing.T) {
		order := preventiveOrder()
		order.Checklist[0].Checked = false
		status := StatusCompleted
		if _, err := m.Apply(order, ActionEdit, &Payload{Status: &status}, testActor); !IsChecklistIncomplete(err) {
			t.Errorf("err = %v, want ChecklistIncomplete", err)
		}
	})

	t.Run("status completada spawns successor", func(t *testing.T) {
		order := preventiveOrder()
		status := StatusCompleted
		res, err := m.Apply(order, ActionEdit, &Payload{Status: &status}, testActor)
		if err != nil {
			t.Fatalf("Apply(edit) error = %v", err)
		}
		if res.Successor == nil {
			t.Error("reaching completada through edit must still spawn the successor")
		}
		if res.Order.ClosedDate == nil {
			t.Error("completada through edit must set the closed date")
		}
	})

	t.Run("reopening clears closed date", func(t *testing.T) {
		order := preventiveOrder()
		order.Status = StatusCompleted
		closed := date("2024-01-18")
		order.ClosedDate = &closed
		status := StatusPending
		res, err := m.Apply(order, ActionEdit, &Payload{Status: &status}, testActor)
		if err != nil {
			t.Fatalf("Apply(edit) error = %v", err)
		}
		if res.Order.ClosedDate != nil {
			t.Error("reopened order must not carry a closed date")
		}
	})

	t.Run("type scrubbing", func(t *testing.T) {
		order := preventiveOrder()
		cause := "desgaste"
		res, err := m.Apply(order, ActionEdit, &Payload{FailureCause: &cause}, testActor)
		if err != nil {
			t.Fatalf("Apply(edit) error = %v", err)
		}
		if res.Order.FailureCause != "" {
			t.Error("corrective fields must be ignored on preventive orders")
		}
	})
}

func TestApplyHistoryPerChangedField(t *testing.T) {
	m := newTestMachine()
	order := correctiveOrder()
	title := "Fuga de aceite en bomba"
	cause := "desgaste"

	res, err := m.Apply(order, ActionEdit, &Payload{Title: &title, FailureCause: &cause}, testActor)
	if err != nil {
		t.Fatalf("Apply(edit) error = %v", err)
	}

	fields := map[string]HistoryEntry{}
	for _, h := range res.History {
		if h.Action != HistoryActionUpdated {
			t.Errorf("history action = %s, want %s", h.Action, HistoryActionUpdated)
		}
		fields[h.FieldChanged] = h
	}
	if len(fields) != 2 {
		t.Fatalf("history fields = %v, want exactly title and failure_cause", fields)
	}
	got := fields["title"]
	if got.OldValue != "Fuga de aceite" || got.NewValue != title {
		t.Errorf("title entry = %+v", got)
	}
	if got.ChangedBy != testActor.ID || got.ChangedByName != testActor.Name {
		t.Errorf("actor attribution = %s/%s, want %s/%s", got.ChangedBy, got.ChangedByName, testActor.ID, testActor.Name)
	}
}
