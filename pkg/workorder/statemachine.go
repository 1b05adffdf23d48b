package workorder

// StateMachine owns the legal transitions, their preconditions, and
// their side effects. Apply is the single entry point; the caller
// persists the returned result in one storage transaction.
type StateMachine struct {
	clock     Clock
	ids       IDGenerator
	scheduler *Scheduler
	recorder  *Recorder
}

// NewStateMachine creates a state machine with the given collaborators.
func NewStateMachine(clock Clock, ids IDGenerator) *StateMachine {
	return &StateMachine{
		clock:     clock,
		ids:       ids,
		scheduler: NewScheduler(clock, ids),
		recorder:  NewRecorder(clock, ids),
	}
}

// legalFrom lists the statuses each action may be applied from. Actions
// absent from the map are legal from any non-terminal status.
var legalFrom = map[Action][]Status{
	ActionStart:    {StatusPending, StatusPostponed},
	ActionComplete: {StatusPending, StatusInProgress, StatusPostponed},
	ActionCancel:   {StatusPending, StatusInProgress, StatusPostponed},
}

// CanApply reports whether the action is defined for the given status.
func CanApply(action Action, status Status) bool {
	if action == ActionEdit {
		// Edits exist to correct mis-set fields and are legal from any
		// status, terminal included. Integrity checks still apply.
		return true
	}
	allowed, ok := legalFrom[action]
	if !ok {
		return !status.IsTerminal()
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// Apply executes one transition. On success it returns the updated
// order, the recurrence successor when one was spawned, and the history
// entries to append. On a ValidationError the input order is left
// unmodified: all work happens on a deep copy that is only returned
// when every precondition passed.
func (m *StateMachine) Apply(order *WorkOrder, action Action, payload *Payload, actor Actor) (*TransitionResult, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if !CanApply(action, order.Status) {
		return nil, NewIllegalTransitionError(action, order.Status)
	}
	if payload == nil {
		payload = &Payload{}
	}

	next := order.Clone()

	switch action {
	case ActionStart:
		next.Status = StatusInProgress

	case ActionComplete:
		mergePayload(next, payload)
		if next.Type == TypePreventive {
			if item := FirstIncompleteItem(next.Checklist); item != nil {
				return nil, NewChecklistIncompleteError(item.Name)
			}
		}
		m.close(next, StatusCompleted)

	case ActionCancel:
		next.Status = StatusCancelled
		next.ClosedDate = nil

	case ActionPostpone:
		if payload.Date == nil || *payload.Date == "" {
			return nil, NewInvalidDateError("date", nil)
		}
		date, err := ParseDate(*payload.Date)
		if err != nil {
			return nil, NewInvalidDateError("date", err)
		}
		next.Status = StatusPostponed
		next.ScheduledDate = &date
		next.PostponedDate = &date
		if payload.Reason != nil {
			next.PostponeReason = *payload.Reason
		}

	case ActionPartialClose:
		if payload.Notes == nil || *payload.Notes == "" {
			return nil, NewMissingNotesError()
		}
		next.PartialCloseNotes = *payload.Notes
		m.close(next, StatusPartiallyClosed)

	case ActionEdit:
		mergePayload(next, payload)
		if payload.Status != nil {
			if err := payload.Status.Validate(); err != nil {
				return nil, err
			}
			next.Status = *payload.Status
		}
		if payload.ScheduledDate != nil {
			date, err := ParseDate(*payload.ScheduledDate)
			if err != nil {
				return nil, NewInvalidDateError("scheduled_date", err)
			}
			next.ScheduledDate = &date
		}
		// Edits cannot bypass integrity: closing statuses keep their
		// gating preconditions, and closed_date tracks the status.
		if next.Status == StatusCompleted && next.Type == TypePreventive {
			if item := FirstIncompleteItem(next.Checklist); item != nil {
				return nil, NewChecklistIncompleteError(item.Name)
			}
		}
		if next.Status == StatusPartiallyClosed && next.PartialCloseNotes == "" {
			return nil, NewMissingNotesError()
		}
		if next.Status.IsClosed() {
			if order.ClosedDate == nil {
				now := m.clock.Now()
				next.ClosedDate = &now
			}
		} else {
			next.ClosedDate = nil
		}
	}

	next.UpdatedAt = m.clock.Now()
	next.Version = order.Version + 1

	result := &TransitionResult{Order: next}
	result.History = m.recorder.DiffEntries(order, next, actor)

	// Completing a recurring preventive order spawns its successor, no
	// matter which action carried the status there.
	if next.Status == StatusCompleted && order.Status != StatusCompleted && m.scheduler.HasSuccessor(next) {
		successor, err := m.scheduler.Next(next)
		if err != nil {
			return nil, err
		}
		result.Successor = successor
		result.History = append(result.History, m.recorder.CreationEntry(successor, actor))
	}

	return result, nil
}

// close marks the order closed with the given status and stamps the
// closed date.
func (m *StateMachine) close(o *WorkOrder, status Status) {
	now := m.clock.Now()
	o.Status = status
	o.ClosedDate = &now
}

// mergePayload applies the payload's free-form fields onto the order.
// Fields belonging to the other order type are ignored: checklist and
// signature are preventive-only, failure and spare part fields are
// corrective-only.
func mergePayload(o *WorkOrder, p *Payload) {
	if p.Title != nil {
		o.Title = *p.Title
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Priority != nil {
		o.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		o.AssignedTo = *p.AssignedTo
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.EstimatedHours != nil {
		o.EstimatedHours = *p.EstimatedHours
	}
	if o.Type == TypePreventive {
		if p.Checklist != nil {
			o.Checklist = make([]ChecklistItem, len(p.Checklist))
			copy(o.Checklist, p.Checklist)
		}
		if p.TechnicianSignature != nil {
			o.TechnicianSignature = *p.TechnicianSignature
		}
	}
	if o.Type == TypeCorrective {
		if p.FailureCause != nil {
			o.FailureCause = *p.FailureCause
		}
		if p.SparePartUsed != nil {
			o.SparePartUsed = *p.SparePartUsed
		}
		if p.SparePartReference != nil {
			o.SparePartReference = *p.SparePartReference
		}
	}
}
