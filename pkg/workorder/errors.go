package workorder

import (
	"errors"
	"fmt"
)

// Rule identifies the validation rule that rejected a transition.
type Rule string

const (
	// RuleChecklistIncomplete indicates a preventive order cannot be
	// completed because a required checklist item is unchecked.
	RuleChecklistIncomplete Rule = "checklist_incomplete"

	// RuleInvalidDate indicates a missing or unparseable date payload.
	RuleInvalidDate Rule = "invalid_date"

	// RuleMissingNotes indicates a partial close without notes.
	RuleMissingNotes Rule = "missing_notes"

	// RuleCannotRemoveRequired indicates an attempt to remove a required
	// checklist item.
	RuleCannotRemoveRequired Rule = "cannot_remove_required"

	// RuleIllegalTransition indicates the action is not defined for the
	// order's current status.
	RuleIllegalTransition Rule = "illegal_transition"
)

// ValidationError is the only error class the engine produces. It is
// caller-recoverable: the order is left unmodified and the error carries
// the failing field and rule for user-facing messaging.
type ValidationError struct {
	// Rule is the validation rule that failed.
	Rule Rule `json:"rule"`

	// Field is the order field the rule applies to, if any.
	Field string `json:"field,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Err is the underlying error that caused this error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field=%s)", e.Rule, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Rule, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Rule == t.Rule
}

// NewChecklistIncompleteError creates the error returned when a required
// checklist item blocks completion.
func NewChecklistIncompleteError(itemName string) *ValidationError {
	return &ValidationError{
		Rule:    RuleChecklistIncomplete,
		Field:   "checklist",
		Message: fmt.Sprintf("required checklist item %q is not checked", itemName),
	}
}

// NewInvalidDateError creates the error returned for a missing or
// unparseable date.
func NewInvalidDateError(field string, err error) *ValidationError {
	return &ValidationError{
		Rule:    RuleInvalidDate,
		Field:   field,
		Message: "date is missing or not parseable",
		Err:     err,
	}
}

// NewMissingNotesError creates the error returned when a partial close
// carries no notes.
func NewMissingNotesError() *ValidationError {
	return &ValidationError{
		Rule:    RuleMissingNotes,
		Field:   "partial_close_notes",
		Message: "partial close requires non-empty notes",
	}
}

// NewCannotRemoveRequiredError creates the error returned when removing a
// required checklist item.
func NewCannotRemoveRequiredError(itemName string) *ValidationError {
	return &ValidationError{
		Rule:    RuleCannotRemoveRequired,
		Field:   "checklist",
		Message: fmt.Sprintf("checklist item %q is required and cannot be removed", itemName),
	}
}

// NewIllegalTransitionError creates the error returned when an action is
// undefined for the current status.
func NewIllegalTransitionError(action Action, status Status) *ValidationError {
	return &ValidationError{
		Rule:    RuleIllegalTransition,
		Field:   "status",
		Message: fmt.Sprintf("action %q is not allowed from status %q", action, status),
	}
}

// IsChecklistIncomplete returns true if the error is a checklist gating failure.
func IsChecklistIncomplete(err error) bool {
	return hasRule(err, RuleChecklistIncomplete)
}

// IsInvalidDate returns true if the error is a date validation failure.
func IsInvalidDate(err error) bool {
	return hasRule(err, RuleInvalidDate)
}

// IsMissingNotes returns true if the error is a missing-notes failure.
func IsMissingNotes(err error) bool {
	return hasRule(err, RuleMissingNotes)
}

// IsCannotRemoveRequired returns true if the error is a required-item removal failure.
func IsCannotRemoveRequired(err error) bool {
	return hasRule(err, RuleCannotRemoveRequired)
}

// IsIllegalTransition returns true if the error is an illegal transition.
func IsIllegalTransition(err error) bool {
	return hasRule(err, RuleIllegalTransition)
}

func hasRule(err error, rule Rule) bool {
	var e *ValidationError
	if errors.As(err, &e) {
		return e.Rule == rule
	}
	return false
}
