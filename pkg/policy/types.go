package policy

import (
	"time"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed but do
	// not block the action.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block the action.
	SeverityError Severity = "error"

	// SeverityCritical is for violations that block the action and must
	// be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderSummary is the order slice of the authorization input: just the
// fields policies gate on, never the full entity.
type OrderSummary struct {
	// ID is the order identifier.
	ID string `json:"id"`

	// Type is the order type.
	Type string `json:"type"`

	// Status is the current order status.
	Status string `json:"status"`

	// Priority is the order priority.
	Priority string `json:"priority"`
}

// SummarizeOrder projects a work order into its authorization summary.
func SummarizeOrder(o *workorder.WorkOrder) *OrderSummary {
	if o == nil {
		return nil
	}
	return &OrderSummary{
		ID:       o.ID,
		Type:     string(o.Type),
		Status:   string(o.Status),
		Priority: string(o.Priority),
	}
}

// AuthInput is the input document every policy evaluates against.
type AuthInput struct {
	// Actor is the user requesting the action.
	Actor workorder.Actor `json:"actor"`

	// Action is the requested transition action.
	Action workorder.Action `json:"action"`

	// Order summarizes the target order, if one exists yet.
	Order *OrderSummary `json:"order,omitempty"`

	// Context provides additional evaluation context.
	Context *AuthContext `json:"context,omitempty"`
}

// AuthContext provides context information for policy evaluation.
type AuthContext struct {
	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional context metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// OrderID is the order the violation applies to, if any.
	OrderID string `json:"order_id,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the outcome of an authorization check.
type Result struct {
	// Allowed indicates if the action is allowed.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems that did not block the action.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the check ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}
