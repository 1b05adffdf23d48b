package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		roleActionsPolicy(),
		criticalCancelPolicy(),
		terminalEditPolicy(),
	}
}

// roleActionsPolicy maps plant roles to the transition actions they may
// perform. Admin and supervisor may perform everything.
func roleActionsPolicy() Policy {
	return Policy{
		Name:        "role-actions",
		Description: "Restricts transition actions to the roles allowed to perform them",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"authorization", "roles"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package openmaint.policies.roles

import rego.v1

privileged := {"admin", "supervisor"}

role_actions := {
	"tecnico": {"start", "complete", "postpone", "partial_close"},
	"encargado_linea": {"start", "postpone"},
}

deny contains violation if {
	not input.actor.role in privileged
	allowed := object.get(role_actions, input.actor.role, set())
	not input.action in allowed
	violation := {
		"message": sprintf("role '%s' may not perform action '%s'", [input.actor.role, input.action]),
		"severity": "error",
	}
}
`,
	}
}

// criticalCancelPolicy flags cancellations of critical priority orders
// by anyone below admin. Advisory only.
func criticalCancelPolicy() Policy {
	return Policy{
		Name:        "critical-cancel",
		Description: "Flags cancellation of critical priority orders by non-admin actors",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"authorization", "priority"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package openmaint.policies.critical

import rego.v1

deny contains violation if {
	input.action == "cancel"
	input.order.priority == "critica"
	input.actor.role != "admin"
	violation := {
		"message": sprintf("cancelling critical order %s as role '%s'; admin review advised", [input.order.id, input.actor.role]),
		"severity": "warning",
	}
}
`,
	}
}

// terminalEditPolicy restricts editing of closed orders to admin, since
// such edits rewrite historical records.
func terminalEditPolicy() Policy {
	return Policy{
		Name:        "terminal-edit",
		Description: "Only admin may edit orders already in a terminal status",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"authorization", "integrity"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package openmaint.policies.terminal

import rego.v1

terminal := {"completada", "cancelada", "cerrada_parcial"}

deny contains violation if {
	input.action == "edit"
	input.order.status in terminal
	input.actor.role != "admin"
	violation := {
		"message": sprintf("order %s is closed; only admin may edit it", [input.order.id]),
		"severity": "error",
	}
}
`,
	}
}
