package policy

import (
	"context"
	"testing"

	"github.com/openmaint/openmaint/pkg/workorder"
	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func authInput(role string, action workorder.Action, order *OrderSummary) *AuthInput {
	return &AuthInput{
		Actor:  workorder.Actor{ID: "u-1", Name: "Test", Role: role},
		Action: action,
		Order:  order,
	}
}

func TestNewEngineLoadsBuiltins(t *testing.T) {
	e := newTestEngine(t)
	policies := e.ListPolicies()
	if len(policies) != len(GetBuiltinPolicies()) {
		t.Errorf("loaded %d policies, want %d built-ins", len(policies), len(GetBuiltinPolicies()))
	}
	if _, err := e.GetPolicy("role-actions"); err != nil {
		t.Errorf("GetPolicy(role-actions) error = %v", err)
	}
}

func TestAuthorizeRoles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	order := &OrderSummary{ID: "wo-1", Type: "preventivo", Status: "pendiente", Priority: "media"}

	tests := []struct {
		name    string
		role    string
		action  workorder.Action
		allowed bool
	}{
		{"admin can edit", "admin", workorder.ActionEdit, true},
		{"admin can cancel", "admin", workorder.ActionCancel, true},
		{"supervisor can edit", "supervisor", workorder.ActionEdit, true},
		{"tecnico can start", "tecnico", workorder.ActionStart, true},
		{"tecnico can complete", "tecnico", workorder.ActionComplete, true},
		{"tecnico can postpone", "tecnico", workorder.ActionPostpone, true},
		{"tecnico can partial close", "tecnico", workorder.ActionPartialClose, true},
		{"tecnico cannot edit", "tecnico", workorder.ActionEdit, false},
		{"tecnico cannot cancel", "tecnico", workorder.ActionCancel, false},
		{"encargado can start", "encargado_linea", workorder.ActionStart, true},
		{"encargado cannot complete", "encargado_linea", workorder.ActionComplete, false},
		{"unknown role denied", "visitante", workorder.ActionStart, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Authorize(ctx, authInput(tt.role, tt.action, order))
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if result.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (violations: %v)", result.Allowed, tt.allowed, result.Violations)
			}
		})
	}
}

func TestAuthorizeCriticalCancelWarning(t *testing.T) {
	e := newTestEngine(t)
	order := &OrderSummary{ID: "wo-1", Type: "correctivo", Status: "pendiente", Priority: "critica"}

	result, err := e.Authorize(context.Background(), authInput("supervisor", workorder.ActionCancel, order))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if !result.Allowed {
		t.Errorf("warning severity must not block: %v", result.Violations)
	}
	found := false
	for _, v := range result.Violations {
		if v.Policy == "critical-cancel" && v.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("violations = %v, want a critical-cancel warning", result.Violations)
	}
}

func TestAuthorizeTerminalEdit(t *testing.T) {
	e := newTestEngine(t)
	closed := &OrderSummary{ID: "wo-1", Type: "preventivo", Status: "completada", Priority: "media"}

	result, err := e.Authorize(context.Background(), authInput("supervisor", workorder.ActionEdit, closed))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if result.Allowed {
		t.Error("supervisor editing a closed order must be denied")
	}

	result, err = e.Authorize(context.Background(), authInput("admin", workorder.ActionEdit, closed))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if !result.Allowed {
		t.Errorf("admin editing a closed order must be allowed: %v", result.Violations)
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	e := newTestEngine(t)
	order := &OrderSummary{ID: "wo-1", Status: "pendiente", Priority: "media"}

	if err := e.DisablePolicy("role-actions"); err != nil {
		t.Fatalf("DisablePolicy() error = %v", err)
	}
	result, err := e.Authorize(context.Background(), authInput("visitante", workorder.ActionStart, order))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if !result.Allowed {
		t.Error("disabled policies must not be evaluated")
	}

	if err := e.EnablePolicy("role-actions"); err != nil {
		t.Fatalf("EnablePolicy() error = %v", err)
	}
	result, err = e.Authorize(context.Background(), authInput("visitante", workorder.ActionStart, order))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if result.Allowed {
		t.Error("re-enabled policy must deny again")
	}

	if err := e.DisablePolicy("no-such-policy"); err == nil {
		t.Error("disabling an unknown policy must fail")
	}
}

func TestReloadPolicies(t *testing.T) {
	e := newTestEngine(t)
	if err := e.ReloadPolicies(context.Background()); err != nil {
		t.Fatalf("ReloadPolicies() error = %v", err)
	}
	if len(e.ListPolicies()) != len(GetBuiltinPolicies()) {
		t.Error("reload must restore the built-in policies")
	}
}
