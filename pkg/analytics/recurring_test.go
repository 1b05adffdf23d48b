package analytics

import (
	"testing"

	"github.com/openmaint/openmaint/pkg/workorder"
)

type fakeMachines map[string]string

func (f fakeMachines) MachineName(id string) (string, bool) {
	name, ok := f[id]
	return name, ok
}

func corrective(machineID, title, description, cause, created string) workorder.WorkOrder {
	return workorder.WorkOrder{
		Type:         workorder.TypeCorrective,
		Status:       workorder.StatusCompleted,
		MachineID:    machineID,
		Title:        title,
		Description:  description,
		FailureCause: cause,
		CreatedAt:    day(created),
	}
}

func TestNormalizeIssueText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cambio de rodamiento", "cambio de rodamiento"},
		{"cambio de rodamiento ", "cambio de rodamiento"},
		{"  CAMBIO   DE\trodamiento", "cambio de rodamiento"},
		{"Cambio rodamiento", "cambio rodamiento"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeIssueText(tt.in); got != tt.want {
			t.Errorf("NormalizeIssueText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectRecurringFailuresGrouping(t *testing.T) {
	orders := []workorder.WorkOrder{
		// Case and whitespace variants group together.
		corrective("m-1", "Cambio de rodamiento", "eje principal", "desgaste", "2024-01-01"),
		corrective("m-1", "cambio de rodamiento ", "Eje principal", "golpe", "2024-02-01"),
		// Different wording stays separate.
		corrective("m-1", "Cambio rodamiento", "eje principal", "", "2024-03-01"),
	}

	report := DetectRecurringFailures(orders, nil)

	if len(report.MachinesWithRecurring) != 1 {
		t.Fatalf("machines with recurring = %d, want 1", len(report.MachinesWithRecurring))
	}
	m := report.MachinesWithRecurring[0]
	if len(m.Issues) != 1 {
		t.Fatalf("issues = %v, want a single group", m.Issues)
	}
	if m.Issues[0].Count != 2 {
		t.Errorf("count = %d, want 2", m.Issues[0].Count)
	}
	if m.Issues[0].FailureCause != "golpe" {
		t.Errorf("failure cause = %q, want the most recent occurrence's %q", m.Issues[0].FailureCause, "golpe")
	}
}

func TestDetectRecurringFailuresThreeOccurrences(t *testing.T) {
	orders := []workorder.WorkOrder{
		corrective("m-1", "Fuga de aceite", "", "desgaste", "2024-01-01"),
		corrective("m-1", "fuga de aceite", "", "desgaste", "2024-02-01"),
		corrective("m-1", "FUGA DE ACEITE", "", "corrosion", "2024-03-01"),
	}

	report := DetectRecurringFailures(orders, fakeMachines{"m-1": "Prensa 3"})

	if len(report.MachinesWithRecurring) != 1 {
		t.Fatalf("machines with recurring = %d, want 1", len(report.MachinesWithRecurring))
	}
	m := report.MachinesWithRecurring[0]
	if m.MachineName != "Prensa 3" {
		t.Errorf("machine name = %q, want resolved name", m.MachineName)
	}
	if len(m.Issues) != 1 || m.Issues[0].Count != 3 {
		t.Fatalf("issues = %v, want one group of 3", m.Issues)
	}
	if m.TotalRecurring != 3 {
		t.Errorf("total recurring = %d, want 3", m.TotalRecurring)
	}
	if report.Summary.TotalRecurringIssues != 3 {
		t.Errorf("total recurring issues = %d, want sum of group counts", report.Summary.TotalRecurringIssues)
	}
}

func TestDetectRecurringFailuresSummaryAndOrdering(t *testing.T) {
	orders := []workorder.WorkOrder{
		corrective("m-1", "Fuga de aceite", "", "", "2024-01-01"),
		corrective("m-1", "Fuga de aceite", "", "", "2024-01-02"),
		corrective("m-2", "Correa rota", "", "", "2024-01-01"),
		corrective("m-2", "Correa rota", "", "", "2024-01-02"),
		corrective("m-2", "Correa rota", "", "", "2024-01-03"),
		corrective("m-3", "Sensor sucio", "", "", "2024-01-01"), // single: not recurring
	}

	report := DetectRecurringFailures(orders, nil)

	if report.Summary.MachinesAnalyzed != 3 {
		t.Errorf("machines analyzed = %d, want 3", report.Summary.MachinesAnalyzed)
	}
	if report.Summary.MachinesWithRecurringIssues != 2 {
		t.Errorf("machines with recurring = %d, want 2", report.Summary.MachinesWithRecurringIssues)
	}
	if report.Summary.TotalRecurringIssues != 5 {
		t.Errorf("total recurring issues = %d, want 5", report.Summary.TotalRecurringIssues)
	}
	if report.MachinesWithRecurring[0].MachineID != "m-2" {
		t.Errorf("first machine = %s, want the most affected m-2", report.MachinesWithRecurring[0].MachineID)
	}
	if len(report.TopRecurringIssues) != 2 || report.TopRecurringIssues[0].Count != 3 {
		t.Errorf("top issues = %v, want m-2's group first", report.TopRecurringIssues)
	}
}

func TestDetectRecurringFailuresEmpty(t *testing.T) {
	report := DetectRecurringFailures(nil, nil)
	if report.Summary.MachinesAnalyzed != 0 || report.Summary.TotalRecurringIssues != 0 {
		t.Errorf("summary = %+v, want all zero", report.Summary)
	}
	if len(report.TopRecurringIssues) != 0 || len(report.MachinesWithRecurring) != 0 {
		t.Error("empty input must yield empty lists")
	}
}

func TestDetectRecurringFailuresIgnoresNonCorrective(t *testing.T) {
	orders := []workorder.WorkOrder{
		{Type: workorder.TypePreventive, MachineID: "m-1", Title: "Revisión"},
		{Type: workorder.TypePreventive, MachineID: "m-1", Title: "Revisión"},
	}
	report := DetectRecurringFailures(orders, nil)
	if report.Summary.MachinesAnalyzed != 0 {
		t.Errorf("machines analyzed = %d, want preventive orders ignored", report.Summary.MachinesAnalyzed)
	}
}
