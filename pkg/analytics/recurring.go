package analytics

import (
	"sort"
	"strings"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// RecurringIssue is one group of corrective orders on a single machine
// that share a normalized title and description.
type RecurringIssue struct {
	// Title is the title of the most recent occurrence.
	Title string `json:"title"`

	// Description is the description of the most recent occurrence.
	Description string `json:"description"`

	// FailureCause is the failure cause of the most recent occurrence.
	FailureCause string `json:"failure_cause"`

	// Count is the number of matching orders.
	Count int `json:"count"`
}

// MachineRecurring lists the recurring issues of one machine.
type MachineRecurring struct {
	// MachineID identifies the machine.
	MachineID string `json:"machine_id"`

	// MachineName is the resolved display name, if available.
	MachineName string `json:"machine_name,omitempty"`

	// TotalRecurring is the sum of the group counts on this machine.
	TotalRecurring int `json:"total_recurring"`

	// Issues are the machine's recurring groups, largest first.
	Issues []RecurringIssue `json:"recurring_issues"`
}

// TopIssue is one entry of the cross-machine headline list.
type TopIssue struct {
	// MachineID identifies the machine.
	MachineID string `json:"machine_id"`

	// MachineName is the resolved display name, if available.
	MachineName string `json:"machine_name,omitempty"`

	// Title is the issue title.
	Title string `json:"title"`

	// Description is the issue description.
	Description string `json:"description"`

	// Count is the number of matching orders.
	Count int `json:"count"`
}

// RecurringSummary holds the detector's headline figures.
type RecurringSummary struct {
	// MachinesAnalyzed is the count of distinct machines with at least
	// one corrective order.
	MachinesAnalyzed int `json:"machines_analyzed"`

	// MachinesWithRecurringIssues is the count of machines with at
	// least one qualifying group.
	MachinesWithRecurringIssues int `json:"machines_with_recurring_issues"`

	// TotalRecurringIssues is the sum of group counts across machines.
	TotalRecurringIssues int `json:"total_recurring_issues"`
}

// RecurringReport is the full output of DetectRecurringFailures.
type RecurringReport struct {
	// Summary holds the headline figures.
	Summary RecurringSummary `json:"summary"`

	// TopRecurringIssues is the flattened cross-machine top 10,
	// largest count first.
	TopRecurringIssues []TopIssue `json:"top_recurring_issues"`

	// MachinesWithRecurring lists affected machines, most affected first.
	MachinesWithRecurring []MachineRecurring `json:"machines_with_recurring"`
}

// NormalizeIssueText folds case, trims, and collapses internal
// whitespace so that formatting-only variants of the same failure text
// compare equal. Distinct wording stays distinct: matching is exact on
// the normalized text, never fuzzy.
func NormalizeIssueText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// issueKey builds the per-machine comparison key from the normalized
// title and description.
func issueKey(o *workorder.WorkOrder) string {
	return NormalizeIssueText(o.Title) + "\x00" + NormalizeIssueText(o.Description)
}

// DetectRecurringFailures clusters corrective orders per machine by
// their normalized title and description; a group recorded two or more
// times is a recurring issue. The machines directory resolves display
// names and may be nil. Non-corrective orders are ignored.
func DetectRecurringFailures(orders []workorder.WorkOrder, machines workorder.MachineDirectory) RecurringReport {
	type group struct {
		latest *workorder.WorkOrder
		count  int
	}
	perMachine := map[string]map[string]*group{}

	for i := range orders {
		o := &orders[i]
		if o.Type != workorder.TypeCorrective || o.MachineID == "" {
			continue
		}
		key := issueKey(o)
		if key == "\x00" {
			continue
		}
		byKey, ok := perMachine[o.MachineID]
		if !ok {
			byKey = map[string]*group{}
			perMachine[o.MachineID] = byKey
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{latest: o}
			byKey[key] = g
		}
		g.count++
		if o.CreatedAt.After(g.latest.CreatedAt) {
			g.latest = o
		}
	}

	report := RecurringReport{
		TopRecurringIssues:    []TopIssue{},
		MachinesWithRecurring: []MachineRecurring{},
	}
	report.Summary.MachinesAnalyzed = len(perMachine)

	for machineID, byKey := range perMachine {
		m := MachineRecurring{MachineID: machineID}
		if machines != nil {
			if name, ok := machines.MachineName(machineID); ok {
				m.MachineName = name
			}
		}
		for _, g := range byKey {
			if g.count < 2 {
				continue
			}
			m.Issues = append(m.Issues, RecurringIssue{
				Title:        g.latest.Title,
				Description:  g.latest.Description,
				FailureCause: g.latest.FailureCause,
				Count:        g.count,
			})
			m.TotalRecurring += g.count
		}
		if len(m.Issues) == 0 {
			continue
		}
		sort.Slice(m.Issues, func(i, j int) bool {
			if m.Issues[i].Count != m.Issues[j].Count {
				return m.Issues[i].Count > m.Issues[j].Count
			}
			return m.Issues[i].Title < m.Issues[j].Title
		})
		report.MachinesWithRecurring = append(report.MachinesWithRecurring, m)
		report.Summary.MachinesWithRecurringIssues++
		report.Summary.TotalRecurringIssues += m.TotalRecurring

		for _, issue := range m.Issues {
			report.TopRecurringIssues = append(report.TopRecurringIssues, TopIssue{
				MachineID:   m.MachineID,
				MachineName: m.MachineName,
				Title:       issue.Title,
				Description: issue.Description,
				Count:       issue.Count,
			})
		}
	}

	sort.Slice(report.MachinesWithRecurring, func(i, j int) bool {
		a, b := report.MachinesWithRecurring[i], report.MachinesWithRecurring[j]
		if a.TotalRecurring != b.TotalRecurring {
			return a.TotalRecurring > b.TotalRecurring
		}
		return a.MachineID < b.MachineID
	})
	sort.Slice(report.TopRecurringIssues, func(i, j int) bool {
		a, b := report.TopRecurringIssues[i], report.TopRecurringIssues[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.MachineID != b.MachineID {
			return a.MachineID < b.MachineID
		}
		return a.Title < b.Title
	})
	if len(report.TopRecurringIssues) > 10 {
		report.TopRecurringIssues = report.TopRecurringIssues[:10]
	}
	return report
}
