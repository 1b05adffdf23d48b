package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// Classification buckets for preventive orders in a compliance window.
const (
	// ClassCompletedOnTime marks an order closed on or before its
	// scheduled date.
	ClassCompletedOnTime = "completed_on_time"

	// ClassCompletedLate marks an order closed after its scheduled date.
	ClassCompletedLate = "completed_late"

	// ClassPendingLate marks an open order whose scheduled date has
	// already passed.
	ClassPendingLate = "pending_late"

	// ClassExcluded marks orders outside the denominator: not yet due,
	// cancelled, or without a scheduled date.
	ClassExcluded = "excluded"
)

// GroupBy selects the grouping key for compliance breakdowns.
type GroupBy string

const (
	// GroupByMachine buckets orders per machine.
	GroupByMachine GroupBy = "machine"

	// GroupByMonth buckets orders per scheduled month (YYYY-MM).
	GroupByMonth GroupBy = "month"

	// GroupByAssignee buckets orders per assigned technician.
	GroupByAssignee GroupBy = "assignee"
)

// ComplianceSummary holds the headline compliance figures.
type ComplianceSummary struct {
	// Total is the number of orders in the denominator.
	Total int `json:"total"`

	// CompletedOnTime is the count closed on or before schedule.
	CompletedOnTime int `json:"completed_on_time"`

	// CompletedLate is the count closed after schedule.
	CompletedLate int `json:"completed_late"`

	// PendingLate is the count still open past schedule.
	PendingLate int `json:"pending_late"`

	// ComplianceRate is on-time work as a percentage, one decimal.
	ComplianceRate float64 `json:"compliance_rate"`
}

// PieSlice is one labelled slice of a two-slice compliance pie.
type PieSlice struct {
	// Name is the slice label.
	Name string `json:"name"`

	// Value is the slice count.
	Value int `json:"value"`

	// Color is the presentation hex color.
	Color string `json:"color"`
}

// GroupCompliance is the compliance breakdown for one group key.
type GroupCompliance struct {
	// Key is the group key (machine ID, YYYY-MM month, or user ID).
	Key string `json:"key"`

	// Summary holds the group's compliance figures.
	Summary ComplianceSummary `json:"summary"`
}

// MonthlyCompliance is one month of the on-time/late trend.
type MonthlyCompliance struct {
	// Month is the month key, YYYY-MM.
	Month string `json:"month"`

	// OnTime is the on-time count for the month.
	OnTime int `json:"a_tiempo"`

	// Late is the late count for the month.
	Late int `json:"atrasado"`
}

// ComplianceReport is the full output of EvaluateCompliance.
type ComplianceReport struct {
	// Summary holds the headline figures.
	Summary ComplianceSummary `json:"summary"`

	// PieData holds the two-slice on-time/late breakdown.
	PieData []PieSlice `json:"pie_data"`

	// ByGroup holds the per-group breakdown, sorted by key.
	ByGroup []GroupCompliance `json:"by_group"`

	// Monthly holds the trailing 12-month trend, oldest first.
	Monthly []MonthlyCompliance `json:"monthly"`
}

// ClassifyOrder buckets one preventive order against the current date.
// Orders that are cancelled, unscheduled, or simply not yet due fall
// outside the denominator.
func ClassifyOrder(o *workorder.WorkOrder, now time.Time) string {
	if o.ScheduledDate == nil || o.Status == workorder.StatusCancelled {
		return ClassExcluded
	}
	if o.Status == workorder.StatusCompleted {
		if o.ClosedDate != nil && o.ClosedDate.After(*o.ScheduledDate) {
			return ClassCompletedLate
		}
		return ClassCompletedOnTime
	}
	if o.ScheduledDate.Before(now) {
		return ClassPendingLate
	}
	return ClassExcluded
}

// EvaluateCompliance computes the compliance report for preventive
// orders scheduled inside [windowStart, windowEnd]. Zero window bounds
// disable that side of the filter. Empty input yields a zeroed report,
// never a division error.
func EvaluateCompliance(orders []workorder.WorkOrder, windowStart, windowEnd time.Time, groupBy GroupBy, now time.Time) ComplianceReport {
	var included []classified
	for i := range orders {
		o := &orders[i]
		if o.Type != workorder.TypePreventive {
			continue
		}
		if o.ScheduledDate != nil {
			if !windowStart.IsZero() && o.ScheduledDate.Before(windowStart) {
				continue
			}
			if !windowEnd.IsZero() && o.ScheduledDate.After(windowEnd) {
				continue
			}
		}
		class := ClassifyOrder(o, now)
		if class == ClassExcluded {
			continue
		}
		included = append(included, classified{order: o, class: class})
	}

	report := ComplianceReport{
		Summary: tallyCompliance(included),
		ByGroup: groupCompliance(included, groupBy),
		Monthly: monthlyTrend(included),
	}
	report.PieData = []PieSlice{
		{Name: "A tiempo", Value: report.Summary.CompletedOnTime, Color: "#22c55e"},
		{Name: "Atrasado", Value: report.Summary.CompletedLate + report.Summary.PendingLate, Color: "#ef4444"},
	}
	return report
}

type classified struct {
	order *workorder.WorkOrder
	class string
}

func tallyCompliance(items []classified) ComplianceSummary {
	var s ComplianceSummary
	for _, c := range items {
		switch c.class {
		case ClassCompletedOnTime:
			s.CompletedOnTime++
		case ClassCompletedLate:
			s.CompletedLate++
		case ClassPendingLate:
			s.PendingLate++
		}
	}
	s.Total = s.CompletedOnTime + s.CompletedLate + s.PendingLate
	s.ComplianceRate = ratePercent(s.CompletedOnTime, s.Total)
	return s
}

func groupCompliance(items []classified, groupBy GroupBy) []GroupCompliance {
	buckets := map[string][]classified{}
	for _, c := range items {
		key := groupKey(c.order, groupBy)
		buckets[key] = append(buckets[key], c)
	}
	out := make([]GroupCompliance, 0, len(buckets))
	for key, group := range buckets {
		out = append(out, GroupCompliance{Key: key, Summary: tallyCompliance(group)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func groupKey(o *workorder.WorkOrder, groupBy GroupBy) string {
	switch groupBy {
	case GroupByMonth:
		if o.ScheduledDate == nil {
			return ""
		}
		return o.ScheduledDate.Format("2006-01")
	case GroupByAssignee:
		return o.AssignedTo
	default:
		return o.MachineID
	}
}

// monthlyTrend buckets the classified orders by scheduled month and
// keeps the trailing 12 months, oldest first.
func monthlyTrend(items []classified) []MonthlyCompliance {
	months := map[string]*MonthlyCompliance{}
	for _, c := range items {
		if c.order.ScheduledDate == nil {
			continue
		}
		key := c.order.ScheduledDate.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyCompliance{Month: key}
			months[key] = m
		}
		if c.class == ClassCompletedOnTime {
			m.OnTime++
		} else {
			m.Late++
		}
	}
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 12 {
		keys = keys[len(keys)-12:]
	}
	out := make([]MonthlyCompliance, 0, len(keys))
	for _, k := range keys {
		out = append(out, *months[k])
	}
	return out
}

// ratePercent returns numerator/denominator as a percentage rounded to
// one decimal, and 0 when the denominator is 0.
func ratePercent(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*1000) / 10
}
