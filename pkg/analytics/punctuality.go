package analytics

import (
	"fmt"
	"sort"
	"time"
)

// StartRecord is one production line start: when the line was meant to
// start and when it actually did. Times are plant-local HH:MM strings
// on the record's calendar date.
type StartRecord struct {
	// ID is the record identifier.
	ID string `json:"id"`

	// LineID identifies the production line.
	LineID string `json:"line_id"`

	// DepartmentID identifies the line's department.
	DepartmentID string `json:"department_id"`

	// MachineID identifies the lead machine, if recorded.
	MachineID string `json:"machine_id,omitempty"`

	// Date is the calendar date of the start.
	Date time.Time `json:"date"`

	// TargetTime is the planned start, HH:MM.
	TargetTime string `json:"target_time"`

	// ActualTime is the observed start, HH:MM. Empty while pending.
	ActualTime string `json:"actual_time,omitempty"`

	// DelayReason documents why the start was late, if it was.
	DelayReason string `json:"delay_reason,omitempty"`
}

// StartGroupBy selects the grouping key for punctuality breakdowns.
type StartGroupBy string

const (
	// StartGroupByLine buckets records per production line.
	StartGroupByLine StartGroupBy = "line"

	// StartGroupByDepartment buckets records per department.
	StartGroupByDepartment StartGroupBy = "department"

	// StartGroupByMachine buckets records per machine.
	StartGroupByMachine StartGroupBy = "machine"

	// StartGroupByDay buckets records per calendar day.
	StartGroupByDay StartGroupBy = "day"
)

// PunctualityOptions parameterizes EvaluateStartPunctuality.
type PunctualityOptions struct {
	// GroupBy selects the breakdown key. Defaults to line.
	GroupBy StartGroupBy

	// Window is the trailing window length. Defaults to 30 days.
	Window time.Duration

	// Now anchors the trailing window.
	Now time.Time
}

// GroupPunctuality is the punctuality breakdown for one group key.
type GroupPunctuality struct {
	// Key is the group key.
	Key string `json:"key"`

	// Total is the records in this group.
	Total int `json:"total"`

	// OnTime is the count started at or before target.
	OnTime int `json:"on_time"`

	// Delayed is the count started after target.
	Delayed int `json:"delayed"`

	// Pending is the count with no actual start recorded.
	Pending int `json:"pending"`

	// TotalDelayMinutes is the summed delay of this group.
	TotalDelayMinutes int `json:"total_delay_minutes"`

	// ComplianceRate is on-time starts as a percentage, one decimal.
	ComplianceRate float64 `json:"compliance_rate"`
}

// PunctualityReport is the full output of EvaluateStartPunctuality.
type PunctualityReport struct {
	// Summary is the all-groups aggregate.
	Summary GroupPunctuality `json:"summary"`

	// PieData holds the two-slice on-time/delayed breakdown.
	PieData []PieSlice `json:"pie_data"`

	// ByGroup holds the per-group breakdown, best compliance first.
	ByGroup []GroupPunctuality `json:"by_group"`

	// ByReason counts delayed starts per delay reason, most common first.
	ByReason []ReasonCount `json:"by_reason"`
}

// ReasonCount is one delay reason with its occurrence count.
type ReasonCount struct {
	// Reason is the delay reason.
	Reason string `json:"motivo"`

	// Count is how many delayed starts cited it.
	Count int `json:"cantidad"`
}

// DelayMinutes returns how many minutes the actual start ran past the
// target, or 0 when on time. The second return is false while the
// actual start is unrecorded or a time fails to parse.
func DelayMinutes(target, actual string) (int, bool) {
	if actual == "" {
		return 0, false
	}
	t, err := parseClock(target)
	if err != nil {
		return 0, false
	}
	a, err := parseClock(actual)
	if err != nil {
		return 0, false
	}
	if a <= t {
		return 0, true
	}
	return a - t, true
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(value string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(value, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", value)
	}
	return h*60 + m, nil
}

// EvaluateStartPunctuality aggregates line start records over a
// trailing window. Records older than the window are dropped; the
// grouping key and window length come from the options. Empty input
// yields a zeroed report.
func EvaluateStartPunctuality(records []StartRecord, opts PunctualityOptions) PunctualityReport {
	if opts.GroupBy == "" {
		opts.GroupBy = StartGroupByLine
	}
	if opts.Window == 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	cutoff := opts.Now.Add(-opts.Window)

	groups := map[string]*GroupPunctuality{}
	summary := GroupPunctuality{Key: "total"}
	reasons := map[string]int{}

	for i := range records {
		r := &records[i]
		if !opts.Now.IsZero() && r.Date.Before(cutoff) {
			continue
		}
		g, ok := groups[startKey(r, opts.GroupBy)]
		if !ok {
			g = &GroupPunctuality{Key: startKey(r, opts.GroupBy)}
			groups[g.Key] = g
		}
		for _, target := range []*GroupPunctuality{g, &summary} {
			target.Total++
			delay, known := DelayMinutes(r.TargetTime, r.ActualTime)
			switch {
			case !known:
				target.Pending++
			case delay == 0:
				target.OnTime++
			default:
				target.Delayed++
				target.TotalDelayMinutes += delay
			}
		}
		if delay, known := DelayMinutes(r.TargetTime, r.ActualTime); known && delay > 0 && r.DelayReason != "" {
			reasons[r.DelayReason]++
		}
	}

	finalize := func(g *GroupPunctuality) {
		g.ComplianceRate = ratePercent(g.OnTime, g.OnTime+g.Delayed)
	}
	finalize(&summary)

	byGroup := make([]GroupPunctuality, 0, len(groups))
	for _, g := range groups {
		finalize(g)
		byGroup = append(byGroup, *g)
	}
	sort.Slice(byGroup, func(i, j int) bool {
		if byGroup[i].ComplianceRate != byGroup[j].ComplianceRate {
			return byGroup[i].ComplianceRate > byGroup[j].ComplianceRate
		}
		return byGroup[i].Key < byGroup[j].Key
	})

	byReason := make([]ReasonCount, 0, len(reasons))
	for reason, count := range reasons {
		byReason = append(byReason, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(byReason, func(i, j int) bool {
		if byReason[i].Count != byReason[j].Count {
			return byReason[i].Count > byReason[j].Count
		}
		return byReason[i].Reason < byReason[j].Reason
	})

	return PunctualityReport{
		Summary: summary,
		PieData: []PieSlice{
			{Name: "A tiempo", Value: summary.OnTime, Color: "#22c55e"},
			{Name: "Con retraso", Value: summary.Delayed, Color: "#ef4444"},
		},
		ByGroup:  byGroup,
		ByReason: byReason,
	}
}

func startKey(r *StartRecord, groupBy StartGroupBy) string {
	switch groupBy {
	case StartGroupByDepartment:
		return r.DepartmentID
	case StartGroupByMachine:
		return r.MachineID
	case StartGroupByDay:
		return r.Date.Format("2006-01-02")
	default:
		return r.LineID
	}
}
