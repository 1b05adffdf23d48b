package analytics

import (
	"math"
	"sort"
	"time"
)

// StopRecord is one machine downtime interval.
type StopRecord struct {
	// ID is the record identifier.
	ID string `json:"id"`

	// MachineID identifies the stopped machine.
	MachineID string `json:"machine_id"`

	// StopType classifies the stop (averia, calidad, falta_medios,
	// mantenimiento, cambio_formato, otros).
	StopType string `json:"stop_type"`

	// Reason documents the stop.
	Reason string `json:"reason,omitempty"`

	// StartTime is when the stop began.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the stop ended. Zero while ongoing.
	EndTime time.Time `json:"end_time,omitempty"`

	// DurationMinutes is the stop length. Derived from the interval
	// when an end time exists.
	DurationMinutes int `json:"duration_minutes"`
}

// stopTypeLabels maps stop type codes to the Spanish labels shown in
// reports. Unknown codes pass through untouched.
var stopTypeLabels = map[string]string{
	"averia":         "Avería",
	"calidad":        "Calidad",
	"falta_medios":   "Falta de medios",
	"mantenimiento":  "Mantenimiento",
	"cambio_formato": "Cambio de formato",
	"otros":          "Otros",
}

// StopTypeCount is one stop type with its count.
type StopTypeCount struct {
	// Type is the Spanish stop type label.
	Type string `json:"tipo"`

	// Count is the number of stops.
	Count int `json:"cantidad"`
}

// StopTypeDuration is one stop type with its accumulated downtime.
type StopTypeDuration struct {
	// Type is the Spanish stop type label.
	Type string `json:"tipo"`

	// Minutes is the summed downtime.
	Minutes int `json:"minutos"`

	// Hours is the summed downtime in hours, one decimal.
	Hours float64 `json:"horas"`
}

// WeekdayCount is the stop count for one weekday.
type WeekdayCount struct {
	// Day is the abbreviated Spanish weekday name, Monday first.
	Day string `json:"dia"`

	// Count is the number of stops starting on that weekday.
	Count int `json:"cantidad"`
}

// StopReport is the full output of AnalyzeStops.
type StopReport struct {
	// Total is the number of stops.
	Total int `json:"total"`

	// TotalDurationHours is the summed downtime in hours, one decimal.
	TotalDurationHours float64 `json:"total_duration_hours"`

	// ByType counts stops per type, most frequent first.
	ByType []StopTypeCount `json:"by_type"`

	// ByDuration sums downtime per type, longest first.
	ByDuration []StopTypeDuration `json:"by_duration"`

	// ByDay counts stops per weekday, Monday through Sunday.
	ByDay []WeekdayCount `json:"by_day"`
}

// Spanish weekday names, Monday first.
var weekdayNames = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

// StopDuration returns the stop's downtime in minutes: the recorded
// figure, or the start-to-end interval when an end time exists.
func StopDuration(s *StopRecord) int {
	if !s.EndTime.IsZero() && s.EndTime.After(s.StartTime) {
		return int(s.EndTime.Sub(s.StartTime).Minutes())
	}
	return s.DurationMinutes
}

// AnalyzeStops buckets downtime records by stop type and weekday.
// Empty input yields a zeroed report with a full weekday axis.
func AnalyzeStops(stops []StopRecord) StopReport {
	counts := map[string]int{}
	durations := map[string]int{}
	total := 0
	weekdays := make([]int, 7)

	for i := range stops {
		s := &stops[i]
		label, ok := stopTypeLabels[s.StopType]
		if !ok {
			label = s.StopType
		}
		counts[label]++
		d := StopDuration(s)
		durations[label] += d
		total += d
		if !s.StartTime.IsZero() {
			// time.Weekday is Sunday-based; the report axis starts Monday.
			weekdays[(int(s.StartTime.Weekday())+6)%7]++
		}
	}

	report := StopReport{
		Total:              len(stops),
		TotalDurationHours: math.Round(float64(total)/60*10) / 10,
	}
	for label, count := range counts {
		report.ByType = append(report.ByType, StopTypeCount{Type: label, Count: count})
	}
	sort.Slice(report.ByType, func(i, j int) bool {
		if report.ByType[i].Count != report.ByType[j].Count {
			return report.ByType[i].Count > report.ByType[j].Count
		}
		return report.ByType[i].Type < report.ByType[j].Type
	})
	for label, minutes := range durations {
		report.ByDuration = append(report.ByDuration, StopTypeDuration{
			Type:    label,
			Minutes: minutes,
			Hours:   math.Round(float64(minutes)/60*10) / 10,
		})
	}
	sort.Slice(report.ByDuration, func(i, j int) bool {
		if report.ByDuration[i].Minutes != report.ByDuration[j].Minutes {
			return report.ByDuration[i].Minutes > report.ByDuration[j].Minutes
		}
		return report.ByDuration[i].Type < report.ByDuration[j].Type
	})
	for i, name := range weekdayNames {
		report.ByDay = append(report.ByDay, WeekdayCount{Day: name, Count: weekdays[i]})
	}
	return report
}
