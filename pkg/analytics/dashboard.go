package analytics

import (
	"sort"
	"time"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// Machine is the reference snapshot the dashboard consumes: identity,
// department membership, and operational status.
type Machine struct {
	// ID is the machine identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// DepartmentID identifies the owning department.
	DepartmentID string `json:"department_id"`

	// Status is the machine status (operativa, en_mantenimiento,
	// fuera_de_servicio).
	Status string `json:"status"`
}

// MachineStats is the machine half of the dashboard overview.
type MachineStats struct {
	// Total is the machine count.
	Total int `json:"total"`

	// Operational counts machines with status operativa.
	Operational int `json:"operational"`

	// InMaintenance counts machines with status en_mantenimiento.
	InMaintenance int `json:"in_maintenance"`

	// OutOfService counts machines with status fuera_de_servicio.
	OutOfService int `json:"out_of_service"`
}

// OrderStats is the order half of the dashboard overview.
type OrderStats struct {
	// Total is the order count.
	Total int `json:"total"`

	// Pending counts orders in pendiente.
	Pending int `json:"pending"`

	// InProgress counts orders in en_progreso.
	InProgress int `json:"in_progress"`

	// Completed counts orders in completada.
	Completed int `json:"completed"`

	// Preventive counts preventive orders.
	Preventive int `json:"preventive"`

	// Corrective counts corrective orders.
	Corrective int `json:"corrective"`

	// Critical counts open orders with priority critica.
	Critical int `json:"critical"`

	// HighPriority counts open orders with priority alta.
	HighPriority int `json:"high_priority"`
}

// OverviewReport is the dashboard headline aggregate.
type OverviewReport struct {
	// Machines holds the machine figures.
	Machines MachineStats `json:"machines"`

	// Orders holds the order figures.
	Orders OrderStats `json:"orders"`
}

// Overview aggregates machines and orders into the dashboard headline
// numbers.
func Overview(machines []Machine, orders []workorder.WorkOrder) OverviewReport {
	var r OverviewReport
	r.Machines.Total = len(machines)
	for _, m := range machines {
		switch m.Status {
		case "operativa":
			r.Machines.Operational++
		case "en_mantenimiento":
			r.Machines.InMaintenance++
		case "fuera_de_servicio":
			r.Machines.OutOfService++
		}
	}

	r.Orders.Total = len(orders)
	for i := range orders {
		o := &orders[i]
		switch o.Status {
		case workorder.StatusPending:
			r.Orders.Pending++
		case workorder.StatusInProgress:
			r.Orders.InProgress++
		case workorder.StatusCompleted:
			r.Orders.Completed++
		}
		switch o.Type {
		case workorder.TypePreventive:
			r.Orders.Preventive++
		case workorder.TypeCorrective:
			r.Orders.Corrective++
		}
		if o.Status != workorder.StatusCompleted {
			switch o.Priority {
			case workorder.PriorityCritical:
				r.Orders.Critical++
			case workorder.PriorityHigh:
				r.Orders.HighPriority++
			}
		}
	}
	return r
}

// MonthTypeCount is one month of the preventive-vs-corrective trend.
type MonthTypeCount struct {
	// Month is the month key, YYYY-MM.
	Month string `json:"month"`

	// Preventive is the preventive order count.
	Preventive int `json:"preventivo"`

	// Corrective is the corrective order count.
	Corrective int `json:"correctivo"`
}

// MonthlyTypeBreakdown counts orders per creation month and type,
// keeping the trailing 12 months, oldest first.
func MonthlyTypeBreakdown(orders []workorder.WorkOrder) []MonthTypeCount {
	months := map[string]*MonthTypeCount{}
	for i := range orders {
		o := &orders[i]
		if o.CreatedAt.IsZero() {
			continue
		}
		key := o.CreatedAt.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthTypeCount{Month: key}
			months[key] = m
		}
		if o.Type == workorder.TypePreventive {
			m.Preventive++
		} else {
			m.Corrective++
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
	out := make([]MonthTypeCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, *months[k])
	}
	return out
}

// failureCauseLabels maps failure cause codes to the canonical Spanish
// labels shown in reports. Unknown codes pass through untouched.
var failureCauseLabels = map[string]string{
	"accidente":                 "Accidente",
	"mala_utilizacion":          "Mala utilización",
	"instruccion_no_respetada":  "Instrucción no respetada",
	"mala_intervencion_anterior": "Mala intervención anterior",
	"fatiga_acumulada":          "Fatiga acumulada",
	"golpe":                     "Golpe",
	"diseno_inadecuado":         "Diseño inadecuado",
	"desgaste":                  "Desgaste",
	"mal_montaje":               "Mal montaje",
	"corrosion":                 "Corrosión",
	"otros":                     "Otros",
}

// CauseCount is one failure cause with its occurrence count.
type CauseCount struct {
	// Cause is the canonical Spanish label.
	Cause string `json:"causa"`

	// Count is how many corrective orders cited it.
	Count int `json:"cantidad"`
}

// FailureCauses ranks failure causes across corrective orders, most
// frequent first. Orders without a cause are skipped.
func FailureCauses(orders []workorder.WorkOrder) []CauseCount {
	counts := map[string]int{}
	for i := range orders {
		o := &orders[i]
		if o.Type != workorder.TypeCorrective || o.FailureCause == "" {
			continue
		}
		label, ok := failureCauseLabels[o.FailureCause]
		if !ok {
			label = o.FailureCause
		}
		counts[label]++
	}
	out := make([]CauseCount, 0, len(counts))
	for cause, count := range counts {
		out = append(out, CauseCount{Cause: cause, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cause < out[j].Cause
	})
	return out
}

// CalendarEvent is one scheduled order projected onto the maintenance
// calendar.
type CalendarEvent struct {
	// ID is the order identifier.
	ID string `json:"id"`

	// Title is the order title.
	Title string `json:"title"`

	// Date is the scheduled date.
	Date time.Time `json:"date"`

	// Type is the order type.
	Type workorder.OrderType `json:"type"`

	// Status is the order status.
	Status workorder.Status `json:"status"`

	// Priority is the order priority.
	Priority workorder.Priority `json:"priority"`

	// MachineName is the resolved machine name, if available.
	MachineName string `json:"machine_name,omitempty"`
}

// CalendarEvents projects every scheduled order to a calendar event,
// sorted by date. Unscheduled orders are skipped.
func CalendarEvents(orders []workorder.WorkOrder, machines workorder.MachineDirectory) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if o.ScheduledDate == nil {
			continue
		}
		e := CalendarEvent{
			ID:       o.ID,
			Title:    o.Title,
			Date:     *o.ScheduledDate,
			Type:     o.Type,
			Status:   o.Status,
			Priority: o.Priority,
		}
		if machines != nil {
			if name, ok := machines.MachineName(o.MachineID); ok {
				e.MachineName = name
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
