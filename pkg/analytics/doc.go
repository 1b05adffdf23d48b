// Package analytics turns read-only snapshots of work orders and plant
// records into operational reports: preventive compliance, line start
// punctuality, recurring corrective failures, stop analysis, and the
// dashboard aggregates. Every function is pure over its inputs and
// returns zeroed reports for empty input.
package analytics
