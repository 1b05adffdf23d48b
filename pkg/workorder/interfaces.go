package workorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock provides the current time. The engine never calls time.Now
// directly so transitions are deterministic under test.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// IDGenerator produces unique identifiers for new orders, checklist
// items, and history entries.
type IDGenerator interface {
	// NewID returns a new unique identifier.
	NewID() string
}

// TemplateSource supplies the default checklist template for new
// preventive orders. A source returning (nil, nil) means no template is
// configured; the engine degrades to the built-in template.
type TemplateSource interface {
	// DefaultTemplate returns the default checklist template, or nil if
	// none is configured.
	DefaultTemplate() (*ChecklistTemplate, error)
}

// MachineDirectory resolves machine metadata for reporting and deletion
// guards.
type MachineDirectory interface {
	// MachineName returns the display name for a machine ID.
	MachineName(id string) (string, bool)
}

// UserDirectory resolves user display names for reporting.
type UserDirectory interface {
	// UserName returns the display name for a user ID.
	UserName(id string) (string, bool)
}

// SystemClock is a Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// UUIDGenerator is an IDGenerator backed by random UUIDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// Date layouts accepted by ParseDate, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate parses a calendar date string. Plain dates and RFC 3339
// timestamps are both accepted; the time portion, if any, is kept.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
