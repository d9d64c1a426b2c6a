package budgetwatch

import (
	"fmt"
	"strings"
	"time"
)

// Date is a custom type that handles date-only JSON values
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for Date
func (d *Date) UnmarshalJSON(data []byte) error {
	// Remove quotes
	str := strings.Trim(string(data), `"`)

	// Handle null/empty
	if str == "" || str == "null" {
		d.Time = time.Time{}
		return nil
	}

	// Try parsing as date only first (YYYY-MM-DD)
	t, err := time.Parse("2006-01-02", str)
	if err == nil {
		d.Time = t
		return nil
	}

	// Try parsing as full timestamp (RFC3339)
	t, err = time.Parse(time.RFC3339, str)
	if err == nil {
		d.Time = t
		return nil
	}

	return fmt.Errorf("unable to parse date: %s", str)
}

// MarshalJSON implements json.Marshaler for Date
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	// Format as date only
	return []byte(fmt.Sprintf(`"%s"`, d.Time.Format("2006-01-02"))), nil
}

// String returns the date as a string
func (d Date) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

const (
	// pollTimeFormat is the human-readable timestamp format used for
	// last-poll and error bookkeeping fields.
	pollTimeFormat = "January 02, 2006 - 03:04 PM"

	// resetTimeFormat is the short clock format used for the quota reset
	// estimate.
	resetTimeFormat = "03:04 PM"
)

// MonthKey returns the month key for the given time in the local calendar:
// the first day of the month in YYYY-MM-01 form.
func MonthKey(t time.Time) string {
	return t.Format("2006-01") + "-01"
}

// formatPollTime renders a timestamp in the human-readable form published in
// snapshots and status records.
func formatPollTime(t time.Time) string {
	return t.Format(pollTimeFormat)
}

// formatResetTime renders the quota reset estimate for status consumers.
func formatResetTime(t time.Time) string {
	return t.Format(resetTimeFormat)
}
