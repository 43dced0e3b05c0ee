package sqlite

import (
	"fmt"
	"time"
)

// Instants are stored as RFC3339 TEXT normalized to UTC. SQLite has no native
// timestamp type and silently drops zone information, so every value is
// converted to UTC before write and re-attached to UTC on every read.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseTime(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
