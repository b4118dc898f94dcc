package repository

import (
	"database/sql"
	"time"
)

// timeLayout is fixed-width UTC so stored values sort chronologically as text.
// Its resolution matches interval.Precision.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// formatTime converts t to its storage representation.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullableIntToValue converts a *int to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise returns the int value.
func nullableIntToValue(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// nullIntToPtr converts a scanned sql.NullInt64 back to a *int.
func nullIntToPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// nowUTC returns the current UTC time truncated to the storage precision.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
