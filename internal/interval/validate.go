// Package interval validates session time ranges and detects overlaps
// between them.
package interval

import (
	"fmt"
	"regexp"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
)

// isoUTC is the only accepted wire format: UTC with a trailing Z, seconds
// and fractional seconds optional.
var isoUTC = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?(\.\d+)?Z$`)

const (
	layoutMinutes = "2006-01-02T15:04Z07:00"
	layoutSeconds = "2006-01-02T15:04:05Z07:00"

	// WireLayout is the layout used when rendering instants back to callers.
	WireLayout = "2006-01-02T15:04:05.000Z"

	// Precision is the finest resolution the session store keeps. Instants
	// are truncated to it before any comparison.
	Precision = time.Microsecond
)

// Candidate is an unvalidated interval as received from a caller or
// produced by the timer.
type Candidate struct {
	StartTime string
	EndTime   string
	Duration  *int
}

// Interval is a validated half-open [Start, End) range in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Span returns End-Start.
func (i Interval) Span() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two half-open ranges intersect.
// Touching ranges (one ends exactly when the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Validate checks format, then ordering, then the optional duration.
// Format errors are always reported before ordering errors.
func Validate(c Candidate) (Interval, error) {
	start, err := ParseInstant("startTime", c.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseInstant("endTime", c.EndTime)
	if err != nil {
		return Interval{}, err
	}

	iv, err := New(start, end)
	if err != nil {
		return Interval{}, err
	}

	if err := CheckDuration(iv, c.Duration); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// New builds an interval from already-parsed instants, enforcing end > start
// after truncation to Precision.
func New(start, end time.Time) (Interval, error) {
	start, end = start.UTC().Truncate(Precision), end.UTC().Truncate(Precision)
	if !end.After(start) {
		return Interval{}, apperrors.Field(apperrors.CodeInvalidDateOrder, "endTime",
			fmt.Sprintf("endTime %s must be after startTime %s",
				end.Format(WireLayout), start.Format(WireLayout)))
	}
	return Interval{Start: start, End: end}, nil
}

// CheckDuration enforces 0 <= duration <= span when a duration is given.
func CheckDuration(iv Interval, duration *int) error {
	if duration == nil {
		return nil
	}
	d := *duration
	if d < 0 {
		return apperrors.Field(apperrors.CodeInvalidDuration, "duration",
			fmt.Sprintf("duration %d must not be negative", d))
	}
	if span := int(iv.Span() / time.Second); d > span {
		return apperrors.Field(apperrors.CodeInvalidDuration, "duration",
			fmt.Sprintf("duration %ds exceeds the %ds between startTime and endTime", d, span))
	}
	return nil
}

// ParseInstant parses a strict ISO-8601 UTC timestamp, truncated to
// Precision. field names the input in the returned error.
func ParseInstant(field, s string) (time.Time, error) {
	m := isoUTC.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, formatError(field, s)
	}

	layout := layoutSeconds
	if m[1] == "" {
		layout = layoutMinutes
		if m[2] != "" {
			// Fractional seconds without a seconds field.
			return time.Time{}, formatError(field, s)
		}
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, formatError(field, s)
	}
	return t.UTC().Truncate(Precision), nil
}

// FormatInstant renders t in the wire layout (UTC, millisecond precision).
func FormatInstant(t time.Time) string {
	return t.UTC().Format(WireLayout)
}

func formatError(field, s string) error {
	return apperrors.Field(apperrors.CodeInvalidDateFormat, field,
		fmt.Sprintf("%s %q is not an ISO-8601 UTC timestamp (YYYY-MM-DDTHH:MM[:SS[.fff]]Z)", field, s))
}
