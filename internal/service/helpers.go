package service

import (
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/interval"
)

// dayBounds returns [00:00, next 00:00) of date's UTC calendar day.
func dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// window returns the smallest interval covering all of ivs.
func window(ivs []interval.Interval) interval.Interval {
	w := ivs[0]
	for _, iv := range ivs[1:] {
		if iv.Start.Before(w.Start) {
			w.Start = iv.Start
		}
		if iv.End.After(w.End) {
			w.End = iv.End
		}
	}
	return w
}

// atIndex tags err with a batch item index when it is a domain error.
func atIndex(err error, i int) error {
	if e, ok := apperrors.As(err); ok {
		return e.AtIndex(i)
	}
	return err
}

// asTransactionFailure passes domain errors through and wraps everything
// else as TRANSACTION_FAILURE.
func asTransactionFailure(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Wrap(apperrors.CodeTransactionFailure, "batch update rolled back", err)
}

func requireTaskID(taskID string) error {
	if taskID == "" {
		return apperrors.Field(apperrors.CodeInvalidArgument, "taskId", "taskId is required")
	}
	return nil
}
