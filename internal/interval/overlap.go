package interval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
)

// OverlapSource finds a user's sessions intersecting [start, end), optionally
// ignoring one session id. Implemented by the session repository.
type OverlapSource interface {
	FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error)
}

// ParsePolicy parses an overlap policy name. Empty means warn.
func ParsePolicy(s string) (domain.OverlapPolicy, error) {
	switch p := domain.OverlapPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return domain.OverlapWarn, nil
	case domain.OverlapAllow, domain.OverlapWarn, domain.OverlapReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overlap policy %q (want allow, warn or reject)", s)
	}
}

// Overlapping returns the sessions in existing whose range intersects iv,
// skipping excludeID. It is the in-memory counterpart of OverlapSource.
func Overlapping(iv Interval, existing []*domain.Session, excludeID string) []*domain.Session {
	var out []*domain.Session
	for _, s := range existing {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if iv.Overlaps(Interval{Start: s.StartTime, End: s.EndTime}) {
			out = append(out, s)
		}
	}
	return out
}

// Checker applies an overlap policy to a candidate interval.
type Checker struct {
	Source OverlapSource
	Policy domain.OverlapPolicy
	Logger *slog.Logger
}

// Check looks up overlaps for iv and applies the policy:
// allow skips the lookup, warn logs and returns the overlaps, reject fails
// with OVERLAP_DETECTED.
func (c Checker) Check(ctx context.Context, userID string, iv Interval, excludeID string) ([]*domain.Session, error) {
	if c.Policy == domain.OverlapAllow || c.Source == nil {
		return nil, nil
	}

	found, err := c.Source.FindOverlapping(ctx, userID, iv.Start, iv.End, excludeID)
	if err != nil {
		return nil, fmt.Errorf("checking overlaps: %w", err)
	}
	return found, c.Apply(ctx, userID, iv, found)
}

// Apply applies the policy to overlaps that were already found.
func (c Checker) Apply(ctx context.Context, userID string, iv Interval, found []*domain.Session) error {
	if len(found) == 0 || c.Policy == domain.OverlapAllow {
		return nil
	}

	ids := make([]string, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.ID)
	}

	if c.Policy == domain.OverlapReject {
		return OverlapError(iv, ids)
	}

	if c.Logger != nil {
		c.Logger.WarnContext(ctx, "session_overlap",
			"user_id", userID,
			"start", FormatInstant(iv.Start),
			"end", FormatInstant(iv.End),
			"overlapping_ids", strings.Join(ids, ","),
		)
	}
	return nil
}

// OverlapError builds the OVERLAP_DETECTED error for iv and the conflicting ids.
func OverlapError(iv Interval, ids []string) *apperrors.Error {
	return apperrors.Field(apperrors.CodeOverlapDetected, "startTime",
		fmt.Sprintf("interval %s to %s overlaps %d existing session(s)",
			FormatInstant(iv.Start), FormatInstant(iv.End), len(ids)),
	).WithMetadata(map[string]string{"overlapping_ids": strings.Join(ids, ",")})
}
