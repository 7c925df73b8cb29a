package availability

import (
	"errors"
	"fmt"
)

// ErrAvailabilityConflict is the sentinel matched by errors.Is for any
// window overlap rejection.
var ErrAvailabilityConflict = errors.New("availability window conflict")

// ConflictError reports the time range of the window a new declaration
// collided with.
type ConflictError struct {
	ExistingStart WallClock
	ExistingEnd   WallClock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time range conflicts with existing availability %s-%s", e.ExistingStart, e.ExistingEnd)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAvailabilityConflict
}

// Overlaps implements the half-open interval test: [aStart, aEnd) and
// [bStart, bEnd) overlap iff aStart < bEnd && aEnd > bStart. A window
// ending exactly when another begins does not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd WallClock) bool {
	return aStart.Minutes() < bEnd.Minutes() && aEnd.Minutes() > bStart.Minutes()
}

// DetectConflict checks a proposed [start, end) interval against the
// windows already committed for the same provider and date. Callers pass
// only windows in AVAILABLE or BOOKED status; cancelled and blocked
// windows deliberately do not block reuse of their old time range.
func DetectConflict(start, end WallClock, existing []Window) error {
	for i := range existing {
		w := &existing[i]
		if Overlaps(start, end, w.StartTime, w.EndTime) {
			return &ConflictError{
				ExistingStart: w.StartTime,
				ExistingEnd:   w.EndTime,
			}
		}
	}
	return nil
}
