// internal/booking/errors.go
package booking

import "fmt"

// ValidationError rejects a malformed request before any availability check
// runs. Not retryable as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// LimitReachedError means the player already holds a non-cancelled
// reservation at the venue on that civil date.
type LimitReachedError struct {
	PlayerID int64
	VenueID  int64
	Date     string
}

func (e LimitReachedError) Error() string {
	return fmt.Sprintf("player %d already has a reservation at venue %d on %s", e.PlayerID, e.VenueID, e.Date)
}

// TimeOverlapConflict means another pending or confirmed reservation on the
// court overlaps the requested interval. Retryable with a different slot.
type TimeOverlapConflict struct {
	CourtID int64
}

func (e TimeOverlapConflict) Error() string {
	return fmt.Sprintf("requested time overlaps an existing reservation on court %d", e.CourtID)
}

// BlockingEventConflict means an owner-declared blocking event overlaps the
// requested interval.
type BlockingEventConflict struct {
	CourtID int64
}

func (e BlockingEventConflict) Error() string {
	return fmt.Sprintf("requested time overlaps a blocking event on court %d", e.CourtID)
}

// TransientStoreError wraps a failed data-store operation. The engine fails
// closed on these: a booking is never allowed through an unverified check.
// Retryable by the caller.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e TransientStoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e TransientStoreError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError reports an attempt to move a reservation along an
// edge the lifecycle does not permit, including any mutation of a terminal
// reservation.
type InvalidTransitionError struct {
	ReservationID int64
	From          Status
	To            Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("reservation %d cannot transition from %s to %s", e.ReservationID, e.From, e.To)
}
