// internal/booking/conflict.go
package booking

import (
	"context"
	"time"

	"github.com/palaro-app/courtbook/internal/db"
)

// overlapsHalfOpen reports whether [s1,e1) and [s2,e2) intersect. End is
// exclusive, so back-to-back intervals never conflict.
func overlapsHalfOpen(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// BlockingEventIndex answers whether an owner-declared blocking event
// overlaps a court interval. Events with blocks_bookings = false are
// informational and never participate.
type BlockingEventIndex struct {
	q *db.Queries
}

func NewBlockingEventIndex(q *db.Queries) *BlockingEventIndex {
	return &BlockingEventIndex{q: q}
}

// Overlaps returns an error when the event list cannot be retrieved; callers
// must treat that as "cannot verify, assume blocked".
func (idx *BlockingEventIndex) Overlaps(ctx context.Context, courtID int64, start, end time.Time) (bool, error) {
	count, err := idx.q.CountBlockingOverlaps(ctx, db.CountBlockingOverlapsParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return false, TransientStoreError{Op: "blocking event lookup", Err: err}
	}
	return count > 0, nil
}

// ConflictChecker decides whether a requested interval on a court is free of
// other pending/confirmed reservations and of blocking events.
type ConflictChecker struct {
	q     *db.Queries
	index *BlockingEventIndex
}

func NewConflictChecker(q *db.Queries) *ConflictChecker {
	return &ConflictChecker{q: q, index: NewBlockingEventIndex(q)}
}

// Check returns nil when the slot is free, TimeOverlapConflict or
// BlockingEventConflict when it is not, and TransientStoreError when the
// answer cannot be determined. For the check-and-insert to be race-free it
// must run against the same transaction that inserts the reservation.
func (c *ConflictChecker) Check(ctx context.Context, courtID int64, start, end time.Time) error {
	existing, err := c.q.ListActiveCourtOverlaps(ctx, db.ListActiveCourtOverlapsParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return TransientStoreError{Op: "reservation overlap lookup", Err: err}
	}
	for _, r := range existing {
		if overlapsHalfOpen(r.StartTime, r.EndTime, start, end) {
			return TimeOverlapConflict{CourtID: courtID}
		}
	}

	blocked, err := c.index.Overlaps(ctx, courtID, start, end)
	if err != nil {
		return err
	}
	if blocked {
		return BlockingEventConflict{CourtID: courtID}
	}
	return nil
}
