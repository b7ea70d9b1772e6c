// internal/booking/dailylimit.go
package booking

import (
	"context"

	"github.com/palaro-app/courtbook/internal/db"
)

// DailyLimitEnforcer applies the one-reservation-per-player-per-venue-per-day
// rule. The day is a civil date in the venue timezone, not a UTC day.
type DailyLimitEnforcer struct {
	q *db.Queries
}

func NewDailyLimitEnforcer(q *db.Queries) *DailyLimitEnforcer {
	return &DailyLimitEnforcer{q: q}
}

// WouldExceed reports whether a new reservation for the player at the venue
// on the civil date would break the limit. If the count cannot be retrieved
// it returns true with a TransientStoreError: block the booking rather than
// silently allow a second one.
func (e *DailyLimitEnforcer) WouldExceed(ctx context.Context, playerID, venueID int64, civilDate string) (bool, error) {
	count, err := e.q.CountPlayerVenueDay(ctx, db.CountPlayerVenueDayParams{
		PlayerID: playerID,
		VenueID:  venueID,
		Date:     civilDate,
	})
	if err != nil {
		return true, TransientStoreError{Op: "daily limit lookup", Err: err}
	}
	return count >= 1, nil
}
