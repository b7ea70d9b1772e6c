package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palaro-app/courtbook/internal/db"
	"github.com/palaro-app/courtbook/internal/testutil"
)

func manila(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	return loc
}

func newTestEngine(t *testing.T, autoConfirm bool) (*Engine, *db.DB, db.Venue, db.Court) {
	t.Helper()

	database := testutil.NewTestDB(t)
	venue, court := testutil.SeedVenueAndCourt(t, database, autoConfirm)
	engine := NewEngine(database, nil, Options{Location: manila(t)})
	return engine, database, venue, court
}

// at builds a Manila instant on June 1st 2025.
func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2025, 6, 1, hour, minute, 0, 0, manila(t))
}

func TestRequestBooking_CreatesPendingReservation(t *testing.T) {
	engine, _, venue, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)
	require.Equal(t, string(StatusPending), created.Status)
	require.Equal(t, venue.ID, created.VenueID)
	require.Equal(t, "2025-06-01", created.Date)
}

func TestRequestBooking_AutoConfirmVenue(t *testing.T) {
	engine, _, _, court := newTestEngine(t, true)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)
	require.Equal(t, string(StatusConfirmed), created.Status)
}

func TestRequestBooking_RejectsInvertedInterval(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	_, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 10, 0),
		EndTime:   at(t, 9, 0),
	})
	require.ErrorAs(t, err, &ValidationError{})

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 9, 0),
	})
	require.ErrorAs(t, err, &ValidationError{})
}

func TestRequestBooking_RejectsUnknownCourt(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, false)

	_, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   9999,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.ErrorAs(t, err, &ValidationError{})
}

func TestRequestBooking_RejectsInactiveCourt(t *testing.T) {
	engine, database, venue, _ := newTestEngine(t, false)

	inactive, err := database.Queries.CreateCourt(context.Background(), db.CreateCourtParams{
		VenueID: venue.ID,
		Name:    "Closed Court",
		Active:  false,
	})
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   inactive.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.ErrorAs(t, err, &ValidationError{})
}

func TestRequestBooking_EnforcesDailyLimitAcrossCourts(t *testing.T) {
	engine, database, venue, court := newTestEngine(t, false)
	court2 := testutil.SeedCourt(t, database, venue.ID, "Court 2")

	_, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	// Same venue, same civil date, different court and hours.
	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court2.ID,
		StartTime: at(t, 14, 0),
		EndTime:   at(t, 15, 0),
	})
	require.ErrorAs(t, err, &LimitReachedError{})
}

func TestRequestBooking_AllowsSameDayAtOtherVenue(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	otherVenue, err := database.Queries.CreateVenue(context.Background(), db.CreateVenueParams{
		Name:     "Quezon Padel Club",
		Timezone: "Asia/Manila",
	})
	require.NoError(t, err)
	otherCourt := testutil.SeedCourt(t, database, otherVenue.ID, "Padel 1")

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   otherCourt.ID,
		StartTime: at(t, 14, 0),
		EndTime:   at(t, 15, 0),
	})
	require.NoError(t, err)
}

func TestRequestBooking_RejectsOverlap(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	_, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  2,
		CourtID:   court.ID,
		StartTime: at(t, 9, 30),
		EndTime:   at(t, 10, 30),
	})
	require.ErrorAs(t, err, &TimeOverlapConflict{})
}

func TestRequestBooking_AllowsBackToBack(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	_, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 10, 0),
		EndTime:   at(t, 11, 0),
	})
	require.NoError(t, err)

	// [10:00,11:00) and [11:00,12:00) touch but do not overlap.
	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  2,
		CourtID:   court.ID,
		StartTime: at(t, 11, 0),
		EndTime:   at(t, 12, 0),
	})
	require.NoError(t, err)
}

func TestRequestBooking_RejectsBlockingEvent(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	_, err := database.Queries.CreateBlockingEvent(context.Background(), db.CreateBlockingEventParams{
		CourtID:        court.ID,
		OwnerID:        7,
		StartTime:      at(t, 8, 0),
		EndTime:        at(t, 12, 0),
		Category:       "maintenance",
		BlocksBookings: true,
	})
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.ErrorAs(t, err, &BlockingEventConflict{})
}

func TestRequestBooking_IgnoresInformationalEvents(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	_, err := database.Queries.CreateBlockingEvent(context.Background(), db.CreateBlockingEventParams{
		CourtID:        court.ID,
		OwnerID:        7,
		StartTime:      at(t, 8, 0),
		EndTime:        at(t, 12, 0),
		Category:       "other",
		BlocksBookings: false,
	})
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)
}

func TestRequestBooking_SlotFreedByCancellation(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	first, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	_, err = engine.CancelBooking(context.Background(), first.ID, ActorHolder, "", at(t, 8, 0))
	require.NoError(t, err)

	// Both the slot and the player's daily limit are released.
	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)
}

func TestRequestBooking_AttributesDateInManilaTime(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	// 16:30Z on May 31st is 00:30 June 1st in Manila; the reservation
	// belongs to the Manila date even though the UTC date reads May 31st.
	start := time.Date(2025, 5, 31, 16, 30, 0, 0, time.UTC)
	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", created.Date)

	// Late Manila evening on June 1st stays on June 1st, so the daily limit
	// applies against the midnight booking above.
	lateEvening := time.Date(2025, 6, 1, 23, 0, 0, 0, manila(t))
	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: lateEvening,
		EndTime:   lateEvening.Add(30 * time.Minute),
	})
	require.ErrorAs(t, err, &LimitReachedError{})
}

func TestRequestBooking_FailsClosedOnStoreError(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	// Breaking the blocking_events table makes the conflict check fail
	// mid-transaction; the booking must be blocked, never allowed through.
	_, err := database.ExecContext(context.Background(), "DROP TABLE blocking_events")
	require.NoError(t, err)

	_, err = engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.ErrorAs(t, err, &TransientStoreError{})

	var count int64
	err = database.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM reservations").Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCancelBooking_RecordsReason(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	cancelled, err := engine.CancelBooking(context.Background(), created.ID, ActorOwner, "", at(t, 8, 0))
	require.NoError(t, err)
	require.Equal(t, string(StatusCancelled), cancelled.Status)
	require.True(t, cancelled.CancellationReason.Valid)
	require.Equal(t, ReasonOwnerCancelled, cancelled.CancellationReason.String)
}

func TestCancelBooking_TerminalStateIsImmutable(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	cancelled, err := engine.CancelBooking(context.Background(), created.ID, ActorHolder, "", at(t, 8, 0))
	require.NoError(t, err)

	_, err = engine.CancelBooking(context.Background(), created.ID, ActorOwner, "", at(t, 8, 30))
	require.ErrorAs(t, err, &InvalidTransitionError{})

	_, err = engine.ConfirmBooking(context.Background(), created.ID, at(t, 8, 30))
	require.ErrorAs(t, err, &InvalidTransitionError{})

	// The row is unchanged after the rejected attempts.
	current, err := database.Queries.GetReservation(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, cancelled.Status, current.Status)
	require.Equal(t, cancelled.CancellationReason, current.CancellationReason)
}

func TestConfirmCheckInComplete(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	confirmed, err := engine.ConfirmBooking(context.Background(), created.ID, at(t, 8, 0))
	require.NoError(t, err)
	require.Equal(t, string(StatusConfirmed), confirmed.Status)

	// Completing before the interval elapsed is rejected.
	_, err = engine.Complete(context.Background(), created.ID, at(t, 9, 30))
	require.ErrorAs(t, err, &ValidationError{})

	// Completing without recorded attendance is rejected.
	_, err = engine.Complete(context.Background(), created.ID, at(t, 10, 1))
	require.ErrorAs(t, err, &ValidationError{})

	checkedIn, err := engine.CheckIn(context.Background(), created.ID, at(t, 9, 5))
	require.NoError(t, err)
	require.True(t, checkedIn.CheckedInAt.Valid)

	completed, err := engine.Complete(context.Background(), created.ID, at(t, 10, 1))
	require.NoError(t, err)
	require.Equal(t, string(StatusCompleted), completed.Status)
}

func TestCheckIn_PromotesPendingAndEscapesSweep(t *testing.T) {
	engine, _, _, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	checkedIn, err := engine.CheckIn(context.Background(), created.ID, at(t, 9, 2))
	require.NoError(t, err)
	require.Equal(t, string(StatusConfirmed), checkedIn.Status)

	result, err := engine.SweepNoShows(context.Background(), at(t, 9, 16))
	require.NoError(t, err)
	require.Zero(t, result.Cancelled)
}

func TestSweepNoShows_CancelsAndIsIdempotent(t *testing.T) {
	engine, database, _, court := newTestEngine(t, false)

	created, err := engine.RequestBooking(context.Background(), Request{
		PlayerID:  1,
		CourtID:   court.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)

	// Within the grace window nothing is swept.
	result, err := engine.SweepNoShows(context.Background(), at(t, 9, 10))
	require.NoError(t, err)
	require.Zero(t, result.Cancelled)

	result, err = engine.SweepNoShows(context.Background(), at(t, 9, 16))
	require.NoError(t, err)
	require.Equal(t, 1, result.Cancelled)
	require.Zero(t, result.Failed)

	swept, err := database.Queries.GetReservation(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, string(StatusCancelled), swept.Status)
	require.Equal(t, ReasonAutoCancelledNoShow, swept.CancellationReason.String)

	// A second pass over unchanged data cancels nothing further.
	result, err = engine.SweepNoShows(context.Background(), at(t, 9, 17))
	require.NoError(t, err)
	require.Zero(t, result.Cancelled)
}

// The full scenario: P1 books, hits the daily limit elsewhere, P2 is blocked
// by the overlap, the sweeper reclaims the slot, P2 succeeds.
func TestEndToEndScenario(t *testing.T) {
	engine, database, venue, court1 := newTestEngine(t, false)
	court2 := testutil.SeedCourt(t, database, venue.ID, "Court 2")
	ctx := context.Background()

	p1Booking, err := engine.RequestBooking(ctx, Request{
		PlayerID:  1,
		CourtID:   court1.ID,
		StartTime: at(t, 9, 0),
		EndTime:   at(t, 10, 0),
	})
	require.NoError(t, err)
	require.Equal(t, string(StatusPending), p1Booking.Status)

	_, err = engine.RequestBooking(ctx, Request{
		PlayerID:  1,
		CourtID:   court2.ID,
		StartTime: at(t, 14, 0),
		EndTime:   at(t, 15, 0),
	})
	require.ErrorAs(t, err, &LimitReachedError{})

	_, err = engine.RequestBooking(ctx, Request{
		PlayerID:  2,
		CourtID:   court1.ID,
		StartTime: at(t, 9, 30),
		EndTime:   at(t, 10, 30),
	})
	require.ErrorAs(t, err, &TimeOverlapConflict{})

	result, err := engine.SweepNoShows(ctx, at(t, 9, 16))
	require.NoError(t, err)
	require.Equal(t, 1, result.Cancelled)

	p2Booking, err := engine.RequestBooking(ctx, Request{
		PlayerID:  2,
		CourtID:   court1.ID,
		StartTime: at(t, 9, 30),
		EndTime:   at(t, 10, 30),
	})
	require.NoError(t, err)
	require.Equal(t, string(StatusPending), p2Booking.Status)
}
