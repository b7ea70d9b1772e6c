package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/palaro-app/courtbook/internal/db"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedVenueAndCourt inserts a venue with one active court and returns both.
func SeedVenueAndCourt(t *testing.T, database *db.DB, autoConfirm bool) (db.Venue, db.Court) {
	t.Helper()

	ctx := context.Background()
	venue, err := database.Queries.CreateVenue(ctx, db.CreateVenueParams{
		Name:        "Rizal Sports Hub",
		Timezone:    "Asia/Manila",
		AutoConfirm: autoConfirm,
	})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		VenueID: venue.ID,
		Name:    "Court 1",
		Active:  true,
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	return venue, court
}

// SeedCourt adds another active court to an existing venue.
func SeedCourt(t *testing.T, database *db.DB, venueID int64, name string) db.Court {
	t.Helper()

	court, err := database.Queries.CreateCourt(context.Background(), db.CreateCourtParams{
		VenueID: venueID,
		Name:    name,
		Active:  true,
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	return court
}
