// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	AutoConfirm bool      `json:"auto_confirm"`
	CreatedAt   time.Time `json:"created_at"`
}

type Court struct {
	ID        int64     `json:"id"`
	VenueID   int64     `json:"venue_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Reservation struct {
	ID                 int64          `json:"id"`
	PlayerID           int64          `json:"player_id"`
	CourtID            int64          `json:"court_id"`
	VenueID            int64          `json:"venue_id"`
	Date               string         `json:"date"`
	StartTime          time.Time      `json:"start_time"`
	EndTime            time.Time      `json:"end_time"`
	Status             string         `json:"status"`
	CancellationReason sql.NullString `json:"cancellation_reason"`
	CheckedInAt        sql.NullTime   `json:"checked_in_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type BlockingEvent struct {
	ID             int64     `json:"id"`
	CourtID        int64     `json:"court_id"`
	OwnerID        int64     `json:"owner_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Category       string    `json:"category"`
	BlocksBookings bool      `json:"blocks_bookings"`
	CreatedAt      time.Time `json:"created_at"`
}
