package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type SpotStatus string

const (
	SpotAvailable SpotStatus = "A"
	SpotOccupied  SpotStatus = "O"
)

func (s SpotStatus) Valid() bool {
	return s == SpotAvailable || s == SpotOccupied
}

type ParkingSpot struct {
	ID         int        `json:"id"`
	LotID      int        `json:"lot_id"`
	SpotNumber int        `json:"spot_number"`
	Status     SpotStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SpotDetails is the admin view of a single spot. Reservation is set while
// the spot is claimed by an unfinished reservation.
type SpotDetails struct {
	ParkingSpot
	LotName     string               `json:"lot_name"`
	Reservation *SpotReservationInfo `json:"reservation,omitempty"`
}

type SpotReservationInfo struct {
	ReservationID    int       `json:"reservation_id"`
	UserID           int       `json:"user_id"`
	Username         string    `json:"username"`
	ParkingTimestamp null.Time `json:"parking_timestamp"`
}
