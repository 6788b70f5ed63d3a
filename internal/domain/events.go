package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationEventType string

const (
	EventSpotReserved        ReservationEventType = "spot_reserved"
	EventVehicleParked       ReservationEventType = "vehicle_parked"
	EventVehicleLeft         ReservationEventType = "vehicle_left"
	EventReservationCanceled ReservationEventType = "reservation_cancelled"
)

// ReservationEvent is pushed to websocket clients and the event queue after
// a reservation change has been committed.
type ReservationEvent struct {
	EventID       string               `json:"event_id"`
	EventType     ReservationEventType `json:"event_type"`
	ReservationID int                  `json:"reservation_id"`
	LotID         int                  `json:"lot_id"`
	SpotID        int                  `json:"spot_id"`
	SpotNumber    int                  `json:"spot_number"`
	UserID        int                  `json:"user_id"`
	SpotStatus    SpotStatus           `json:"spot_status"`
	Cost          null.Float           `json:"parking_cost"`
	Timestamp     time.Time            `json:"timestamp"`
}
