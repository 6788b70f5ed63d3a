package domain

import (
	"encoding/json"
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationState string

const (
	ReservationReserved  ReservationState = "reserved"
	ReservationParked    ReservationState = "parked"
	ReservationVacated   ReservationState = "vacated"
	ReservationCancelled ReservationState = "cancelled"
)

// Reservation ties a user to a spot. LotID and SpotNumber are copied at
// booking time so the record stays readable after the spot or lot is gone.
type Reservation struct {
	ID               int        `json:"id"`
	SpotID           int        `json:"spot_id"`
	LotID            int        `json:"lot_id"`
	SpotNumber       int        `json:"spot_number"`
	UserID           int        `json:"user_id"`
	ParkingTimestamp null.Time  `json:"parking_timestamp"`
	LeavingTimestamp null.Time  `json:"leaving_timestamp"`
	Cost             null.Float `json:"parking_cost"`
	CancelledAt      null.Time  `json:"cancelled_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// State is derived from the timestamps; it is never stored.
func (r *Reservation) State() ReservationState {
	switch {
	case r.CancelledAt.Valid:
		return ReservationCancelled
	case r.LeavingTimestamp.Valid:
		return ReservationVacated
	case r.ParkingTimestamp.Valid:
		return ReservationParked
	default:
		return ReservationReserved
	}
}

// Unfinished reports whether the reservation still holds its spot.
func (r *Reservation) Unfinished() bool {
	s := r.State()
	return s == ReservationReserved || s == ReservationParked
}

func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		State ReservationState `json:"state"`
	}{alias(r), r.State()})
}

type CreateReservationDTO struct {
	LotID int `json:"lot_id" binding:"required"`
}

// VacateResult is returned when a reservation is closed.
type VacateResult struct {
	Reservation   *Reservation `json:"reservation"`
	DurationHours float64      `json:"duration_hours"`
	Cost          float64      `json:"parking_cost"`
}

// ReservationHistoryItem is one row of a user's booking history, joined with
// whatever is still known about the lot.
type ReservationHistoryItem struct {
	ReservationID    int              `json:"reservation_id"`
	SpotID           int              `json:"spot_id"`
	SpotNumber       int              `json:"spot_number"`
	LotID            int              `json:"lot_id"`
	LotName          null.String      `json:"lot_name"`
	Address          null.String      `json:"address"`
	PinCode          null.String      `json:"pin_code"`
	ParkingTimestamp null.Time        `json:"parking_timestamp"`
	LeavingTimestamp null.Time        `json:"leaving_timestamp"`
	DurationHours    null.Float       `json:"duration_hours"`
	Cost             null.Float       `json:"parking_cost"`
	State            ReservationState `json:"state"`
	CreatedAt        time.Time        `json:"created_at"`
}
