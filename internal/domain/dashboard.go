package domain

import "time"

type UserSummary struct {
	TotalBookings     int                    `json:"total_bookings"`
	TotalAmountSpent  float64                `json:"total_amount_spent"`
	ActiveReservation *ActiveReservationInfo `json:"active_reservation"`
}

type ActiveReservationInfo struct {
	ReservationID    int       `json:"reservation_id"`
	LotName          string    `json:"lot_name"`
	SpotNumber       int       `json:"spot_number"`
	ParkingTimestamp time.Time `json:"parking_timestamp"`
}

type AdminSummary struct {
	TotalLots      int     `json:"total_lots"`
	TotalSpots     int     `json:"total_spots"`
	OccupiedSpots  int     `json:"occupied_spots"`
	AvailableSpots int     `json:"available_spots"`
	OccupancyRate  float64 `json:"occupancy_rate"` // percent, 2 dp
}
