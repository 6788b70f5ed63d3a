package domain

import "time"

type ParkingLot struct {
	ID            int       `json:"id"`
	Name          string    `json:"prime_location_name"`
	Price         float64   `json:"price"` // per hour
	Address       string    `json:"address"`
	PinCode       string    `json:"pin_code"`
	NumberOfSpots int       `json:"number_of_spots"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateParkingLotDTO struct {
	Name          string   `json:"prime_location_name" binding:"required"`
	Price         *float64 `json:"price" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	PinCode       string   `json:"pin_code" binding:"required"`
	NumberOfSpots int      `json:"number_of_spots"`
}

// UpdateParkingLotDTO carries a partial update. Nil fields are left as they are.
type UpdateParkingLotDTO struct {
	Name          *string  `json:"prime_location_name"`
	Price         *float64 `json:"price"`
	Address       *string  `json:"address"`
	PinCode       *string  `json:"pin_code"`
	NumberOfSpots *int     `json:"number_of_spots"`
}

// ParkingLotDetails is the admin view of a lot with its spots.
type ParkingLotDetails struct {
	ParkingLot
	AvailableSpots int           `json:"available_spots"`
	Spots          []ParkingSpot `json:"spots"`
}

// AvailableParkingLot is the user-facing listing row.
type AvailableParkingLot struct {
	ID             int     `json:"id"`
	Name           string  `json:"prime_location_name"`
	Address        string  `json:"address"`
	PinCode        string  `json:"pin_code"`
	PricePerHour   float64 `json:"price_per_hour"`
	AvailableSpots int     `json:"available_spots"`
	TotalSpots     int     `json:"total_spots"`
}
