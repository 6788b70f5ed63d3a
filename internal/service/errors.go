package service

import "errors"

// Errors returned by the parking engine. Not-found and concurrent
// modification come from the repository package unchanged.
var (
	ErrInvalidArgument            = errors.New("invalid argument")
	ErrUnauthorized               = errors.New("reservation belongs to another user")
	ErrAlreadyParked              = errors.New("vehicle already parked for this reservation")
	ErrAlreadyVacated             = errors.New("reservation already vacated")
	ErrNeverParked                = errors.New("vehicle was never parked for this reservation")
	ErrReservationCancelled       = errors.New("reservation was cancelled")
	ErrNoAvailableSpot            = errors.New("no available spot in this lot")
	ErrInsufficientAvailableSpots = errors.New("not enough available spots to remove")
	ErrSpotOccupied               = errors.New("spot is occupied")
	ErrLotHasOccupiedSpots        = errors.New("lot has occupied spots")
)
