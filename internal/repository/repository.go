package repository

import (
	"context"
	"errors"
	"time"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

// ErrConcurrentModification reports lock contention or a lost race on a
// unique constraint. The whole operation is safe to retry.
var ErrConcurrentModification = errors.New("concurrent modification, retry the operation")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	// FindByIDForUpdate locks the lot row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	FindAvailable(ctx context.Context) ([]domain.AvailableParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type ParkingSpotRepository interface {
	// CreateRange inserts count spots numbered from firstNumber upwards.
	CreateRange(ctx context.Context, lotID, firstNumber, count int) ([]domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	MaxSpotNumber(ctx context.Context, lotID int) (int, error)
	CountByLotID(ctx context.Context, lotID int) (int, error)
	CountByStatus(ctx context.Context, lotID int, status domain.SpotStatus) (int, error)
	// CountAllByStatus counts across every lot. An empty status counts all spots.
	CountAllByStatus(ctx context.Context, status domain.SpotStatus) (int, error)
	// CountClaimed counts spots that are occupied or held by an unfinished reservation.
	CountClaimed(ctx context.Context, lotID int) (int, error)
	UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error
	// FindFirstAllocatable returns the lowest numbered spot that is available
	// and not held by an unfinished reservation.
	FindFirstAllocatable(ctx context.Context, lotID int) (*domain.ParkingSpot, error)
	// FindReleasable returns up to limit unclaimed spots, highest number first.
	FindReleasable(ctx context.Context, lotID, limit int) ([]domain.ParkingSpot, error)
	Delete(ctx context.Context, id int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Reservation, error)
	// FindUnfinishedBySpotID returns the reserved or parked reservation holding the spot.
	FindUnfinishedBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error)
	// FindActiveByUserID returns the latest parked, not yet vacated reservation.
	FindActiveByUserID(ctx context.Context, userID int) (*domain.Reservation, error)
	FindHistoryByUserID(ctx context.Context, userID int) ([]domain.ReservationHistoryItem, error)
	SummaryByUserID(ctx context.Context, userID int) (bookings int, spent float64, err error)
	Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
}

type RevokedTokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repositories is the set of repositories bound to one connection or transaction.
type Repositories struct {
	Users         UserRepository
	Lots          ParkingLotRepository
	Spots         ParkingSpotRepository
	Reservations  ReservationRepository
	RevokedTokens RevokedTokenRepository
}

type Store interface {
	// Repos returns repositories that run outside any explicit transaction.
	Repos() Repositories
	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
