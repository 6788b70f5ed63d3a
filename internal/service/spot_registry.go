package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

// createSpots appends count Available spots numbered after the lot's
// current highest number.
func createSpots(ctx context.Context, repos repository.Repositories, lotID, count int) ([]domain.ParkingSpot, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: spot count must be positive, got %d", ErrInvalidArgument, count)
	}
	highest, err := repos.Spots.MaxSpotNumber(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return repos.Spots.CreateRange(ctx, lotID, highest+1, count)
}

// deleteAvailableSpots removes n unclaimed spots, highest numbers first.
// Nothing is deleted unless all n can be.
func deleteAvailableSpots(ctx context.Context, repos repository.Repositories, lotID, n int) error {
	spots, err := repos.Spots.FindReleasable(ctx, lotID, n)
	if err != nil {
		return err
	}
	if len(spots) < n {
		return fmt.Errorf("%w: need to remove %d spots but only %d are free", ErrInsufficientAvailableSpots, n, len(spots))
	}
	for _, spot := range spots {
		if err := repos.Spots.Delete(ctx, spot.ID); err != nil {
			return err
		}
	}
	return nil
}

// isClaimed reports whether the spot is occupied or held by a reserved or
// parked reservation.
func isClaimed(ctx context.Context, repos repository.Repositories, spot *domain.ParkingSpot) (bool, error) {
	if spot.Status == domain.SpotOccupied {
		return true, nil
	}
	_, err := repos.Reservations.FindUnfinishedBySpotID(ctx, spot.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ParkingService) ListSpots(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	repos := s.store.Repos()
	if _, err := repos.Lots.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	return repos.Spots.FindByLotID(ctx, lotID)
}

func (s *ParkingService) CountSpotsByStatus(ctx context.Context, lotID int, status domain.SpotStatus) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown spot status %q", ErrInvalidArgument, status)
	}
	return s.store.Repos().Spots.CountByStatus(ctx, lotID, status)
}

// SetSpotStatus overwrites a spot's status without checking reservations.
func (s *ParkingService) SetSpotStatus(ctx context.Context, spotID int, status domain.SpotStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown spot status %q", ErrInvalidArgument, status)
	}
	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		return repos.Spots.UpdateStatus(ctx, spotID, status)
	})
}

// GetSpot returns the spot with its lot name and, if claimed, who holds it.
func (s *ParkingService) GetSpot(ctx context.Context, spotID int) (*domain.SpotDetails, error) {
	repos := s.store.Repos()
	spot, err := repos.Spots.FindByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	lot, err := repos.Lots.FindByID(ctx, spot.LotID)
	if err != nil {
		return nil, err
	}
	details := &domain.SpotDetails{ParkingSpot: *spot, LotName: lot.Name}

	res, err := repos.Reservations.FindUnfinishedBySpotID(ctx, spot.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if res != nil {
		info := &domain.SpotReservationInfo{
			ReservationID:    res.ID,
			UserID:           res.UserID,
			ParkingTimestamp: res.ParkingTimestamp,
		}
		if user, err := repos.Users.FindByID(ctx, res.UserID); err == nil {
			info.Username = user.Username
		}
		details.Reservation = info
	}
	return details, nil
}

// DeleteSpot removes a single spot and shrinks the lot's capacity by one.
// Claimed spots are refused with ErrSpotOccupied.
func (s *ParkingService) DeleteSpot(ctx context.Context, spotID int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSpot", attribute.Int("spot.id", spotID))
	defer func() { endSpan(span, err) }()

	var lotID int
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		spot, err := repos.Spots.FindByID(ctx, spotID)
		if err != nil {
			return err
		}
		// lot before spot, the same order every writer uses
		lot, err := repos.Lots.FindByIDForUpdate(ctx, spot.LotID)
		if err != nil {
			return err
		}
		spot, err = repos.Spots.FindByIDForUpdate(ctx, spotID)
		if err != nil {
			return err
		}
		claimed, err := isClaimed(ctx, repos, spot)
		if err != nil {
			return err
		}
		if claimed {
			return fmt.Errorf("%w: spot %d in lot %d", ErrSpotOccupied, spot.SpotNumber, lot.ID)
		}
		if err := repos.Spots.Delete(ctx, spot.ID); err != nil {
			return err
		}

		lot.NumberOfSpots--
		if lot.NumberOfSpots < 0 {
			lot.NumberOfSpots = 0
		}
		lotID = lot.ID
		_, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.LotOperations.WithLabelValues("delete_spot").Inc()
	logging.WithFields(ctx, logrus.Fields{"spot_id": spotID, "lot_id": lotID}).Info("spot deleted")
	return nil
}
