package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

// allocate picks the lowest numbered spot that is Available and not held by
// another reservation.
func allocate(ctx context.Context, repos repository.Repositories, lotID int) (*domain.ParkingSpot, error) {
	spot, err := repos.Spots.FindFirstAllocatable(ctx, lotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: lot %d", ErrNoAvailableSpot, lotID)
	}
	return spot, err
}

// BookSpot allocates a spot in the lot and opens a Reserved reservation on
// it for userID. Allocation and creation commit together; the whole unit is
// retried with backoff when another booking wins the race.
func (s *ParkingService) BookSpot(ctx context.Context, lotID, userID int) (res *domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "BookSpot", attribute.Int("lot.id", lotID), attribute.Int("user.id", userID))
	defer func() { endSpan(span, err) }()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond

	attempt := 0
	res, err = backoff.Retry(ctx, func() (*domain.Reservation, error) {
		attempt++
		if attempt > 1 {
			s.metrics.AllocationRetry.Inc()
		}
		res, err := s.bookOnce(ctx, lotID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrConcurrentModification) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return res, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(s.maxRetries),
	)
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, ErrNoAvailableSpot):
			reason = "no_available_spot"
		case errors.Is(err, repository.ErrConcurrentModification):
			reason = "conflict"
		case errors.Is(err, repository.ErrNotFound):
			reason = "lot_not_found"
		}
		s.metrics.AllocationErrors.WithLabelValues(reason).Inc()
		return nil, err
	}

	s.metrics.Reservations.WithLabelValues("reserved").Inc()
	logging.WithFields(ctx, logrus.Fields{
		"reservation_id": res.ID,
		"lot_id":         lotID,
		"spot_number":    res.SpotNumber,
		"user_id":        userID,
		"attempts":       attempt,
	}).Info("spot reserved")
	s.publish(ctx, domain.EventSpotReserved, res, domain.SpotAvailable)
	return res, nil
}

func (s *ParkingService) bookOnce(ctx context.Context, lotID, userID int) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		// Locking the lot serialises bookings and resizes of the same lot.
		if _, err := repos.Lots.FindByIDForUpdate(ctx, lotID); err != nil {
			return err
		}
		spot, err := allocate(ctx, repos, lotID)
		if err != nil {
			return err
		}
		res, err = s.createReservation(ctx, repos, spot, userID)
		return err
	})
	return res, err
}
