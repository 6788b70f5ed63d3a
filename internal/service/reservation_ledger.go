package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/guregu/null.v4"

	"github.com/paresh-singh/Vehicle-parking/internal/billing"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

// Reservation states move Reserved -> Parked -> Vacated, or Reserved ->
// Cancelled. Nothing moves backwards.

// createReservation opens a Reserved reservation. The spot keeps its
// Available status until the vehicle is parked.
func (s *ParkingService) createReservation(ctx context.Context, repos repository.Repositories, spot *domain.ParkingSpot, userID int) (*domain.Reservation, error) {
	return repos.Reservations.Create(ctx, &domain.Reservation{
		SpotID:     spot.ID,
		LotID:      spot.LotID,
		SpotNumber: spot.SpotNumber,
		UserID:     userID,
		CreatedAt:  s.now(),
	})
}

// lockOwned loads and locks a reservation, refusing anyone but its owner.
func lockOwned(ctx context.Context, repos repository.Repositories, reservationID, requesterUserID int) (*domain.Reservation, error) {
	res, err := repos.Reservations.FindByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != requesterUserID {
		return nil, fmt.Errorf("%w: reservation %d", ErrUnauthorized, reservationID)
	}
	return res, nil
}

// MarkParked records the arrival of the vehicle and occupies the spot.
func (s *ParkingService) MarkParked(ctx context.Context, reservationID, requesterUserID int) (res *domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "MarkParked", attribute.Int("reservation.id", reservationID))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		res, err = lockOwned(ctx, repos, reservationID, requesterUserID)
		if err != nil {
			return err
		}
		switch res.State() {
		case domain.ReservationCancelled:
			return ErrReservationCancelled
		case domain.ReservationParked, domain.ReservationVacated:
			return ErrAlreadyParked
		}

		spot, err := repos.Spots.FindByIDForUpdate(ctx, res.SpotID)
		if err != nil {
			return err
		}
		if spot.Status == domain.SpotOccupied {
			return fmt.Errorf("%w: spot %d", ErrSpotOccupied, spot.SpotNumber)
		}

		res.ParkingTimestamp = null.TimeFrom(s.now())
		if _, err := repos.Reservations.Update(ctx, res); err != nil {
			return err
		}
		return repos.Spots.UpdateStatus(ctx, spot.ID, domain.SpotOccupied)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Reservations.WithLabelValues("parked").Inc()
	logging.WithFields(ctx, logrus.Fields{
		"reservation_id": res.ID,
		"spot_id":        res.SpotID,
		"user_id":        res.UserID,
	}).Info("vehicle parked")
	s.publish(ctx, domain.EventVehicleParked, res, domain.SpotOccupied)
	return res, nil
}

// MarkVacated records departure, frees the spot and bills the stay at the
// lot's hourly price.
func (s *ParkingService) MarkVacated(ctx context.Context, reservationID, requesterUserID int) (result *domain.VacateResult, err error) {
	ctx, span := s.startSpan(ctx, "MarkVacated", attribute.Int("reservation.id", reservationID))
	defer func() { endSpan(span, err) }()

	var res *domain.Reservation
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		res, err = lockOwned(ctx, repos, reservationID, requesterUserID)
		if err != nil {
			return err
		}
		if res.CancelledAt.Valid {
			return ErrReservationCancelled
		}
		if !res.ParkingTimestamp.Valid {
			return ErrNeverParked
		}
		if res.LeavingTimestamp.Valid {
			return ErrAlreadyVacated
		}

		lot, err := repos.Lots.FindByID(ctx, res.LotID)
		if err != nil {
			return fmt.Errorf("loading lot %d for billing: %w", res.LotID, err)
		}
		if _, err := repos.Spots.FindByIDForUpdate(ctx, res.SpotID); err != nil {
			return err
		}

		leaving := s.now()
		res.LeavingTimestamp = null.TimeFrom(leaving)
		res.Cost = null.FloatFrom(billing.ComputeCost(res.ParkingTimestamp.Time, leaving, lot.Price))
		if _, err := repos.Reservations.Update(ctx, res); err != nil {
			return err
		}
		return repos.Spots.UpdateStatus(ctx, res.SpotID, domain.SpotAvailable)
	})
	if err != nil {
		return nil, err
	}

	result = &domain.VacateResult{
		Reservation:   res,
		DurationHours: billing.DurationHours(res.ParkingTimestamp.Time, res.LeavingTimestamp.Time),
		Cost:          res.Cost.Float64,
	}
	s.metrics.Reservations.WithLabelValues("vacated").Inc()
	s.metrics.RevenueBilled.Add(result.Cost)
	logging.WithFields(ctx, logrus.Fields{
		"reservation_id": res.ID,
		"spot_id":        res.SpotID,
		"user_id":        res.UserID,
		"cost":           result.Cost,
	}).Info("vehicle left")
	s.publish(ctx, domain.EventVehicleLeft, res, domain.SpotAvailable)
	return result, nil
}

// CancelReservation drops a booking before the vehicle arrives, releasing
// the spot's claim.
func (s *ParkingService) CancelReservation(ctx context.Context, reservationID, requesterUserID int) (res *domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "CancelReservation", attribute.Int("reservation.id", reservationID))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		res, err = lockOwned(ctx, repos, reservationID, requesterUserID)
		if err != nil {
			return err
		}
		switch res.State() {
		case domain.ReservationCancelled:
			return ErrReservationCancelled
		case domain.ReservationVacated:
			return ErrAlreadyVacated
		case domain.ReservationParked:
			return ErrAlreadyParked
		}
		res.CancelledAt = null.TimeFrom(s.now())
		_, err = repos.Reservations.Update(ctx, res)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Reservations.WithLabelValues("cancelled").Inc()
	logging.WithFields(ctx, logrus.Fields{"reservation_id": res.ID, "user_id": res.UserID}).Info("reservation cancelled")
	s.publish(ctx, domain.EventReservationCanceled, res, domain.SpotAvailable)
	return res, nil
}

// ActiveReservationFor returns the user's parked, not yet vacated
// reservation, or repository.ErrNotFound.
func (s *ParkingService) ActiveReservationFor(ctx context.Context, userID int) (*domain.Reservation, error) {
	return s.store.Repos().Reservations.FindActiveByUserID(ctx, userID)
}

func (s *ParkingService) GetReservation(ctx context.Context, reservationID, requesterUserID int) (*domain.Reservation, error) {
	res, err := s.store.Repos().Reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != requesterUserID {
		return nil, fmt.Errorf("%w: reservation %d", ErrUnauthorized, reservationID)
	}
	return res, nil
}

// ReservationsForUser returns the user's history, most recently parked
// first, with stay durations filled in.
func (s *ParkingService) ReservationsForUser(ctx context.Context, userID int) ([]domain.ReservationHistoryItem, error) {
	items, err := s.store.Repos().Reservations.FindHistoryByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ParkingTimestamp.Valid && items[i].LeavingTimestamp.Valid {
			items[i].DurationHours = null.FloatFrom(billing.DurationHours(items[i].ParkingTimestamp.Time, items[i].LeavingTimestamp.Time))
		}
	}
	return items, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
