package service

import (
	"context"

	"github.com/paresh-singh/Vehicle-parking/internal/billing"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
)

func (s *ParkingService) UserSummary(ctx context.Context, userID int) (*domain.UserSummary, error) {
	repos := s.store.Repos()
	bookings, spent, err := repos.Reservations.SummaryByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.UserSummary{
		TotalBookings:    bookings,
		TotalAmountSpent: billing.Round2(spent),
	}

	active, err := repos.Reservations.FindActiveByUserID(ctx, userID)
	switch {
	case isNotFound(err):
		return summary, nil
	case err != nil:
		return nil, err
	}

	lotName := "N/A"
	if lot, err := repos.Lots.FindByID(ctx, active.LotID); err == nil {
		lotName = lot.Name
	} else if !isNotFound(err) {
		return nil, err
	}
	summary.ActiveReservation = &domain.ActiveReservationInfo{
		ReservationID:    active.ID,
		LotName:          lotName,
		SpotNumber:       active.SpotNumber,
		ParkingTimestamp: active.ParkingTimestamp.Time,
	}
	return summary, nil
}

func (s *ParkingService) AdminSummary(ctx context.Context) (*domain.AdminSummary, error) {
	repos := s.store.Repos()
	lots, err := repos.Lots.Count(ctx)
	if err != nil {
		return nil, err
	}
	total, err := repos.Spots.CountAllByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	occupied, err := repos.Spots.CountAllByStatus(ctx, domain.SpotOccupied)
	if err != nil {
		return nil, err
	}

	summary := &domain.AdminSummary{
		TotalLots:      lots,
		TotalSpots:     total,
		OccupiedSpots:  occupied,
		AvailableSpots: total - occupied,
	}
	if total > 0 {
		summary.OccupancyRate = billing.Round2(float64(occupied) / float64(total) * 100)
	}
	return summary, nil
}
