package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

func validatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	return nil
}

// CreateLot creates a lot together with its spots numbered 1..NumberOfSpots.
func (s *ParkingService) CreateLot(ctx context.Context, dto domain.CreateParkingLotDTO) (details *domain.ParkingLotDetails, err error) {
	ctx, span := s.startSpan(ctx, "CreateLot", attribute.Int("lot.spots", dto.NumberOfSpots))
	defer func() { endSpan(span, err) }()

	if dto.NumberOfSpots <= 0 {
		return nil, fmt.Errorf("%w: number of spots must be greater than 0", ErrInvalidArgument)
	}
	if dto.Price == nil {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidArgument)
	}
	if err := validatePrice(*dto.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dto.Name) == "" {
		return nil, fmt.Errorf("%w: lot name is required", ErrInvalidArgument)
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		lot, err := repos.Lots.Create(ctx, &domain.ParkingLot{
			Name:          strings.TrimSpace(dto.Name),
			Price:         *dto.Price,
			Address:       dto.Address,
			PinCode:       dto.PinCode,
			NumberOfSpots: dto.NumberOfSpots,
		})
		if err != nil {
			return err
		}
		spots, err := createSpots(ctx, repos, lot.ID, dto.NumberOfSpots)
		if err != nil {
			return err
		}
		details = &domain.ParkingLotDetails{ParkingLot: *lot, AvailableSpots: len(spots), Spots: spots}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LotOperations.WithLabelValues("create").Inc()
	logging.WithFields(ctx, logrus.Fields{"lot_id": details.ID, "spots": dto.NumberOfSpots}).Info("parking lot created")
	return details, nil
}

// resizeLot grows or shrinks the lot to newCount spots. Shrinking only
// removes unclaimed spots and fails as a whole if there are too few.
func resizeLot(ctx context.Context, repos repository.Repositories, lot *domain.ParkingLot, newCount int) error {
	if newCount <= 0 {
		return fmt.Errorf("%w: number of spots must be greater than 0", ErrInvalidArgument)
	}
	current, err := repos.Spots.CountByLotID(ctx, lot.ID)
	if err != nil {
		return err
	}
	switch {
	case newCount > current:
		if _, err := createSpots(ctx, repos, lot.ID, newCount-current); err != nil {
			return err
		}
	case newCount < current:
		if err := deleteAvailableSpots(ctx, repos, lot.ID, current-newCount); err != nil {
			return err
		}
	}
	lot.NumberOfSpots = newCount
	return nil
}

func (s *ParkingService) ResizeLot(ctx context.Context, lotID, newCount int) (lot *domain.ParkingLot, err error) {
	ctx, span := s.startSpan(ctx, "ResizeLot", attribute.Int("lot.id", lotID), attribute.Int("lot.spots", newCount))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		lot, err = repos.Lots.FindByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if err := resizeLot(ctx, repos, lot, newCount); err != nil {
			return err
		}
		lot, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LotOperations.WithLabelValues("resize").Inc()
	logging.WithFields(ctx, logrus.Fields{"lot_id": lotID, "spots": newCount}).Info("parking lot resized")
	return lot, nil
}

// UpdateLot applies a partial update; a changed spot count resizes the lot
// in the same transaction.
func (s *ParkingService) UpdateLot(ctx context.Context, lotID int, dto domain.UpdateParkingLotDTO) (lot *domain.ParkingLot, err error) {
	ctx, span := s.startSpan(ctx, "UpdateLot", attribute.Int("lot.id", lotID))
	defer func() { endSpan(span, err) }()

	if dto.Price != nil {
		if err := validatePrice(*dto.Price); err != nil {
			return nil, err
		}
	}
	if dto.Name != nil && strings.TrimSpace(*dto.Name) == "" {
		return nil, fmt.Errorf("%w: lot name must not be empty", ErrInvalidArgument)
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		lot, err = repos.Lots.FindByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if dto.Name != nil {
			lot.Name = strings.TrimSpace(*dto.Name)
		}
		if dto.Price != nil {
			lot.Price = *dto.Price
		}
		if dto.Address != nil {
			lot.Address = *dto.Address
		}
		if dto.PinCode != nil {
			lot.PinCode = *dto.PinCode
		}
		if dto.NumberOfSpots != nil {
			if err := resizeLot(ctx, repos, lot, *dto.NumberOfSpots); err != nil {
				return err
			}
		}
		lot, err = repos.Lots.Update(ctx, lot)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LotOperations.WithLabelValues("update").Inc()
	logging.WithFields(ctx, logrus.Fields{"lot_id": lotID}).Info("parking lot updated")
	return lot, nil
}

// DeleteLot removes the lot and all its spots. Reservation history is kept.
func (s *ParkingService) DeleteLot(ctx context.Context, lotID int) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteLot", attribute.Int("lot.id", lotID))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Lots.FindByIDForUpdate(ctx, lotID); err != nil {
			return err
		}
		claimed, err := repos.Spots.CountClaimed(ctx, lotID)
		if err != nil {
			return err
		}
		if claimed > 0 {
			return fmt.Errorf("%w: %d spot(s) in use", ErrLotHasOccupiedSpots, claimed)
		}
		return repos.Lots.Delete(ctx, lotID)
	})
	if err != nil {
		return err
	}

	s.metrics.LotOperations.WithLabelValues("delete").Inc()
	logging.WithFields(ctx, logrus.Fields{"lot_id": lotID}).Info("parking lot deleted")
	return nil
}

func (s *ParkingService) lotDetails(ctx context.Context, repos repository.Repositories, lot domain.ParkingLot) (*domain.ParkingLotDetails, error) {
	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	if err != nil {
		return nil, err
	}
	available := 0
	for _, spot := range spots {
		if spot.Status == domain.SpotAvailable {
			available++
		}
	}
	return &domain.ParkingLotDetails{ParkingLot: lot, AvailableSpots: available, Spots: spots}, nil
}

func (s *ParkingService) GetLot(ctx context.Context, lotID int) (*domain.ParkingLotDetails, error) {
	repos := s.store.Repos()
	lot, err := repos.Lots.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return s.lotDetails(ctx, repos, *lot)
}

func (s *ParkingService) ListLots(ctx context.Context) ([]domain.ParkingLotDetails, error) {
	repos := s.store.Repos()
	lots, err := repos.Lots.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.ParkingLotDetails, 0, len(lots))
	for _, lot := range lots {
		details, err := s.lotDetails(ctx, repos, lot)
		if err != nil {
			return nil, err
		}
		result = append(result, *details)
	}
	return result, nil
}

// ListAvailableLots lists lots a user could book right now.
func (s *ParkingService) ListAvailableLots(ctx context.Context) ([]domain.AvailableParkingLot, error) {
	return s.store.Repos().Lots.FindAvailable(ctx)
}
