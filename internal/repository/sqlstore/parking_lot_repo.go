package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

type sqlParkingLotRepository struct {
	db      DBTX
	dialect Dialect
}

func NewParkingLotRepository(db DBTX, dialect Dialect) repository.ParkingLotRepository {
	return &sqlParkingLotRepository{db: db, dialect: dialect}
}

const lotColumns = `id, prime_location_name, price, address, pin_code, number_of_spots, created_at, updated_at`

func scanLot(row scanner) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	if err := row.Scan(&lot.ID, &lot.Name, &lot.Price, &lot.Address, &lot.PinCode,
		&lot.NumberOfSpots, &lot.CreatedAt, &lot.UpdatedAt); err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *sqlParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	now := time.Now().UTC()
	query := `INSERT INTO parking_lots (prime_location_name, price, address, pin_code, number_of_spots, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		lot.Name, lot.Price, lot.Address, lot.PinCode, lot.NumberOfSpots, now, now,
	).Scan(&lot.ID)
	if err != nil {
		return nil, wrapErr("ParkingLotRepository.Create", err)
	}
	lot.CreatedAt = now
	lot.UpdatedAt = now
	return lot, nil
}

func (r *sqlParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return r.findByID(ctx, "ParkingLotRepository.FindByID", `SELECT `+lotColumns+` FROM parking_lots WHERE id = $1`, id)
}

func (r *sqlParkingLotRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return r.findByID(ctx, "ParkingLotRepository.FindByIDForUpdate",
		`SELECT `+lotColumns+` FROM parking_lots WHERE id = $1`+r.dialect.forUpdate(), id)
}

func (r *sqlParkingLotRepository) findByID(ctx context.Context, op, query string, id int) (*domain.ParkingLot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr(op, err)
	}
	return lot, nil
}

func (r *sqlParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lotColumns+` FROM parking_lots ORDER BY id`)
	if err != nil {
		return nil, wrapErr("ParkingLotRepository.FindAll", err)
	}
	defer rows.Close()

	lots := []domain.ParkingLot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lots = append(lots, *lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

// FindAvailable lists lots that still have an allocatable spot.
func (r *sqlParkingLotRepository) FindAvailable(ctx context.Context) ([]domain.AvailableParkingLot, error) {
	query := `SELECT l.id, l.prime_location_name, l.address, l.pin_code, l.price, l.number_of_spots,
	                 (SELECT COUNT(*) FROM parking_spots s
	                   WHERE s.lot_id = l.id AND s.status = $1
	                     AND NOT EXISTS (SELECT 1 FROM reservations r
	                                      WHERE r.spot_id = s.id
	                                        AND r.leaving_timestamp IS NULL
	                                        AND r.cancelled_at IS NULL)) AS available
	           FROM parking_lots l
	           ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query, string(domain.SpotAvailable))
	if err != nil {
		return nil, wrapErr("ParkingLotRepository.FindAvailable", err)
	}
	defer rows.Close()

	lots := []domain.AvailableParkingLot{}
	for rows.Next() {
		var lot domain.AvailableParkingLot
		if err := rows.Scan(&lot.ID, &lot.Name, &lot.Address, &lot.PinCode, &lot.PricePerHour,
			&lot.TotalSpots, &lot.AvailableSpots); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAvailable (scanning row): %w", err)
		}
		if lot.AvailableSpots > 0 {
			lots = append(lots, lot)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAvailable (rows error): %w", err)
	}
	return lots, nil
}

func (r *sqlParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	now := time.Now().UTC()
	query := `UPDATE parking_lots
	           SET prime_location_name = $1, price = $2, address = $3, pin_code = $4,
	               number_of_spots = $5, updated_at = $6
	           WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		lot.Name, lot.Price, lot.Address, lot.PinCode, lot.NumberOfSpots, now, lot.ID)
	if err != nil {
		return nil, wrapErr("ParkingLotRepository.Update", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Update (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	lot.UpdatedAt = now
	return lot, nil
}

// Delete removes the lot; its spots go with it through ON DELETE CASCADE.
func (r *sqlParkingLotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return wrapErr("ParkingLotRepository.Delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqlParkingLotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_lots`).Scan(&n); err != nil {
		return 0, wrapErr("ParkingLotRepository.Count", err)
	}
	return n, nil
}
