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

type sqlParkingSpotRepository struct {
	db      DBTX
	dialect Dialect
}

func NewParkingSpotRepository(db DBTX, dialect Dialect) repository.ParkingSpotRepository {
	return &sqlParkingSpotRepository{db: db, dialect: dialect}
}

const spotColumns = `s.id, s.lot_id, s.spot_number, s.status, s.created_at, s.updated_at`

// unclaimed holds for a spot (aliased s) with no reserved or parked reservation.
const unclaimed = `NOT EXISTS (SELECT 1 FROM reservations r
	                            WHERE r.spot_id = s.id
	                              AND r.leaving_timestamp IS NULL
	                              AND r.cancelled_at IS NULL)`

func scanSpot(row scanner) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	var status string
	if err := row.Scan(&spot.ID, &spot.LotID, &spot.SpotNumber, &status, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
		return nil, err
	}
	spot.Status = domain.SpotStatus(status)
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *sqlParkingSpotRepository) scanAll(rows *sql.Rows, op string) ([]domain.ParkingSpot, error) {
	defer rows.Close()
	spots := []domain.ParkingSpot{}
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s (scanning row): %w", op, err)
		}
		spots = append(spots, *spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows error): %w", op, err)
	}
	return spots, nil
}

func (r *sqlParkingSpotRepository) CreateRange(ctx context.Context, lotID, firstNumber, count int) ([]domain.ParkingSpot, error) {
	now := time.Now().UTC()
	query := `INSERT INTO parking_spots (lot_id, spot_number, status, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	spots := make([]domain.ParkingSpot, 0, count)
	for i := 0; i < count; i++ {
		spot := domain.ParkingSpot{
			LotID:      lotID,
			SpotNumber: firstNumber + i,
			Status:     domain.SpotAvailable,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err := r.db.QueryRowContext(ctx, query, lotID, spot.SpotNumber, string(spot.Status), now, now).Scan(&spot.ID)
		if err != nil {
			err = wrapErr("ParkingSpotRepository.CreateRange", err)
			if errors.Is(err, repository.ErrDuplicateEntry) {
				return nil, fmt.Errorf("%w: spot %d already exists in lot %d", repository.ErrDuplicateEntry, spot.SpotNumber, lotID)
			}
			return nil, err
		}
		spots = append(spots, spot)
	}
	return spots, nil
}

func (r *sqlParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return r.findOne(ctx, "ParkingSpotRepository.FindByID",
		`SELECT `+spotColumns+` FROM parking_spots s WHERE s.id = $1`, id)
}

func (r *sqlParkingSpotRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return r.findOne(ctx, "ParkingSpotRepository.FindByIDForUpdate",
		`SELECT `+spotColumns+` FROM parking_spots s WHERE s.id = $1`+r.dialect.forUpdate(), id)
}

func (r *sqlParkingSpotRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.ParkingSpot, error) {
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr(op, err)
	}
	return spot, nil
}

func (r *sqlParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots s WHERE s.lot_id = $1 ORDER BY s.spot_number`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, wrapErr("ParkingSpotRepository.FindByLotID", err)
	}
	return r.scanAll(rows, "ParkingSpotRepository.FindByLotID")
}

func (r *sqlParkingSpotRepository) MaxSpotNumber(ctx context.Context, lotID int) (int, error) {
	return r.count(ctx, "ParkingSpotRepository.MaxSpotNumber",
		`SELECT COALESCE(MAX(spot_number), 0) FROM parking_spots WHERE lot_id = $1`, lotID)
}

func (r *sqlParkingSpotRepository) CountByLotID(ctx context.Context, lotID int) (int, error) {
	return r.count(ctx, "ParkingSpotRepository.CountByLotID",
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = $1`, lotID)
}

func (r *sqlParkingSpotRepository) CountByStatus(ctx context.Context, lotID int, status domain.SpotStatus) (int, error) {
	return r.count(ctx, "ParkingSpotRepository.CountByStatus",
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = $1 AND status = $2`, lotID, string(status))
}

func (r *sqlParkingSpotRepository) CountAllByStatus(ctx context.Context, status domain.SpotStatus) (int, error) {
	if status == "" {
		return r.count(ctx, "ParkingSpotRepository.CountAllByStatus", `SELECT COUNT(*) FROM parking_spots`)
	}
	return r.count(ctx, "ParkingSpotRepository.CountAllByStatus",
		`SELECT COUNT(*) FROM parking_spots WHERE status = $1`, string(status))
}

func (r *sqlParkingSpotRepository) CountClaimed(ctx context.Context, lotID int) (int, error) {
	query := `SELECT COUNT(*) FROM parking_spots s
	           WHERE s.lot_id = $1 AND (s.status = $2 OR NOT ` + unclaimed + `)`
	return r.count(ctx, "ParkingSpotRepository.CountClaimed", query, lotID, string(domain.SpotOccupied))
}

func (r *sqlParkingSpotRepository) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

func (r *sqlParkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	query := `UPDATE parking_spots SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return wrapErr("ParkingSpotRepository.UpdateStatus", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqlParkingSpotRepository) FindFirstAllocatable(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots s
	           WHERE s.lot_id = $1 AND s.status = $2 AND ` + unclaimed + `
	           ORDER BY s.spot_number ASC LIMIT 1` + r.dialect.forUpdate()
	return r.findOne(ctx, "ParkingSpotRepository.FindFirstAllocatable", query, lotID, string(domain.SpotAvailable))
}

func (r *sqlParkingSpotRepository) FindReleasable(ctx context.Context, lotID, limit int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots s
	           WHERE s.lot_id = $1 AND s.status = $2 AND ` + unclaimed + `
	           ORDER BY s.spot_number DESC LIMIT $3` + r.dialect.forUpdate()
	rows, err := r.db.QueryContext(ctx, query, lotID, string(domain.SpotAvailable), limit)
	if err != nil {
		return nil, wrapErr("ParkingSpotRepository.FindReleasable", err)
	}
	return r.scanAll(rows, "ParkingSpotRepository.FindReleasable")
}

func (r *sqlParkingSpotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = $1`, id)
	if err != nil {
		return wrapErr("ParkingSpotRepository.Delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
