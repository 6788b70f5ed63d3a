package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

type sqlReservationRepository struct {
	db      DBTX
	dialect Dialect
}

func NewReservationRepository(db DBTX, dialect Dialect) repository.ReservationRepository {
	return &sqlReservationRepository{db: db, dialect: dialect}
}

const reservationColumns = `r.id, r.spot_id, r.lot_id, r.spot_number, r.user_id,
	r.parking_timestamp, r.leaving_timestamp, r.parking_cost, r.cancelled_at, r.created_at`

func utc(t null.Time) null.Time {
	if t.Valid {
		t.Time = t.Time.In(time.UTC)
	}
	return t
}

func scanReservation(row scanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	if err := row.Scan(&res.ID, &res.SpotID, &res.LotID, &res.SpotNumber, &res.UserID,
		&res.ParkingTimestamp, &res.LeavingTimestamp, &res.Cost, &res.CancelledAt, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.ParkingTimestamp = utc(res.ParkingTimestamp)
	res.LeavingTimestamp = utc(res.LeavingTimestamp)
	res.CancelledAt = utc(res.CancelledAt)
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	return res, nil
}

// Create inserts a reservation in the Reserved state. Losing the race for the
// spot's single unfinished slot surfaces as ErrConcurrentModification.
func (r *sqlReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO reservations (spot_id, lot_id, spot_number, user_id, created_at)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query, res.SpotID, res.LotID, res.SpotNumber, res.UserID, res.CreatedAt).Scan(&res.ID)
	if err != nil {
		err = wrapErr("ReservationRepository.Create", err)
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: spot %d already holds a reservation", repository.ErrConcurrentModification, res.SpotID)
		}
		return nil, err
	}
	res.ParkingTimestamp = null.Time{}
	res.LeavingTimestamp = null.Time{}
	res.Cost = null.Float{}
	res.CancelledAt = null.Time{}
	return res, nil
}

func (r *sqlReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne(ctx, "ReservationRepository.FindByID",
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`, id)
}

func (r *sqlReservationRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Reservation, error) {
	return r.findOne(ctx, "ReservationRepository.FindByIDForUpdate",
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`+r.dialect.forUpdate(), id)
}

func (r *sqlReservationRepository) FindUnfinishedBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	           WHERE r.spot_id = $1 AND r.leaving_timestamp IS NULL AND r.cancelled_at IS NULL`
	return r.findOne(ctx, "ReservationRepository.FindUnfinishedBySpotID", query, spotID)
}

func (r *sqlReservationRepository) FindActiveByUserID(ctx context.Context, userID int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	           WHERE r.user_id = $1 AND r.parking_timestamp IS NOT NULL
	             AND r.leaving_timestamp IS NULL AND r.cancelled_at IS NULL
	           ORDER BY r.parking_timestamp DESC, r.id DESC
	           LIMIT 1`
	return r.findOne(ctx, "ReservationRepository.FindActiveByUserID", query, userID)
}

func (r *sqlReservationRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr(op, err)
	}
	return res, nil
}

// FindHistoryByUserID returns every reservation of the user, most recently
// parked first; never-parked ones come last. Lot columns are null once the
// lot has been deleted.
func (r *sqlReservationRepository) FindHistoryByUserID(ctx context.Context, userID int) ([]domain.ReservationHistoryItem, error) {
	query := `SELECT r.id, r.spot_id, r.spot_number, r.lot_id, l.prime_location_name, l.address, l.pin_code,
	                 r.parking_timestamp, r.leaving_timestamp, r.parking_cost, r.cancelled_at, r.created_at
	           FROM reservations r
	           LEFT JOIN parking_lots l ON l.id = r.lot_id
	           WHERE r.user_id = $1
	           ORDER BY CASE WHEN r.parking_timestamp IS NULL THEN 1 ELSE 0 END,
	                    r.parking_timestamp DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("ReservationRepository.FindHistoryByUserID", err)
	}
	defer rows.Close()

	items := []domain.ReservationHistoryItem{}
	for rows.Next() {
		var item domain.ReservationHistoryItem
		var cancelledAt null.Time
		if err := rows.Scan(&item.ReservationID, &item.SpotID, &item.SpotNumber, &item.LotID,
			&item.LotName, &item.Address, &item.PinCode,
			&item.ParkingTimestamp, &item.LeavingTimestamp, &item.Cost, &cancelledAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindHistoryByUserID (scanning row): %w", err)
		}
		item.ParkingTimestamp = utc(item.ParkingTimestamp)
		item.LeavingTimestamp = utc(item.LeavingTimestamp)
		item.CreatedAt = item.CreatedAt.In(time.UTC)
		state := domain.Reservation{
			ParkingTimestamp: item.ParkingTimestamp,
			LeavingTimestamp: item.LeavingTimestamp,
			CancelledAt:      cancelledAt,
		}
		item.State = state.State()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindHistoryByUserID (rows error): %w", err)
	}
	return items, nil
}

func (r *sqlReservationRepository) SummaryByUserID(ctx context.Context, userID int) (int, float64, error) {
	var bookings int
	var spent sql.NullFloat64
	query := `SELECT COUNT(*), SUM(parking_cost) FROM reservations WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&bookings, &spent); err != nil {
		return 0, 0, wrapErr("ReservationRepository.SummaryByUserID", err)
	}
	return bookings, spent.Float64, nil
}

func (r *sqlReservationRepository) Update(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `UPDATE reservations
	           SET parking_timestamp = $1, leaving_timestamp = $2, parking_cost = $3, cancelled_at = $4
	           WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		res.ParkingTimestamp, res.LeavingTimestamp, res.Cost, res.CancelledAt, res.ID)
	if err != nil {
		return nil, wrapErr("ReservationRepository.Update", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Update (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return res, nil
}
