package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"github.com/paresh-singh/Vehicle-parking/internal/config"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&config.Config{DBDriver: "sqlite3", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedLot(t *testing.T, repos repository.Repositories, spots int) *domain.ParkingLot {
	t.Helper()
	ctx := context.Background()
	lot, err := repos.Lots.Create(ctx, &domain.ParkingLot{
		Name: "Central", Price: 10, Address: "1 Main St", PinCode: "560001", NumberOfSpots: spots,
	})
	require.NoError(t, err)
	_, err = repos.Spots.CreateRange(ctx, lot.ID, 1, spots)
	require.NoError(t, err)
	return lot
}

func seedUser(t *testing.T, repos repository.Repositories, name string) *domain.User {
	t.Helper()
	user, err := repos.Users.Create(context.Background(), &domain.User{Username: name, Password: "hash", Role: domain.RoleUser})
	require.NoError(t, err)
	return user
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))

	var n int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()

	user := seedUser(t, repos, "alice")
	assert.NotZero(t, user.ID)

	_, err := repos.Users.Create(ctx, &domain.User{Username: "alice", Password: "x", Role: domain.RoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	found, err := repos.Users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.Password)

	_, err = repos.Users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := repos.Users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSpotRepositoryOrderingAndCounts(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 3)

	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 3)
	for i, s := range spots {
		assert.Equal(t, i+1, s.SpotNumber)
		assert.Equal(t, domain.SpotAvailable, s.Status)
	}

	require.NoError(t, repos.Spots.UpdateStatus(ctx, spots[0].ID, domain.SpotOccupied))

	maxNumber, err := repos.Spots.MaxSpotNumber(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, maxNumber)

	occupied, err := repos.Spots.CountByStatus(ctx, lot.ID, domain.SpotOccupied)
	require.NoError(t, err)
	assert.Equal(t, 1, occupied)

	total, err := repos.Spots.CountAllByStatus(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, err = repos.Spots.CreateRange(ctx, lot.ID, 3, 1)
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	assert.ErrorIs(t, repos.Spots.UpdateStatus(ctx, 999, domain.SpotOccupied), repository.ErrNotFound)
}

func TestFindFirstAllocatableSkipsClaimedSpots(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 3)
	user := seedUser(t, repos, "bob")
	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)

	// spot 1 occupied, spot 2 held by a pending reservation
	require.NoError(t, repos.Spots.UpdateStatus(ctx, spots[0].ID, domain.SpotOccupied))
	_, err = repos.Reservations.Create(ctx, &domain.Reservation{
		SpotID: spots[1].ID, LotID: lot.ID, SpotNumber: 2, UserID: user.ID,
	})
	require.NoError(t, err)

	spot, err := repos.Spots.FindFirstAllocatable(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, spot.SpotNumber)

	claimed, err := repos.Spots.CountClaimed(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, claimed)

	releasable, err := repos.Spots.FindReleasable(ctx, lot.ID, 5)
	require.NoError(t, err)
	require.Len(t, releasable, 1)
	assert.Equal(t, 3, releasable[0].SpotNumber)
}

func TestFindReleasableHighestFirst(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 5)

	spots, err := repos.Spots.FindReleasable(ctx, lot.ID, 2)
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, 5, spots[0].SpotNumber)
	assert.Equal(t, 4, spots[1].SpotNumber)
}

func TestReservationSingleUnfinishedPerSpot(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 1)
	user := seedUser(t, repos, "carol")
	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)

	res, err := repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, SpotNumber: 1, UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationReserved, res.State())

	_, err = repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, SpotNumber: 1, UserID: user.ID})
	assert.ErrorIs(t, err, repository.ErrConcurrentModification)

	// once cancelled, the spot can be booked again
	res.CancelledAt = null.TimeFrom(time.Now().UTC())
	_, err = repos.Reservations.Update(ctx, res)
	require.NoError(t, err)
	_, err = repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, SpotNumber: 1, UserID: user.ID})
	assert.NoError(t, err)
}

func TestReservationRoundTripAndHistory(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 2)
	user := seedUser(t, repos, "dave")
	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)

	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first, err := repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, SpotNumber: 1, UserID: user.ID})
	require.NoError(t, err)
	first.ParkingTimestamp = null.TimeFrom(t0)
	first.LeavingTimestamp = null.TimeFrom(t0.Add(time.Hour))
	first.Cost = null.FloatFrom(10)
	_, err = repos.Reservations.Update(ctx, first)
	require.NoError(t, err)

	second, err := repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[1].ID, LotID: lot.ID, SpotNumber: 2, UserID: user.ID})
	require.NoError(t, err)
	second.ParkingTimestamp = null.TimeFrom(t0.Add(24 * time.Hour))
	_, err = repos.Reservations.Update(ctx, second)
	require.NoError(t, err)

	loaded, err := repos.Reservations.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, loaded.ParkingTimestamp.Time.Equal(t0))
	assert.Equal(t, 10.0, loaded.Cost.Float64)
	assert.Equal(t, domain.ReservationVacated, loaded.State())

	active, err := repos.Reservations.FindActiveByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	history, err := repos.Reservations.FindHistoryByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ReservationID)
	assert.Equal(t, domain.ReservationParked, history[0].State)
	assert.Equal(t, "Central", history[1].LotName.String)

	bookings, spent, err := repos.Reservations.SummaryByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bookings)
	assert.Equal(t, 10.0, spent)
}

func TestHistorySurvivesLotDeletion(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	lot := seedLot(t, repos, 1)
	user := seedUser(t, repos, "erin")
	spots, err := repos.Spots.FindByLotID(ctx, lot.ID)
	require.NoError(t, err)

	res, err := repos.Reservations.Create(ctx, &domain.Reservation{SpotID: spots[0].ID, LotID: lot.ID, SpotNumber: 1, UserID: user.ID})
	require.NoError(t, err)
	res.CancelledAt = null.TimeFrom(time.Now().UTC())
	_, err = repos.Reservations.Update(ctx, res)
	require.NoError(t, err)

	require.NoError(t, repos.Lots.Delete(ctx, lot.ID))

	n, err := repos.Spots.CountByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "spots cascade with their lot")

	history, err := repos.Reservations.FindHistoryByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].LotName.Valid)
	assert.Equal(t, domain.ReservationCancelled, history[0].State)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		seedLot(t, repos, 2)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := store.Repos().Lots.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = store.WithinTx(ctx, func(repos repository.Repositories) error {
		seedLot(t, repos, 2)
		return nil
	})
	require.NoError(t, err)
	n, err = store.Repos().Lots.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRevokedTokens(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repos.RevokedTokens.Revoke(ctx, "old", now.Add(-time.Minute)))
	require.NoError(t, repos.RevokedTokens.Revoke(ctx, "fresh", now.Add(time.Hour)))
	require.NoError(t, repos.RevokedTokens.Revoke(ctx, "fresh", now.Add(time.Hour)))

	revoked, err := repos.RevokedTokens.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, revoked)

	purged, err := repos.RevokedTokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	revoked, err = repos.RevokedTokens.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAvailableLots(t *testing.T) {
	ctx := context.Background()
	repos := newTestStore(t).Repos()
	full := seedLot(t, repos, 1)
	open := seedLot(t, repos, 2)

	spots, err := repos.Spots.FindByLotID(ctx, full.ID)
	require.NoError(t, err)
	require.NoError(t, repos.Spots.UpdateStatus(ctx, spots[0].ID, domain.SpotOccupied))

	lots, err := repos.Lots.FindAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, open.ID, lots[0].ID)
	assert.Equal(t, 2, lots[0].AvailableSpots)
	assert.Equal(t, 2, lots[0].TotalSpots)
}
