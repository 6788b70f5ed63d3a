package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paresh-singh/Vehicle-parking/internal/config"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/metrics"
	"github.com/paresh-singh/Vehicle-parking/internal/repository/sqlstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.ReservationEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ReservationEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type testEnv struct {
	store     *sqlstore.Store
	clock     *fakeClock
	metrics   *metrics.Metrics
	publisher *recordingPublisher
	svc       *ParkingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlstore.Open(&config.Config{DBDriver: "sqlite3", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	env := &testEnv{
		store:     store,
		clock:     newFakeClock(),
		metrics:   metrics.New(),
		publisher: &recordingPublisher{},
	}
	env.svc = NewParkingService(store, env.clock, env.metrics, 3, env.publisher)
	return env
}

func (e *testEnv) createLot(t *testing.T, spots int, price float64) *domain.ParkingLotDetails {
	t.Helper()
	lot, err := e.svc.CreateLot(context.Background(), domain.CreateParkingLotDTO{
		Name:          "Central",
		Price:         &price,
		Address:       "1 Main St",
		PinCode:       "560001",
		NumberOfSpots: spots,
	})
	require.NoError(t, err)
	return lot
}

func (e *testEnv) createUser(t *testing.T, name string) *domain.User {
	t.Helper()
	user, err := e.store.Repos().Users.Create(context.Background(), &domain.User{
		Username: name,
		Password: "hash",
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
	return user
}

// spotCount returns the number of spot rows in the lot.
func (e *testEnv) spotCount(t *testing.T, lotID int) int {
	t.Helper()
	n, err := e.store.Repos().Spots.CountByLotID(context.Background(), lotID)
	require.NoError(t, err)
	return n
}

func (e *testEnv) lotCapacity(t *testing.T, lotID int) int {
	t.Helper()
	lot, err := e.store.Repos().Lots.FindByID(context.Background(), lotID)
	require.NoError(t, err)
	return lot.NumberOfSpots
}

func (e *testEnv) spotStatus(t *testing.T, spotID int) domain.SpotStatus {
	t.Helper()
	spot, err := e.store.Repos().Spots.FindByID(context.Background(), spotID)
	require.NoError(t, err)
	return spot.Status
}
