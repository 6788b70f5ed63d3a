package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paresh-singh/Vehicle-parking/internal/config"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/metrics"
	"github.com/paresh-singh/Vehicle-parking/internal/repository/sqlstore"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	clock  *stepClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlstore.Open(&config.Config{DBDriver: "sqlite3", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := metrics.New()
	auth := service.NewAuthService(store, "test-secret", time.Hour, 24*time.Hour, clock)
	parking := service.NewParkingService(store, clock, m, 3)

	_, err = auth.EnsureAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	router := SetupRouter(Dependencies{AuthService: auth, ParkingService: parking, Metrics: m})
	return &testServer{router: router, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) login(t *testing.T, username, password string) domain.AuthResponseDTO {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login", "", domain.LoginUserDTO{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[domain.AuthResponseDTO](t, w)
}

func (s *testServer) registerUser(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", domain.RegisterUserDTO{Username: username, Password: "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, username, "secret123").AccessToken
}

func (s *testServer) createLot(t *testing.T, adminToken string, spots int) int {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/admin/parking-lots", adminToken, map[string]any{
		"prime_location_name": "Central",
		"price":               10.0,
		"address":             "1 Main St",
		"pin_code":            "560001",
		"number_of_spots":     spots,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.ParkingLotDetails](t, w).ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/user/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/reservations", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleChecks(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123").AccessToken
	user := s.registerUser(t, "alice")

	w := s.do(t, http.MethodGet, "/api/admin/parking-lots", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/parking-lots", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]domain.User](t, w)
	assert.Len(t, users, 2)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestDuplicateRegistration(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/register", "", domain.RegisterUserDTO{Username: "alice", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", domain.LoginUserDTO{Username: "alice", Password: "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReservationLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123").AccessToken
	alice := s.registerUser(t, "alice")
	lotID := s.createLot(t, admin, 2)

	w := s.do(t, http.MethodGet, "/api/user/parking-lots", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lots := decode[[]domain.AvailableParkingLot](t, w)
	require.Len(t, lots, 1)
	assert.Equal(t, 2, lots[0].AvailableSpots)

	w = s.do(t, http.MethodPost, "/api/user/reservations", alice, domain.CreateReservationDTO{LotID: lotID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[map[string]any](t, w)
	assert.Equal(t, "reserved", res["state"])
	resID := int(res["id"].(float64))

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/vacate", resID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/park", resID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Access tokens live for an hour, so the ones issued before parking
	// have expired by the time alice leaves.
	s.clock.Advance(90 * time.Minute)
	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/vacate", resID), alice, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	alice = s.login(t, "alice", "secret123").AccessToken
	admin = s.login(t, "admin", "admin123").AccessToken

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/vacate", resID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[map[string]any](t, w)
	assert.Equal(t, 15.0, result["parking_cost"])
	assert.Equal(t, 1.5, result["duration_hours"])

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/vacate", resID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/reservations", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]map[string]any](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "Central", history[0]["lot_name"])

	w = s.do(t, http.MethodGet, "/api/user/dashboard/summary", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[domain.UserSummary](t, w)
	assert.Equal(t, 1, summary.TotalBookings)
	assert.Equal(t, 15.0, summary.TotalAmountSpent)

	w = s.do(t, http.MethodGet, "/api/admin/dashboard/summary", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	adminSummary := decode[domain.AdminSummary](t, w)
	assert.Equal(t, 2, adminSummary.TotalSpots)
	assert.Equal(t, 0, adminSummary.OccupiedSpots)
}

func TestReservationErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123").AccessToken
	alice := s.registerUser(t, "alice")
	bob := s.registerUser(t, "bob")
	lotID := s.createLot(t, admin, 1)

	w := s.do(t, http.MethodPost, "/api/user/reservations", alice, domain.CreateReservationDTO{LotID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/user/reservations", alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/user/reservations", alice, domain.CreateReservationDTO{LotID: lotID})
	require.Equal(t, http.StatusCreated, w.Code)
	resID := int(decode[map[string]any](t, w)["id"].(float64))

	w = s.do(t, http.MethodPost, "/api/user/reservations", bob, domain.CreateReservationDTO{LotID: lotID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/park", resID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/user/reservations/abc/park", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/cancel", resID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode[map[string]any](t, w)["state"])

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/user/reservations/%d/park", resID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLotManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123").AccessToken
	alice := s.registerUser(t, "alice")
	lotID := s.createLot(t, admin, 3)

	w := s.do(t, http.MethodPost, "/api/admin/parking-lots", admin, map[string]any{
		"prime_location_name": "Empty", "price": 5.0, "number_of_spots": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/parking-lots/%d", lotID), admin, map[string]any{"number_of_spots": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, decode[domain.ParkingLot](t, w).NumberOfSpots)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/parking-lots/%d/spots", lotID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	spots := decode[[]domain.ParkingSpot](t, w)
	require.Len(t, spots, 5)

	w = s.do(t, http.MethodPost, "/api/user/reservations", alice, domain.CreateReservationDTO{LotID: lotID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/parking-spots/%d", spots[0].ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	spot := decode[domain.SpotDetails](t, w)
	require.NotNil(t, spot.Reservation)
	assert.Equal(t, "alice", spot.Reservation.Username)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/parking-spots/%d", spots[0].ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/parking-spots/%d", spots[4].ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/parking-lots/%d", lotID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/admin/parking-lots/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/parking-lots", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lots := decode[[]domain.ParkingLotDetails](t, w)
	require.Len(t, lots, 1)
	assert.Equal(t, 4, lots[0].NumberOfSpots)
}

func TestExportReservations(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123").AccessToken
	alice := s.registerUser(t, "alice")
	lotID := s.createLot(t, admin, 1)

	w := s.do(t, http.MethodGet, "/api/user/reservations/export", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/user/reservations", alice, domain.CreateReservationDTO{LotID: lotID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/reservations/export", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "alice_parking_history.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Reservation ID", records[0][0])
	assert.Equal(t, "Central", records[1][1])
	assert.Equal(t, "1", records[1][2])
	assert.Equal(t, "N/A", records[1][3])
	assert.Equal(t, "N/A", records[1][6])
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, "alice")
	tokens := s.login(t, "alice", "secret123")

	w := s.do(t, http.MethodPost, "/auth/refresh", "", domain.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[domain.AuthResponseDTO](t, w)
	assert.NotEmpty(t, refreshed.AccessToken)

	w = s.do(t, http.MethodPost, "/auth/refresh", "", domain.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", refreshed.AccessToken, map[string]string{"refresh_token": refreshed.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/reservations", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/auth/refresh", "", domain.RefreshTokenDTO{RefreshToken: refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
