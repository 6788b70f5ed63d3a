package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/metrics"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
	"github.com/paresh-singh/Vehicle-parking/internal/telemetry"
)

// EventPublisher receives reservation events after they are committed.
// Implementations must not block for long; failures are only logged.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, event domain.ReservationEvent) error
}

// ParkingService is the reservation engine: spot registry, allocation,
// reservation ledger and lot lifecycle. Every public method is one
// transaction.
type ParkingService struct {
	store      repository.Store
	clock      Clock
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	maxRetries uint
	publishers []EventPublisher
}

func NewParkingService(
	store repository.Store,
	clock Clock,
	m *metrics.Metrics,
	maxRetries int,
	publishers ...EventPublisher,
) *ParkingService {
	if clock == nil {
		clock = SystemClock{}
	}
	if m == nil {
		m = metrics.New()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ParkingService{
		store:      store,
		clock:      clock,
		metrics:    m,
		tracer:     telemetry.Tracer(),
		maxRetries: uint(maxRetries),
		publishers: publishers,
	}
}

// now is truncated to microseconds so values survive a database round trip.
func (s *ParkingService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *ParkingService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ParkingService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *ParkingService) publish(ctx context.Context, eventType domain.ReservationEventType, res *domain.Reservation, status domain.SpotStatus) {
	event := domain.ReservationEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		ReservationID: res.ID,
		LotID:         res.LotID,
		SpotID:        res.SpotID,
		SpotNumber:    res.SpotNumber,
		UserID:        res.UserID,
		SpotStatus:    status,
		Cost:          res.Cost,
		Timestamp:     s.now(),
	}
	for _, p := range s.publishers {
		if err := p.PublishReservationEvent(ctx, event); err != nil {
			logging.WithFields(ctx, logrus.Fields{
				"event_type":     eventType,
				"reservation_id": res.ID,
			}).Warnf("publishing reservation event failed: %v", err)
		}
	}
}
