package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
)

func testEvent() domain.ReservationEvent {
	return domain.ReservationEvent{
		EventID:       "evt-1",
		EventType:     domain.EventVehicleParked,
		ReservationID: 7,
		LotID:         1,
		SpotID:        3,
		SpotNumber:    3,
		UserID:        42,
		SpotStatus:    domain.SpotOccupied,
		Timestamp:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestHubBroadcastsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		go func() {
			defer hub.Unregister(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PublishReservationEvent(context.Background(), testEvent()))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := client.ReadMessage()
	require.NoError(t, err)

	var got domain.ReservationEvent
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, domain.EventVehicleParked, got.EventType)
	assert.Equal(t, 7, got.ReservationID)
	assert.Equal(t, domain.SpotOccupied, got.SpotStatus)
}

func TestHubDropsEventsWhenQueueIsFull(t *testing.T) {
	hub := NewHub()
	// Run is not started, so nothing drains the queue.
	for i := 0; i < broadcastBuffer+5; i++ {
		require.NoError(t, hub.PublishReservationEvent(context.Background(), testEvent()))
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSQSPublisherSendsJSON(t *testing.T) {
	client := &fakeSQS{}
	publisher := NewSQSPublisher(client, "https://sqs.example/queue")

	require.NoError(t, publisher.PublishReservationEvent(context.Background(), testEvent()))
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(input.QueueUrl))
	assert.Equal(t, string(domain.EventVehicleParked), aws.ToString(input.MessageAttributes["event_type"].StringValue))

	var got domain.ReservationEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.MessageBody)), &got))
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, 42, got.UserID)
}

func TestSQSPublisherReturnsSendErrors(t *testing.T) {
	client := &fakeSQS{err: errors.New("throttled")}
	publisher := NewSQSPublisher(client, "q")

	err := publisher.PublishReservationEvent(context.Background(), testEvent())
	assert.ErrorContains(t, err, "throttled")
}
