package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/background-worker-service/internal/app/background-worker/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRatingService мок для RatingServiceInterface
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) ProcessReviewEvent(ctx context.Context, event *entity.ReviewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRatingService) RecalculateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRatingService) GetSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummary), args.Error(1)
}

// fakeReader отдает заранее заданные сообщения и запоминает коммиты
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats {
	return kafka.ReaderStats{Topic: "review_events"}
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offsets := make([]int64, 0, len(r.committed))
	for _, msg := range r.committed {
		offsets = append(offsets, msg.Offset)
	}
	return offsets
}

func eventMessage(t *testing.T, offset int64, event entity.ReviewEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: "review_events", Offset: offset, Value: value}
}

// ===================== NewKafkaConsumer Tests =====================

func TestNewKafkaConsumer(t *testing.T) {
	ratingSvc := new(MockRatingService)

	consumer := NewKafkaConsumer([]string{"broker1:9092", "broker2:9092"}, "review_events", "test-group", 1, 10e6, ratingSvc)

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "review_events", consumer.topic)
	assert.Equal(t, "test-group", consumer.groupID)
	assert.NotNil(t, consumer.stopChan)
	assert.NotNil(t, consumer.doneChan)

	consumer.reader.Close()
}

// ===================== processMessage Tests =====================

func TestKafkaConsumer_ProcessMessage_Success(t *testing.T) {
	ratingSvc := new(MockRatingService)
	consumer := newKafkaConsumer(&fakeReader{}, "review_events", "test-group", ratingSvc)

	ctx := context.Background()
	eventID := uuid.New()
	message := eventMessage(t, 1, entity.ReviewEvent{
		EventID:   eventID,
		EventType: entity.EventReviewCreated,
		ProductID: 7,
		Author:    "alice",
		Rating:    5,
		Timestamp: time.Now().UTC(),
	})

	ratingSvc.On("ProcessReviewEvent", ctx, mock.MatchedBy(func(e *entity.ReviewEvent) bool {
		return e.EventID == eventID && e.ProductID == 7 && e.EventType == entity.EventReviewCreated
	})).Return(nil)

	err := consumer.processMessage(ctx, message)

	assert.NoError(t, err)
	ratingSvc.AssertExpectations(t)
}

func TestKafkaConsumer_ProcessMessage_InvalidJSON(t *testing.T) {
	ratingSvc := new(MockRatingService)
	consumer := newKafkaConsumer(&fakeReader{}, "review_events", "test-group", ratingSvc)

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("{not json")})

	assert.ErrorIs(t, err, errMalformedMessage)
	ratingSvc.AssertNotCalled(t, "ProcessReviewEvent", mock.Anything, mock.Anything)
}

func TestKafkaConsumer_ProcessMessage_ServiceError(t *testing.T) {
	ratingSvc := new(MockRatingService)
	consumer := newKafkaConsumer(&fakeReader{}, "review_events", "test-group", ratingSvc)

	ctx := context.Background()
	message := eventMessage(t, 1, entity.ReviewEvent{EventType: entity.EventReviewUpdated, ProductID: 1})

	ratingSvc.On("ProcessReviewEvent", ctx, mock.Anything).Return(errors.New("db down"))

	err := consumer.processMessage(ctx, message)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process review event")
}

// ===================== handle Tests =====================

// newTestConsumer - consumer с короткой паузой между попытками
func newTestConsumer(reader messageReader, ratingSvc service.RatingServiceInterface) *KafkaConsumer {
	consumer := newKafkaConsumer(reader, "review_events", "test-group", ratingSvc)
	consumer.maxAttempts = 3
	consumer.retryBackoff = time.Millisecond
	return consumer
}

func TestKafkaConsumer_Handle_CommitPolicy(t *testing.T) {
	tests := []struct {
		name        string
		message     func(t *testing.T) kafka.Message
		serviceErrs []error
		calls       int
	}{
		{
			name: "success is committed",
			message: func(t *testing.T) kafka.Message {
				return eventMessage(t, 10, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1})
			},
			serviceErrs: []error{nil},
			calls:       1,
		},
		{
			name: "transient failure is retried and committed",
			message: func(t *testing.T) kafka.Message {
				return eventMessage(t, 11, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1})
			},
			serviceErrs: []error{errors.New("redis down"), nil},
			calls:       2,
		},
		{
			name: "persistent failure is committed after last attempt",
			message: func(t *testing.T) kafka.Message {
				return eventMessage(t, 12, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1})
			},
			serviceErrs: []error{errors.New("redis down"), errors.New("redis down"), errors.New("redis down")},
			calls:       3,
		},
		{
			name: "invalid event is committed without retry",
			message: func(t *testing.T) kafka.Message {
				return eventMessage(t, 13, entity.ReviewEvent{EventType: entity.EventReviewCreated})
			},
			serviceErrs: []error{service.ErrInvalidEvent},
			calls:       1,
		},
		{
			name: "malformed message is committed",
			message: func(t *testing.T) kafka.Message {
				return kafka.Message{Offset: 14, Value: []byte("garbage")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratingSvc := new(MockRatingService)
			reader := &fakeReader{}
			consumer := newTestConsumer(reader, ratingSvc)
			for _, err := range tt.serviceErrs {
				ratingSvc.On("ProcessReviewEvent", mock.Anything, mock.Anything).Return(err).Once()
			}

			msg := tt.message(t)
			consumer.handle(context.Background(), msg)

			assert.Equal(t, []int64{msg.Offset}, reader.committedOffsets())
			ratingSvc.AssertNumberOfCalls(t, "ProcessReviewEvent", tt.calls)
		})
	}
}

func TestKafkaConsumer_Handle_StopDuringRetryLeavesUncommitted(t *testing.T) {
	ratingSvc := new(MockRatingService)
	reader := &fakeReader{}
	consumer := newTestConsumer(reader, ratingSvc)
	consumer.retryBackoff = time.Minute
	ratingSvc.On("ProcessReviewEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.handle(context.Background(), eventMessage(t, 20, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1}))
	}()

	close(consumer.stopChan)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not return after stop")
	}
	assert.Empty(t, reader.committedOffsets())
}

func TestKafkaConsumer_Handle_ContextCanceledDuringRetry(t *testing.T) {
	ratingSvc := new(MockRatingService)
	reader := &fakeReader{}
	consumer := newTestConsumer(reader, ratingSvc)
	consumer.retryBackoff = time.Minute
	ratingSvc.On("ProcessReviewEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	consumer.handle(ctx, eventMessage(t, 21, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1}))

	assert.Empty(t, reader.committedOffsets())
	ratingSvc.AssertNumberOfCalls(t, "ProcessReviewEvent", 1)
}

// ===================== Start/Stop Tests =====================

func TestKafkaConsumer_StartStop_ProcessesMessages(t *testing.T) {
	ratingSvc := new(MockRatingService)
	reader := &fakeReader{
		messages: []kafka.Message{
			eventMessage(t, 1, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1}),
			eventMessage(t, 2, entity.ReviewEvent{EventType: entity.EventReviewDeleted, ProductID: 1}),
		},
	}
	consumer := newTestConsumer(reader, ratingSvc)
	ratingSvc.On("ProcessReviewEvent", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	consumer.Stop()

	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
	assert.True(t, reader.closed)
	ratingSvc.AssertNumberOfCalls(t, "ProcessReviewEvent", 2)
}

// Сбой одного сообщения не дает следующему закоммитить offset раньше него
func TestKafkaConsumer_FailedMessageRetriedBeforeNext(t *testing.T) {
	ratingSvc := new(MockRatingService)
	reader := &fakeReader{
		messages: []kafka.Message{
			eventMessage(t, 1, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 1}),
			eventMessage(t, 2, entity.ReviewEvent{EventType: entity.EventReviewCreated, ProductID: 2}),
		},
	}
	consumer := newTestConsumer(reader, ratingSvc)

	var mu sync.Mutex
	var processed []uint
	record := func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, args.Get(1).(*entity.ReviewEvent).ProductID)
	}
	forProduct := func(id uint) interface{} {
		return mock.MatchedBy(func(e *entity.ReviewEvent) bool { return e.ProductID == id })
	}
	ratingSvc.On("ProcessReviewEvent", mock.Anything, forProduct(1)).Return(errors.New("redis down")).Once().Run(record)
	ratingSvc.On("ProcessReviewEvent", mock.Anything, forProduct(1)).Return(nil).Once().Run(record)
	ratingSvc.On("ProcessReviewEvent", mock.Anything, forProduct(2)).Return(nil).Once().Run(record)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	consumer.Stop()

	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
	mu.Lock()
	assert.Equal(t, []uint{1, 1, 2}, processed)
	mu.Unlock()
	ratingSvc.AssertExpectations(t)
}

func TestKafkaConsumer_GetStats(t *testing.T) {
	consumer := newKafkaConsumer(&fakeReader{}, "review_events", "test-group", new(MockRatingService))

	stats := consumer.GetStats()

	assert.Equal(t, "review_events", stats.Topic)
}
