package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/background-worker-service/internal/app/background-worker/service"
	"reviewcatalog/pkg/logger"
	"reviewcatalog/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	serviceName = "background-worker"

	defaultMaxAttempts  = 5
	defaultRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 5 * time.Second
)

var (
	// errMalformedMessage - сообщение не разбирается, повторная доставка бессмысленна
	errMalformedMessage = errors.New("malformed review event")
	// errConsumerStopped - обработка прервана остановкой consumer, offset не коммитится
	errConsumerStopped = errors.New("consumer stopped")
)

// messageReader - часть kafka.Reader, которую использует consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer обрабатывает события из топика review_events
type KafkaConsumer struct {
	reader       messageReader
	ratingSvc    service.RatingServiceInterface
	topic        string
	groupID      string
	maxAttempts  int
	retryBackoff time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	ratingSvc service.RatingServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, ratingSvc)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, ratingSvc service.RatingServiceInterface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		ratingSvc:    ratingSvc,
		topic:        topic,
		groupID:      groupID,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group_id", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop дожидается завершения текущего сообщения и закрывает reader
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	stats := c.GetStats()
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().
		Int64("messages", stats.Messages).
		Int64("errors", stats.Errors).
		Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, context.DeadlineExceeded) {
					logger.Error().Err(err).Msg("Error fetching message")
					metrics.RecordKafkaError(serviceName, c.topic, "fetch")
					time.Sleep(time.Second)
				}
				continue
			}

			c.handle(ctx, message)
		}
	}
}

// handle обрабатывает сообщение до успеха или исчерпания попыток и коммитит offset
// Следующее сообщение не читается, пока текущее не закоммичено:
// commit более позднего offset сдвигает группу и за пропущенное сообщение
// Битые и невалидные события коммитятся сразу, иначе они блокируют партицию
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) {
	start := time.Now()

	msgLog := logger.WithFields(map[string]interface{}{
		"partition": message.Partition,
		"offset":    message.Offset,
	})

	err := c.processWithRetry(ctx, message, msgLog)
	switch {
	case err == nil:
		metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
	case errors.Is(err, errConsumerStopped):
		// Без commit: после перезапуска группа прочитает сообщение снова
		msgLog.Warn().Err(err).Msg("Message left uncommitted on shutdown")
		return
	case errors.Is(err, errMalformedMessage), errors.Is(err, service.ErrInvalidEvent):
		metrics.RecordKafkaError(serviceName, c.topic, "process")
		msgLog.Warn().Err(err).Msg("Skipping invalid message")
	default:
		// Сводку товара восстановит плановый пересчет RecalculateAll
		metrics.RecordKafkaError(serviceName, c.topic, "process")
		msgLog.Error().Err(err).Int("attempts", c.maxAttempts).Msg("Giving up on message after retries")
	}

	if err := c.reader.CommitMessages(ctx, message); err != nil {
		msgLog.Error().Err(err).Msg("Error committing message")
		metrics.RecordKafkaError(serviceName, c.topic, "commit")
	}
}

// processWithRetry повторяет временные ошибки с экспоненциальной паузой
// Пауза прерывается отменой ctx или Stop
func (c *KafkaConsumer) processWithRetry(ctx context.Context, message kafka.Message, msgLog zerolog.Logger) error {
	backoff := c.retryBackoff

	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, message)
		if err == nil || errors.Is(err, errMalformedMessage) || errors.Is(err, service.ErrInvalidEvent) {
			return err
		}
		if attempt >= c.maxAttempts {
			return err
		}

		msgLog.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("Error processing message, retrying")
		metrics.RecordKafkaError(serviceName, c.topic, "retry")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", errConsumerStopped, err)
		case <-c.stopChan:
			return fmt.Errorf("%w: %v", errConsumerStopped, err)
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Uint("product_id", event.ProductID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received review event")

	if err := c.ratingSvc.ProcessReviewEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process review event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику reader
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
