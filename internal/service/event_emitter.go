package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Mythsoul/Eshop/config"
	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/internal/infrastructure/metrics"
	"github.com/Mythsoul/Eshop/internal/repository"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

const (
	relayBatchSize     = 100
	storeFailedTimeout = 5 * time.Second

	publishResultOK        = "ok"
	publishResultFailed    = "failed"
	publishResultQueueFull = "queue_full"
	publishResultRelayed   = "relayed"
)

type outboundEvent struct {
	ctx     context.Context
	key     string
	message dto.KafkaMessage
}

// EventEmitter publishes events after commit on a background worker. Events that cannot be
// delivered are stored for RelayFailedEvents, giving at-least-once delivery.
type EventEmitter struct {
	publisher      EventPublisher
	repository     repository.FailedEventRepository
	metrics        *metrics.Metrics
	publishTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan outboundEvent
	wg     sync.WaitGroup
}

func CreateEventEmitter(publisher EventPublisher, repository repository.FailedEventRepository, m *metrics.Metrics, config config.EventConfig) *EventEmitter {
	queueSize := config.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	e := &EventEmitter{
		publisher:      publisher,
		repository:     repository,
		metrics:        m,
		publishTimeout: config.PublishTimeout,
		queue:          make(chan outboundEvent, queueSize),
	}

	e.wg.Add(1)
	go e.run()

	return e
}

func (e *EventEmitter) EmitOrderCreated(ctx context.Context, order domain.Order, address dto.AddressRequest) {
	items := make([]dto.OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderCreatedItem{Product: item.Product, Quantity: item.Quantity})
	}

	orderID := order.ID.Hex()
	e.Emit(ctx, dto.EventOrderCreated, orderID, dto.OrderCreatedEvent{
		OrderID: orderID,
		UserID:  order.UserID,
		Items:   items,
		Amount:  order.TotalAmount,
		Tax:     order.Tax,
		Address: address,
		Status:  order.Status,
	})
}

// Emit queues an event and returns immediately. A full or closed queue sends the event
// straight to the failed-event store.
func (e *EventEmitter) Emit(ctx context.Context, eventType string, key string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "Emit").Str("event_type", eventType).Msg("")
		return
	}

	event := outboundEvent{
		// keep the request logger but not its cancellation
		ctx: log.Ctx(ctx).WithContext(context.Background()),
		key: key,
		message: dto.KafkaMessage{
			EventType: eventType,
			EventID:   ulid.Make().String(),
			Data:      payload,
		},
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		e.storeFailed(event, "event emitter closed")
		return
	}

	select {
	case e.queue <- event:
		e.metrics.EventQueueDepth.Set(float64(len(e.queue)))
		e.mu.RUnlock()
		return
	default:
	}
	e.mu.RUnlock()

	e.metrics.EventsPublished.WithLabelValues(publishResultQueueFull).Inc()
	e.storeFailed(event, "event queue full")
}

func (e *EventEmitter) run() {
	defer e.wg.Done()

	for event := range e.queue {
		e.metrics.EventQueueDepth.Set(float64(len(e.queue)))
		e.publish(event)
	}
}

func (e *EventEmitter) publish(event outboundEvent) {
	value, err := json.Marshal(event.message)
	if err != nil {
		log.Ctx(event.ctx).Error().Err(err).Str("component", "EventEmitter").Msg("")
		return
	}

	ctx := event.ctx
	if e.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(event.ctx, e.publishTimeout)
		defer cancel()
	}

	err = e.publisher.Publish(ctx, event.key, value)
	if err != nil {
		log.Ctx(event.ctx).Error().Err(err).Str("component", "EventEmitter").Str("event_id", event.message.EventID).Msg("publish failed")
		e.metrics.EventsPublished.WithLabelValues(publishResultFailed).Inc()
		e.storeFailed(event, err.Error())
		return
	}

	e.metrics.EventsPublished.WithLabelValues(publishResultOK).Inc()
	log.Ctx(event.ctx).Info().Str("component", "EventEmitter").Str("event_type", event.message.EventType).Str("event_id", event.message.EventID).Msg("event published")
}

func (e *EventEmitter) storeFailed(event outboundEvent, reason string) {
	value, err := json.Marshal(event.message)
	if err != nil {
		log.Ctx(event.ctx).Error().Err(err).Str("component", "EventEmitter").Msg("")
		return
	}

	ctx, cancel := context.WithTimeout(event.ctx, storeFailedTimeout)
	defer cancel()

	now := time.Now().UTC()
	err = e.repository.AddFailedEvent(ctx, domain.FailedEvent{
		ID:        event.message.EventID,
		EventType: event.message.EventType,
		Key:       event.key,
		Payload:   value,
		Attempts:  1,
		LastError: reason,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// nothing else holds the event now
		log.Ctx(event.ctx).Error().Err(err).Str("component", "EventEmitter").Str("event_id", event.message.EventID).RawJSON("payload", value).Msg("event dropped")
	}
}

// RelayFailedEvents republishes stored events oldest first and removes the ones delivered.
func (e *EventEmitter) RelayFailedEvents(ctx context.Context) (relayed int, err error) {
	events, err := e.repository.GetFailedEvents(ctx, relayBatchSize)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "RelayFailedEvents").Msg("")
		return 0, err
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return relayed, ctx.Err()
		}

		publishCtx := ctx
		cancel := func() {}
		if e.publishTimeout > 0 {
			publishCtx, cancel = context.WithTimeout(ctx, e.publishTimeout)
		}

		err := e.publisher.Publish(publishCtx, event.Key, event.Payload)
		cancel()
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("component", "RelayFailedEvents").Str("event_id", event.ID).Int("attempts", event.Attempts).Msg("")
			if markErr := e.repository.MarkFailedEventAttempt(ctx, event.ID, err.Error()); markErr != nil {
				log.Ctx(ctx).Error().Err(markErr).Str("component", "RelayFailedEvents").Msg("")
			}
			continue
		}

		if err := e.repository.DeleteFailedEvent(ctx, event.ID); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "RelayFailedEvents").Str("event_id", event.ID).Msg("")
			continue
		}

		relayed++
		e.metrics.EventsPublished.WithLabelValues(publishResultRelayed).Inc()
	}

	if len(events) > 0 {
		log.Ctx(ctx).Info().Str("component", "RelayFailedEvents").Int("pending", len(events)).Int("relayed", relayed).Msg("")
	}

	return relayed, nil
}

// Close stops accepting events and waits for the queued ones to be published.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}
