package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const readRetryDelay = 200 * time.Millisecond

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// NotificationServiceImpl consumes order events and emails the buyer. A nil mailer only logs.
type NotificationServiceImpl struct {
	reader     MessageReader
	repository repository.UserRepository
	mailer     Mailer
}

func CreateNotificationService(reader MessageReader, repository repository.UserRepository, mailer Mailer) NotificationService {
	return &NotificationServiceImpl{
		reader:     reader,
		repository: repository,
		mailer:     mailer,
	}
}

// ConsumeEvent reads until ctx is cancelled. Malformed or unknown messages are skipped.
func (s *NotificationServiceImpl) ConsumeEvent(ctx context.Context) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Ctx(ctx).Error().Err(err).Str("component", "ConsumeEvent").Msg("")

			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		if err := s.handleMessage(ctx, msg.Value); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "ConsumeEvent").Str("key", string(msg.Key)).Msg("")
		}
	}
}

func (s *NotificationServiceImpl) handleMessage(ctx context.Context, value []byte) error {
	var receivedMsg dto.KafkaMessage
	if err := json.Unmarshal(value, &receivedMsg); err != nil {
		return err
	}

	switch receivedMsg.EventType {
	case dto.EventOrderCreated:
		var event dto.OrderCreatedEvent
		if err := json.Unmarshal(receivedMsg.Data, &event); err != nil {
			return err
		}

		return s.notifyOrderCreated(ctx, event)
	default:
		log.Ctx(ctx).Debug().Str("component", "ConsumeEvent").Str("event_type", receivedMsg.EventType).Msg("ignored")
		return nil
	}
}

func (s *NotificationServiceImpl) notifyOrderCreated(ctx context.Context, event dto.OrderCreatedEvent) error {
	user, err := s.repository.GetUserByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("loading buyer %s: %w", event.UserID, err)
	}

	subject, body := orderCreatedEmail(user.Name, event)

	if s.mailer == nil || user.Email == "" {
		log.Ctx(ctx).Info().Str("component", "ConsumeEvent").Str("order_id", event.OrderID).Msg("order notification skipped, no mail route")
		return nil
	}

	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		return fmt.Errorf("sending order email: %w", err)
	}

	log.Ctx(ctx).Info().Str("component", "ConsumeEvent").Str("order_id", event.OrderID).Msg("order notification sent")

	return nil
}

func orderCreatedEmail(name string, event dto.OrderCreatedEvent) (subject string, body string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your order %s has been placed.\n\n", event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "- %s x %d\n", item.Product, item.Quantity)
	}
	fmt.Fprintf(&b, "\nTax: %d\nTotal: %d\n\n", event.Tax, event.Amount)
	fmt.Fprintf(&b, "Shipping to %s, %s, %s, %s %s\n", event.Address.FullName, event.Address.Area, event.Address.City, event.Address.Province, event.Address.Zipcode)

	return fmt.Sprintf("Order %s placed", event.OrderID), b.String()
}
