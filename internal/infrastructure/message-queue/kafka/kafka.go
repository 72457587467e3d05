package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mythsoul/Eshop/config"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
)

type messageWriter interface {
	WriteMessages(msgs ...kafka.Message) (int, error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Producer writes to the partition leader of the configured topic. The connection is dialed
// lazily and dropped after a failed write so that the next attempt redials.
type Producer struct {
	mu         sync.Mutex
	conn       messageWriter
	dial       func(ctx context.Context) (messageWriter, error)
	breaker    *gobreaker.CircuitBreaker[any]
	maxRetries int
	backoff    time.Duration
}

func CreateKafkaReader(config *config.Config, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:          []string{config.KafkaConfig.BrokerAddress},
		Topic:            config.KafkaConfig.BrokerTopic,
		MinBytes:         1e3, // 1KB
		MaxBytes:         1e6, // 1MB
		MaxWait:          100 * time.Millisecond,
		ReadLagInterval:  -1,
		StartOffset:      kafka.LastOffset,
		GroupID:          groupID,
		QueueCapacity:    1000,
		ReadBatchTimeout: 10 * time.Millisecond,
	})
}

func CreateKafkaProducer(config *config.Config, breaker *gobreaker.CircuitBreaker[any]) *Producer {
	address := config.KafkaConfig.BrokerAddress
	topic := config.KafkaConfig.BrokerTopic
	partition := config.KafkaConfig.BrokerPartition

	return &Producer{
		dial: func(ctx context.Context) (messageWriter, error) {
			return kafka.DialLeader(ctx, "tcp", address, topic, partition)
		},
		breaker:    breaker,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
}

// Publish writes one keyed message, retrying with a linear backoff. It gives up early when ctx
// is done or the circuit breaker is open.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) (err error) {
	msg := kafka.Message{Key: []byte(key), Value: value}

	for i := 0; i < p.maxRetries; i++ {
		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.write(ctx, msg)
		})
		if err == nil {
			return nil
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "Publish").Int("attempt", i+1).Msg("")

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if i == p.maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish interrupted: %w", ctx.Err())
		case <-time.After(p.backoff * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to write kafka message after %d attempts: %w", p.maxRetries, err)
}

func (p *Producer) write(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := p.dial(ctx)
		if err != nil {
			return err
		}
		p.conn = conn
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	} else {
		_ = p.conn.SetWriteDeadline(time.Time{})
	}

	_, err := p.conn.WriteMessages(msg)
	if err != nil {
		_ = p.conn.Close()
		p.conn = nil
	}

	return err
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}

	err := p.conn.Close()
	p.conn = nil

	return err
}
