package events

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/go-faster/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mallcraft/trade-service/internal/domain/order"
)

// Config holds the Kafka producer settings.
type Config struct {
	BootstrapServers string
	ClientID         string
	Topic            string
	DeliveryTimeout  time.Duration
	CircuitBreaker   gobreaker.Settings
}

// Publisher emits order events to Kafka behind a circuit breaker.
// It satisfies the order service's event sink.
type Publisher struct {
	producer     *kafka.Producer
	deliveryChan chan kafka.Event
	reportsDone  chan struct{}
	breaker      *gobreaker.CircuitBreaker
	cfg          Config
	lg           *zap.Logger
}

var _ order.EventSink = (*Publisher)(nil)

// NewPublisher constructs a Publisher ready to emit events.
func NewPublisher(cfg Config, lg *zap.Logger) (*Publisher, error) {
	if cfg.BootstrapServers == "" {
		return nil, errors.New("bootstrap servers missing")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic missing")
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 15 * time.Second
	}
	if cfg.CircuitBreaker.Name == "" {
		cfg.CircuitBreaker = gobreaker.Settings{
			Name:        "order_events_breaker",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
		}
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         cfg.ClientID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create producer")
	}

	p := &Publisher{
		producer:     producer,
		deliveryChan: make(chan kafka.Event, 128),
		reportsDone:  make(chan struct{}),
		breaker:      gobreaker.NewCircuitBreaker(cfg.CircuitBreaker),
		cfg:          cfg,
		lg:           lg.Named("events"),
	}

	go p.handleDeliveryReports()

	return p, nil
}

// OrderCreated publishes the order-created event keyed by order number.
func (p *Publisher) OrderCreated(ctx context.Context, o *order.Order) error {
	payload, err := NewOrderCreated(o).Encode()
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return p.publish(ctx, []byte(o.OrderNo), payload)
}

func (p *Publisher) publish(ctx context.Context, key, value []byte) error {
	_, err := p.breaker.Execute(func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &p.cfg.Topic, Partition: kafka.PartitionAny},
			Key:            key,
			Value:          value,
			Timestamp:      time.Now(),
		}
		return nil, p.producer.Produce(msg, p.deliveryChan)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return errors.Wrap(err, "breaker open")
		}
		return errors.Wrap(err, "produce")
	}
	return nil
}

func (p *Publisher) handleDeliveryReports() {
	defer close(p.reportsDone)
	for evt := range p.deliveryChan {
		switch m := evt.(type) {
		case *kafka.Message:
			if m.TopicPartition.Error != nil {
				p.lg.Warn("Delivery failed",
					zap.Stringp("topic", m.TopicPartition.Topic),
					zap.Error(m.TopicPartition.Error),
				)
			}
		default:
			p.lg.Debug("Unexpected producer event", zap.String("event", evt.String()))
		}
	}
}

// Close flushes pending messages and releases the producer. The producer is
// closed before the delivery channel so a report straggling past the flush
// timeout cannot hit a closed channel, and Close returns only after the
// report handler has drained.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.producer != nil {
		p.producer.Flush(int(p.cfg.DeliveryTimeout.Milliseconds()))
		p.producer.Close()
	}
	close(p.deliveryChan)
	<-p.reportsDone
}
