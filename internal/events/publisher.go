package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers post-commit advisories. Implementations must be safe
// for concurrent use and must never block order placement: errors are
// logged by callers, not propagated.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	PublishLowStock(ctx context.Context, event LowStockEvent) error
	Close() error
}

type KafkaPublisher struct {
	orderWriter *kafka.Writer
	stockWriter *kafka.Writer
	logger      *zap.Logger
}

func NewKafkaPublisher(brokers string, logger *zap.Logger) *KafkaPublisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return &KafkaPublisher{
		orderWriter: newWriter("order-events"),
		stockWriter: newWriter("stock-events"),
		logger:      logger,
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	return p.publish(ctx, p.orderWriter, event.EventID, event)
}

func (p *KafkaPublisher) PublishLowStock(ctx context.Context, event LowStockEvent) error {
	return p.publish(ctx, p.stockWriter, event.EventID, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, w *kafka.Writer, key string, event any) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
	})
	if err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("event_id", key),
			zap.String("topic", w.Topic),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.stockWriter.Close()
}

// LogPublisher writes advisories to the structured log instead of a broker.
// Used when Kafka is disabled (local mode).
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderCreated(_ context.Context, event OrderCreatedEvent) error {
	p.logger.Info("Order created",
		zap.String("event_id", event.EventID),
		zap.Uint("order_id", event.OrderID),
		zap.Float64("total_amount", event.TotalAmount))
	return nil
}

func (p *LogPublisher) PublishLowStock(_ context.Context, event LowStockEvent) error {
	p.logger.Warn("Low stock warning",
		zap.String("event_id", event.EventID),
		zap.Uint("product_id", event.ProductID),
		zap.String("product_name", event.ProductName),
		zap.Int("stock_quantity", event.StockQuantity),
		zap.Int("threshold", event.Threshold))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
