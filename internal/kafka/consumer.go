package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/IBM/sarama"
)

// EventHandler обрабатывает событие, прочитанное из Kafka
type EventHandler func(ctx context.Context, event *models.Event) error

// Consumer читает события из топиков через consumer group
type Consumer struct {
	consumer sarama.ConsumerGroup
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	topics   []string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewConsumer создает consumer group для топика заказов
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Net.DialTimeout = 5 * time.Second

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: group,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		topics:   []string{cfg.Topics.Orders},
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// NewTestConsumer создает потребителя поверх готовой consumer group
func NewTestConsumer(group sarama.ConsumerGroup, log *logger.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: group,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		topics:   []string{"orders"},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler регистрирует обработчик для типа события
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[models.EventType]EventHandler)
	}
	c.handlers[eventType] = handler
}

// Handler возвращает обработчик для типа события
func (c *Consumer) Handler(eventType models.EventType) EventHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlers[eventType]
}

// HandlerCount возвращает количество зарегистрированных обработчиков
func (c *Consumer) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Start запускает чтение топиков в фоне
func (c *Consumer) Start() error {
	if c.consumer == nil {
		return errors.New("consumer group is not initialized")
	}
	if c.ctx == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consumer.Consume(c.ctx, c.topics, c); err != nil && !errors.Is(err, context.Canceled) {
				c.log.WithError(err).Error("Kafka consume failed")
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		defer c.wg.Done()
		for err := range c.consumer.Errors() {
			c.log.WithError(err).Warn("Kafka consumer group error")
		}
	}()

	c.log.WithField("topics", c.topics).Info("Kafka consumer started")
	return nil
}

// Stop останавливает чтение и закрывает consumer group
func (c *Consumer) Stop() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	var err error
	if c.consumer != nil {
		err = c.consumer.Close()
	}
	c.wg.Wait()
	return err
}

// Setup вызывается перед началом новой сессии
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup вызывается после завершения сессии
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim обрабатывает сообщения партиции
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.processMessage(msg); err != nil {
				c.log.WithError(err).WithFields(map[string]interface{}{
					"topic":     msg.Topic,
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Error("Failed to process Kafka message")
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage декодирует событие и вызывает обработчик его типа
func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	handler := c.Handler(event.Type)
	if handler == nil {
		c.log.WithField("event_type", event.Type).Debug("No handler registered for event")
		return nil
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := handler(ctx, &event); err != nil {
		return fmt.Errorf("handler for %s failed: %w", event.Type, err)
	}
	return nil
}
