package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует события заказов в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронного продюсера
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Net.DialTimeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	topics := cfg.Topics
	return &Producer{
		producer: producer,
		log:      log,
		topics:   &topics,
	}, nil
}

// publishEvent сериализует событие и отправляет его в топик; key задаёт партицию
func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")
	return nil
}

func (p *Producer) publishOrderEvent(orderID uuid.UUID, eventType models.EventType, data interface{}) error {
	event, err := models.NewEvent(eventType, data)
	if err != nil {
		return err
	}
	return p.publishEvent(p.topics.Orders, orderID.String(), event)
}

// PublishOrderCreated публикует событие создания заказа
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	return p.publishOrderEvent(order.ID, models.EventTypeOrderCreated, models.OrderCreatedData{
		OrderID:         order.ID,
		ClientName:      order.ClientName,
		ClientEmail:     order.ClientEmail,
		ServiceName:     order.ServiceName,
		ServicePrice:    order.ServicePrice,
		CouponCode:      order.CouponCode,
		DiscountPercent: order.DiscountPercent,
		FinalPrice:      order.FinalPrice,
		CreatedAt:       order.CreatedAt,
	})
}

// PublishOrderStatusChanged публикует событие смены статуса
func (p *Producer) PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error {
	return p.publishOrderEvent(orderID, models.EventTypeOrderStatusChanged, models.OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

// PublishFeedbackSubmitted публикует событие отзыва по заказу
func (p *Producer) PublishFeedbackSubmitted(order *models.Order) error {
	return p.publishOrderEvent(order.ID, models.EventTypeOrderFeedbackSubmitted, models.OrderFeedbackData{
		OrderID:      order.ID,
		HasText:      order.Feedback != nil,
		HasVoiceNote: order.VoiceNote != nil,
	})
}

// PublishOrderDeleted публикует событие удаления заказа
func (p *Producer) PublishOrderDeleted(orderID uuid.UUID) error {
	return p.publishOrderEvent(orderID, models.EventTypeOrderDeleted, models.OrderDeletedData{OrderID: orderID})
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
