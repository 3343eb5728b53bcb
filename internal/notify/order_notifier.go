package notify

import (
	"context"
	"fmt"

	"designcraft/internal/logger"
	"designcraft/internal/models"
)

// OrderNotifier отправляет клиенту письма по событиям заказа.
type OrderNotifier struct {
	sender    Sender
	templates *Templates
	log       *logger.Logger
}

// NewOrderNotifier создаёт обработчик событий заказа.
func NewOrderNotifier(sender Sender, templates *Templates, log *logger.Logger) *OrderNotifier {
	return &OrderNotifier{sender: sender, templates: templates, log: log}
}

// HandleOrderCreated отправляет подтверждение заказа. Ошибка отправки только логируется.
func (n *OrderNotifier) HandleOrderCreated(ctx context.Context, event *models.Event) error {
	var data models.OrderCreatedData
	if err := event.DecodeData(&data); err != nil {
		return fmt.Errorf("failed to decode order.created: %w", err)
	}

	msg, err := n.templates.OrderConfirmation(&data)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.WithError(err).WithField("order_id", data.OrderID).Error("Failed to send order confirmation")
		return nil
	}

	n.log.WithField("order_id", data.OrderID).Info("Order confirmation sent")
	return nil
}
