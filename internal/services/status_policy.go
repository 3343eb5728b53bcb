package services

import (
	"fmt"

	"designcraft/internal/apperror"
	"designcraft/internal/models"
)

// StatusPolicy решает, допустим ли переход заказа между статусами.
type StatusPolicy interface {
	Allow(from, to models.OrderStatus) error
}

// PermissiveStatusPolicy разрешает любой переход между допустимыми статусами.
type PermissiveStatusPolicy struct{}

func (PermissiveStatusPolicy) Allow(from, to models.OrderStatus) error { return nil }

// StrictStatusPolicy запрещает выход из Completed и Cancelled. Повтор того же статуса разрешён.
type StrictStatusPolicy struct{}

func (StrictStatusPolicy) Allow(from, to models.OrderStatus) error {
	if from == to {
		return nil
	}
	if from == models.OrderStatusCompleted || from == models.OrderStatusCancelled {
		return apperror.Conflict(fmt.Sprintf("cannot change status of a %s order", from), nil)
	}
	return nil
}

// NewStatusPolicy возвращает политику по имени из конфигурации.
func NewStatusPolicy(name string) (StatusPolicy, error) {
	switch name {
	case "", "permissive":
		return PermissiveStatusPolicy{}, nil
	case "strict":
		return StrictStatusPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown order status policy %q", name)
	}
}
