package repository

import (
	"context"

	"app/internal/domain/model"
)

// 追記のみ。更新・削除のメソッドは意図的に持たない
type OrderStatusHistoryRepository interface {
	Create(ctx context.Context, h model.OrderStatusHistory) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderStatusHistory, error)
}
