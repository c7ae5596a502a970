package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderItemRepository interface {
	//注文と同一トランザクションで明細を一括作成
	CreateBulk(ctx context.Context, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
}
