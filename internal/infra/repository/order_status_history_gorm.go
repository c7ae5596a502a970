package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type OrderStatusHistoryGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusHistoryGormRepository(db *gorm.DB) *OrderStatusHistoryGormRepository {
	return &OrderStatusHistoryGormRepository{db: db}
}

func (r *OrderStatusHistoryGormRepository) Create(ctx context.Context, h model.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(&h).Error
}

func (r *OrderStatusHistoryGormRepository) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderStatusHistory, error) {
	var rows []model.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return []model.OrderStatusHistory{}, err
	}
	return rows, nil
}
