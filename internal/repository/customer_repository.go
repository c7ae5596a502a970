package repository

import (
	"context"

	"app/internal/domain/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, c model.Customer) error
	FindByID(ctx context.Context, customerID string) (model.Customer, error)
	FindByUserID(ctx context.Context, userID string) (model.Customer, error)
}
