package repository

import (
	"context"

	"app/internal/domain/model"
)

type ProductRepository interface {
	// 指定IDのうち有効（is_active）な商品だけ返す
	ListActiveByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error)
}
