package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 顧客の注文一覧の絞り込み
type CustomerOrderListFilter struct {
	Page     int
	PageSize int
	Status   model.OrderStatus // 空なら全ステータス
}

type OrderRepository interface {
	// IDと注文番号は呼び出し側で採番しておく
	Create(ctx context.Context, order model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)

	ListByCustomer(ctx context.Context, customerID string, f CustomerOrderListFilter) ([]model.Order, int64, error)
	ListPendingByCity(ctx context.Context, city model.City) ([]model.Order, int64, error)
	FindActiveByPartner(ctx context.Context, partnerID string, city model.City) (model.Order, bool, error)
	ListDeliveredByPartner(ctx context.Context, partnerID string, city model.City, page int, pageSize int) ([]model.Order, int64, error)

	// PENDINGかつ未割当のときだけ受諾を書き込む。
	// 0行更新なら他パートナーに取られている（falseを返す）
	AcceptIfPending(ctx context.Context, orderID string, partnerID string, at time.Time) (bool, error)

	// 現在statusがfromのときだけtoへ更新し、対応するマイルストーン時刻も設定する
	UpdateStatusFrom(ctx context.Context, orderID string, from model.OrderStatus, to model.OrderStatus, at time.Time) (bool, error)

	// 当日分の連番をアトミックに加算して返す（dayは YYYYMMDD）
	NextDailySequence(ctx context.Context, day string) (int64, error)
}
