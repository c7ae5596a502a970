package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	return r.db.WithContext(ctx).Create(&order).Error
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByCustomer(ctx context.Context, customerID string, f repo.CustomerOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("customer_id = ?", customerID)

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order("created_at desc").Limit(f.PageSize).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListPendingByCity(ctx context.Context, city model.City) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND city = ?", model.OrderStatusPending, city)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	if err := q.Order("created_at desc").Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) FindActiveByPartner(ctx context.Context, partnerID string, city model.City) (model.Order, bool, error) {
	active := []model.OrderStatus{
		model.OrderStatusAccepted,
		model.OrderStatusPickedUp,
		model.OrderStatusOnTheWay,
	}

	var o model.Order
	err := r.db.WithContext(ctx).
		Where("delivery_partner_id = ? AND city = ? AND status IN ?", partnerID, city, active).
		Order("created_at desc").
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListDeliveredByPartner(ctx context.Context, partnerID string, city model.City, page int, pageSize int) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("delivery_partner_id = ? AND city = ? AND status = ?", partnerID, city, model.OrderStatusDelivered)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	//配達完了時刻の新しい順
	var items []model.Order
	offset := (page - 1) * pageSize
	if err := q.Order("delivered_at desc").Limit(pageSize).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// accept競合の排他はこの条件付きUPDATEに寄せる。
// 0行更新なら先に他パートナーが受諾している
func (r *OrderGormRepository) AcceptIfPending(ctx context.Context, orderID string, partnerID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND delivery_partner_id IS NULL", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"delivery_partner_id": partnerID,
			"status":              model.OrderStatusAccepted,
			"accepted_at":         at,
		})

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 状態ごとのマイルストーン時刻カラム
func milestoneColumn(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusPickedUp:
		return "picked_up_at"
	case model.OrderStatusOnTheWay:
		return "on_the_way_at"
	case model.OrderStatusDelivered:
		return "delivered_at"
	case model.OrderStatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}

func (r *OrderGormRepository) UpdateStatusFrom(ctx context.Context, orderID string, from model.OrderStatus, to model.OrderStatus, at time.Time) (bool, error) {
	values := map[string]interface{}{
		"status": to,
	}
	if col := milestoneColumn(to); col != "" {
		values[col] = at
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(values)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 日次カウンタをアトミックに加算して新しい値を返す。
// 行カウントによる採番はレース条件があるのでカウンタ行で置き換えている
func (r *OrderGormRepository) NextDailySequence(ctx context.Context, day string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO order_counters (day, seq) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		 RETURNING seq`,
		day,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
