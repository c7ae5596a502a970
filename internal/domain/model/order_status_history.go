package model

import "time"

// 遷移ごとに1行の追記専用監査ログ。更新・削除はしない
type OrderStatusHistory struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   string      `gorm:"type:uuid;not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Notes     string      `gorm:"type:text" json:"notes"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}
