package model

import "time"

// 注文時点の商品スナップショット。作成後は不変
type OrderItem struct {
	ID                  string    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID             string    `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID           string    `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
