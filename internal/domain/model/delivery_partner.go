package model

import "time"

type PartnerStatus string

const (
	PartnerStatusAvailable PartnerStatus = "AVAILABLE"
	PartnerStatusBusy      PartnerStatus = "BUSY"
)

// 配達パートナー。StatusはacceptでBUSY、終端遷移でAVAILABLEに戻る。
// この2箇所以外からは書き換えない
type DeliveryPartner struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string        `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	City        City          `gorm:"type:varchar(20);not null;index" json:"city"`
	VehicleType string        `gorm:"type:varchar(50)" json:"vehicle_type"`
	Status      PartnerStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
