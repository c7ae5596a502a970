package model

import "time"

type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleDeliveryPartner Role = "DELIVERY_PARTNER"
)

type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Name         string `gorm:"type:varchar(255);not null"`
	Phone        string `gorm:"type:varchar(30)"`
	Role         Role   `gorm:"type:varchar(20);not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
