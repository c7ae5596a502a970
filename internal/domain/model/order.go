package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusPickedUp  OrderStatus = "PICKED_UP"
	OrderStatusOnTheWay  OrderStatus = "ON_THE_WAY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 正当な遷移表。ここに無い遷移は全部拒否する
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusPickedUp, OrderStatusCancelled},
	OrderStatusPickedUp:  {OrderStatusOnTheWay, OrderStatusCancelled},
	OrderStatusOnTheWay:  {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// from から to への遷移が許されているか
func CanTransition(from OrderStatus, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// 終端状態（これ以上遷移しない）か
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func IsValidOrderStatus(s OrderStatus) bool {
	_, ok := validTransitions[s]
	return ok
}

type Order struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(20);not null;index" json:"order_number"`

	CustomerID string `gorm:"type:uuid;not null;index" json:"customer_id"`

	// ACCEPTEDで一度だけ設定され、その後はクリアされない
	DeliveryPartnerID *string `gorm:"type:uuid;index" json:"delivery_partner_id"`

	Status          OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	City            City        `gorm:"type:varchar(20);not null;index" json:"city"`
	DeliveryAddress string      `gorm:"type:text;not null" json:"delivery_address"`
	Notes           string      `gorm:"type:text" json:"notes"`

	TotalAmount int64 `gorm:"not null" json:"total_amount"`
	DeliveryFee int64 `gorm:"not null" json:"delivery_fee"`

	//各状態のマイルストーン時刻（訪れた状態ごとに一度だけ設定）
	AcceptedAt  *time.Time `json:"accepted_at"`
	PickedUpAt  *time.Time `json:"picked_up_at"`
	OnTheWayAt  *time.Time `json:"on_the_way_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文番号の日次連番。日付ごとに1行でアトミックに加算する
type OrderCounter struct {
	Day string `gorm:"type:varchar(8);primaryKey"`
	Seq int64  `gorm:"not null"`
}
