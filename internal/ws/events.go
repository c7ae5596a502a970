package ws

import (
	"encoding/json"
	"time"

	"app/internal/domain/model"
)

// client→server
const (
	EventJoinCityRoom   = "join_city_room"
	EventLeaveCityRoom  = "leave_city_room"
	EventJoinOrderRoom  = "join_order_room"
	EventLeaveOrderRoom = "leave_order_room"
)

// server→client
const (
	EventNewOrder                 = "new_order"
	EventOrderCancelledByCustomer = "order_cancelled_by_customer"
	EventOrderAccepted            = "order_accepted"
	EventOrderPickedUp            = "order_picked_up"
	EventOrderOnTheWay            = "order_on_the_way"
	EventOrderDelivered           = "order_delivered"
	EventOrderCancelled           = "order_cancelled"
	EventOrderStatusUpdated       = "order_status_updated"

	EventJoinedCityRoom  = "joined_city_room"
	EventLeftCityRoom    = "left_city_room"
	EventJoinedOrderRoom = "joined_order_room"
	EventLeftOrderRoom   = "left_order_room"

	EventError = "error"
)

// 送受信の共通フレーム
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinCityRoomData struct {
	City model.City `json:"city"`
}

type joinOrderRoomData struct {
	OrderID string `json:"order_id"`
}

type roomAckData struct {
	City    model.City `json:"city,omitempty"`
	OrderID string     `json:"order_id,omitempty"`
	Room    string     `json:"room"`
}

type errorData struct {
	Message string `json:"message"`
}

// new_order のペイロード（都市ルーム向け）
type NewOrderPayload struct {
	OrderID         string            `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	Status          model.OrderStatus `json:"status"`
	City            model.City        `json:"city"`
	DeliveryAddress string            `json:"delivery_address"`
	TotalAmount     int64             `json:"total_amount"`
	DeliveryFee     int64             `json:"delivery_fee"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Customer        CustomerInfo      `json:"customer"`
	Items           []NewOrderItem    `json:"items"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type NewOrderItem struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
}

// 遷移イベントのペイロード（注文ルーム向け）
type StatusUpdatePayload struct {
	OrderID         string            `json:"order_id"`
	Status          model.OrderStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
	DeliveryPartner *PartnerInfo      `json:"delivery_partner,omitempty"`
}

type PartnerInfo struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
}

// order_cancelled_by_customer のペイロード（都市ルーム向け）
type CancelledByCustomerPayload struct {
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

func CityRoom(city model.City) string {
	return "city:" + string(city)
}

func OrderRoom(orderID string) string {
	return "order:" + orderID
}
