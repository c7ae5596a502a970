package ws

import (
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"go.uber.org/zap"
)

// OrderNotifierは確定した遷移をトピックへの配信に変換する。
// コミット後に呼ばれ、配信失敗は元のリクエストに影響しない
type OrderNotifier struct {
	pub Publisher
	log *zap.Logger
}

func NewOrderNotifier(pub Publisher, log *zap.Logger) *OrderNotifier {
	return &OrderNotifier{pub: pub, log: log}
}

var _ usecase.OrderNotifier = (*OrderNotifier)(nil)

// 新規注文はその都市のパートナー全員へ
func (n *OrderNotifier) OrderCreated(o usecase.OrderOutput) {
	items := make([]NewOrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, NewOrderItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	n.pub.Publish(CityRoom(o.City), EventNewOrder, NewOrderPayload{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		City:            o.City,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		DeliveryFee:     o.DeliveryFee,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Customer: CustomerInfo{
			Name:  o.Customer.Name,
			Phone: o.Customer.Phone,
		},
		Items: items,
	})

	n.log.Info("new order published",
		zap.String("order_number", o.OrderNumber),
		zap.String("city", string(o.City)),
	)
}

func (n *OrderNotifier) OrderAccepted(o usecase.OrderOutput) {
	n.pub.Publish(OrderRoom(o.ID), EventOrderAccepted, n.statusPayload(o, ""))
}

func (n *OrderNotifier) OrderStatusUpdated(o usecase.OrderOutput, notes string) {
	n.pub.Publish(OrderRoom(o.ID), eventForStatus(o.Status), n.statusPayload(o, notes))
}

// 顧客キャンセルは都市ルームへ（一覧から消すため）。
// パートナーが付いていれば注文ルームにも流す
func (n *OrderNotifier) OrderCancelledByCustomer(o usecase.OrderOutput) {
	n.pub.Publish(CityRoom(o.City), EventOrderCancelledByCustomer, CancelledByCustomerPayload{
		OrderID:   o.ID,
		Timestamp: milestoneAt(o),
	})

	if o.DeliveryPartner != nil {
		n.pub.Publish(OrderRoom(o.ID), EventOrderCancelled, n.statusPayload(o, "Cancelled by customer"))
	}
}

func (n *OrderNotifier) statusPayload(o usecase.OrderOutput, notes string) StatusUpdatePayload {
	var partner *PartnerInfo
	if o.DeliveryPartner != nil {
		partner = &PartnerInfo{
			Name:        o.DeliveryPartner.Name,
			Phone:       o.DeliveryPartner.Phone,
			VehicleType: o.DeliveryPartner.VehicleType,
		}
	}

	return StatusUpdatePayload{
		OrderID:         o.ID,
		Status:          o.Status,
		Notes:           notes,
		Timestamp:       milestoneAt(o),
		DeliveryPartner: partner,
	}
}

// 状態に対応するイベント名。未知の遷移は汎用イベントにフォールバック
func eventForStatus(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusAccepted:
		return EventOrderAccepted
	case model.OrderStatusPickedUp:
		return EventOrderPickedUp
	case model.OrderStatusOnTheWay:
		return EventOrderOnTheWay
	case model.OrderStatusDelivered:
		return EventOrderDelivered
	case model.OrderStatusCancelled:
		return EventOrderCancelled
	default:
		return EventOrderStatusUpdated
	}
}

// 現在statusのマイルストーン時刻。未設定なら現在時刻
func milestoneAt(o usecase.OrderOutput) time.Time {
	var t *time.Time
	switch o.Status {
	case model.OrderStatusAccepted:
		t = o.AcceptedAt
	case model.OrderStatusPickedUp:
		t = o.PickedUpAt
	case model.OrderStatusOnTheWay:
		t = o.OnTheWayAt
	case model.OrderStatusDelivered:
		t = o.DeliveredAt
	case model.OrderStatusCancelled:
		t = o.CancelledAt
	}
	if t != nil {
		return *t
	}
	return time.Now()
}
