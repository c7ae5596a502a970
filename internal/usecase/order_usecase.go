package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 遷移確定後のイベント配信の約束。
// 配信はコミット後のfire-and-forgetで、失敗しても元のリクエストは失敗させない
type OrderNotifier interface {
	OrderCreated(o OrderOutput)
	OrderAccepted(o OrderOutput)
	OrderStatusUpdated(o OrderOutput, notes string)
	OrderCancelledByCustomer(o OrderOutput)
}

// 配送料ポリシー
type FeePolicy struct {
	DeliveryFee           int64
	FreeDeliveryThreshold int64
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	notifier OrderNotifier
	idGen    IDGenerator
	clock    Clock
	fee      FeePolicy
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	notifier OrderNotifier,
	idGen IDGenerator,
	clock Clock,
	fee FeePolicy,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		notifier: notifier,
		idGen:    idGen,
		clock:    clock,
		fee:      fee,
	}
}

type PlaceOrderItemInput struct {
	ProductID string
	Quantity  int64
}

type PlaceOrderInput struct {
	DeliveryAddress string
	Notes           string
	Items           []PlaceOrderItemInput
}

type UpdateOrderStatusInput struct {
	Status model.OrderStatus
	Notes  string
}

type OrderItemOutput struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
	Subtotal    int64  `json:"subtotal"`
}

type CustomerOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type DeliveryPartnerOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
}

type OrderOutput struct {
	ID              string            `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          model.OrderStatus `json:"status"`
	City            model.City        `json:"city"`
	DeliveryAddress string            `json:"delivery_address"`
	TotalAmount     int64             `json:"total_amount"`
	DeliveryFee     int64             `json:"delivery_fee"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	AcceptedAt      *time.Time        `json:"accepted_at,omitempty"`
	PickedUpAt      *time.Time        `json:"picked_up_at,omitempty"`
	OnTheWayAt      *time.Time        `json:"on_the_way_at,omitempty"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`

	Customer        CustomerOutput         `json:"customer"`
	DeliveryPartner *DeliveryPartnerOutput `json:"delivery_partner,omitempty"`
	Items           []OrderItemOutput      `json:"items"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

type PaginatedOrdersOutput struct {
	Data []OrderOutput `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// ============================================================
// 注文作成
// ============================================================

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	address := strings.TrimSpace(in.DeliveryAddress)
	if len(address) < 10 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery address must be at least 10 characters")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "at least one item is required")
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, err := r.Customers().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "customer profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//商品の存在と在庫をまとめて確認
		ids := make([]string, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := r.Products().ListActiveByIDs(ctx, ids)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		productMap := make(map[string]model.Product, len(products))
		for _, p := range products {
			productMap[p.ID] = p
		}

		now := u.clock.Now()
		orderID := u.idGen.NewID()

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var subtotal int64 = 0

		for _, it := range in.Items {
			p, ok := productMap[it.ProductID]
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "one or more products are not available")
			}

			//在庫減算（足りないなら false）。減算は条件付きUPDATEなので部分減算は起きない
			ok, err := r.Products().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock for %s", p.Name))
			}

			//注文時点の価格スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ID:                  u.idGen.NewID(),
				OrderID:             orderID,
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				CreatedAt:           now,
			})
			subtotal += p.Price * it.Quantity
		}

		//配送料（しきい値超なら無料）
		deliveryFee := u.fee.DeliveryFee
		if subtotal > u.fee.FreeDeliveryThreshold {
			deliveryFee = 0
		}
		total := subtotal + deliveryFee

		//注文番号は日次カウンタで採番（行カウント方式は重複するので使わない）
		seq, err := r.Orders().NextDailySequence(ctx, now.Format("20060102"))
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order := model.Order{
			ID:              orderID,
			OrderNumber:     FormatOrderNumber(now, seq),
			CustomerID:      customer.ID,
			Status:          model.OrderStatusPending,
			City:            customer.City,
			DeliveryAddress: address,
			Notes:           strings.TrimSpace(in.Notes),
			TotalAmount:     total,
			DeliveryFee:     deliveryFee,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			ID:        u.idGen.NewID(),
			OrderID:   orderID,
			Status:    model.OrderStatusPending,
			Notes:     "Order created",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = u.composeOutput(ctx, r, order)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//配信はコミット後
	u.notifier.OrderCreated(out)
	return out, nil
}

// ============================================================
// 受諾（PENDING → ACCEPTED）
// ============================================================

func (u *OrderUsecase) Accept(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		partner, err := r.DeliveryPartners().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "delivery partner profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//事前条件（どれが破れたか区別してクライアントに返す）
		if o.DeliveryPartnerID != nil {
			return NewHTTPError(http.StatusBadRequest, "order may have already been accepted by another partner")
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "order is no longer available for acceptance")
		}
		if partner.Status != model.PartnerStatusAvailable {
			return NewHTTPError(http.StatusBadRequest, "delivery partner is not available")
		}
		if partner.City != o.City {
			return NewHTTPError(http.StatusBadRequest, "delivery partner is not in the same city as the order")
		}

		now := u.clock.Now()

		//排他は条件付きUPDATEに任せる。0行更新なら競合に負けている
		ok, err := r.Orders().AcceptIfPending(ctx, orderID, partner.ID, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "order may have already been accepted by another partner")
		}

		//パートナーをBUSYへ（AVAILABLEのときだけ）
		ok, err = r.DeliveryPartners().SetStatusIf(ctx, partner.ID, model.PartnerStatusAvailable, model.PartnerStatusBusy)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "delivery partner is not available")
		}

		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			ID:        u.idGen.NewID(),
			OrderID:   orderID,
			Status:    model.OrderStatusAccepted,
			Notes:     fmt.Sprintf("Order accepted by %s", partner.ID),
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusAccepted
		o.DeliveryPartnerID = &partner.ID
		o.AcceptedAt = &now

		out, err = u.composeOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.notifier.OrderAccepted(out)
	return out, nil
}

// ============================================================
// ステータス更新（担当パートナーのみ）
// ============================================================

func (u *OrderUsecase) UpdateStatus(ctx context.Context, userID string, orderID string, in UpdateOrderStatusInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if !model.IsValidOrderStatus(in.Status) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		partner, err := r.DeliveryPartners().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "delivery partner profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//担当パートナーだけが進められる
		if o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != partner.ID {
			return NewHTTPError(http.StatusForbidden, "you are not authorized to update this order")
		}

		if !model.CanTransition(o.Status, in.Status) {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("invalid status transition from %s to %s", o.Status, in.Status))
		}

		now := u.clock.Now()

		ok, err := r.Orders().UpdateStatusFrom(ctx, orderID, o.Status, in.Status, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//このトランザクション中に別の遷移が入った
			return NewHTTPError(http.StatusConflict, "order status has changed, please retry")
		}

		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			ID:        u.idGen.NewID(),
			OrderID:   orderID,
			Status:    in.Status,
			Notes:     in.Notes,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//終端まで来たらパートナーを解放
		if in.Status.IsTerminal() {
			if _, err := r.DeliveryPartners().SetStatusIf(ctx, partner.ID, model.PartnerStatusBusy, model.PartnerStatusAvailable); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		applyMilestone(&o, in.Status, now)

		out, err = u.composeOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.notifier.OrderStatusUpdated(out, in.Notes)
	return out, nil
}

// ============================================================
// 顧客キャンセル（PENDINGのみ）
// ============================================================

func (u *OrderUsecase) CancelByCustomer(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, err := r.Customers().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "customer profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.CustomerID != customer.ID {
			return NewHTTPError(http.StatusForbidden, "you are not authorized to cancel this order")
		}

		//パートナー確定後は顧客キャンセル不可
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "only pending orders can be cancelled")
		}

		now := u.clock.Now()

		ok, err := r.Orders().UpdateStatusFrom(ctx, orderID, model.OrderStatusPending, model.OrderStatusCancelled, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//受諾と競合した
			return NewHTTPError(http.StatusBadRequest, "only pending orders can be cancelled")
		}

		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			ID:        u.idGen.NewID(),
			OrderID:   orderID,
			Status:    model.OrderStatusCancelled,
			Notes:     "Cancelled by customer",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		o.CancelledAt = &now

		out, err = u.composeOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.notifier.OrderCancelledByCustomer(out)
	return out, nil
}

// ============================================================
// 参照系
// ============================================================

func (u *OrderUsecase) GetOrder(ctx context.Context, userID string, role model.Role, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//本人（顧客）か担当パートナーだけが見られる
		switch role {
		case model.RoleCustomer:
			c, err := r.Customers().FindByUserID(ctx, userID)
			if err != nil || o.CustomerID != c.ID {
				return NewHTTPError(http.StatusForbidden, "forbidden")
			}
		case model.RoleDeliveryPartner:
			p, err := r.DeliveryPartners().FindByUserID(ctx, userID)
			if err != nil || o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != p.ID {
				return NewHTTPError(http.StatusForbidden, "forbidden")
			}
		default:
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		out, err = u.composeOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListCustomerOrders(ctx context.Context, userID string, page int, pageSize int, status model.OrderStatus) (PaginatedOrdersOutput, error) {
	if userID == "" {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if status != "" && !model.IsValidOrderStatus(status) {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	var out PaginatedOrdersOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, err := r.Customers().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "customer profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders, total, err := r.Orders().ListByCustomer(ctx, customer.ID, repo.CustomerOrderListFilter{
			Page:     page,
			PageSize: pageSize,
			Status:   status,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		data, err := u.composeOutputs(ctx, r, orders)
		if err != nil {
			return err
		}

		out = PaginatedOrdersOutput{
			Data: data,
			Meta: pageMeta(total, page, pageSize),
		}
		return nil
	})

	if err != nil {
		return PaginatedOrdersOutput{}, err
	}
	return out, nil
}

// 同じ都市のPENDING注文一覧（パートナー向け）
func (u *OrderUsecase) ListPendingOrders(ctx context.Context, userID string, city model.City) (PaginatedOrdersOutput, error) {
	if userID == "" {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !model.IsValidCity(city) {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid city")
	}

	var out PaginatedOrdersOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		partner, err := r.DeliveryPartners().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "delivery partner profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//自分の都市以外は見られない
		if partner.City != city {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		orders, total, err := r.Orders().ListPendingByCity(ctx, city)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		data, err := u.composeOutputs(ctx, r, orders)
		if err != nil {
			return err
		}

		out = PaginatedOrdersOutput{
			Data: data,
			Meta: PageMeta{Total: total, Page: 1, PageSize: len(data), TotalPages: 1},
		}
		return nil
	})

	if err != nil {
		return PaginatedOrdersOutput{}, err
	}
	return out, nil
}

// 進行中の注文（高々1件）。無ければnil
func (u *OrderUsecase) GetActiveOrder(ctx context.Context, userID string, city model.City) (*OrderOutput, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !model.IsValidCity(city) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid city")
	}

	var out *OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		partner, err := r.DeliveryPartners().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "delivery partner profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if partner.City != city {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		o, found, err := r.Orders().FindActiveByPartner(ctx, partner.ID, city)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !found {
			return nil
		}

		composed, err := u.composeOutput(ctx, r, o)
		if err != nil {
			return err
		}
		out = &composed
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// 配達完了の履歴（deliveredAtの新しい順）
func (u *OrderUsecase) ListDeliveredHistory(ctx context.Context, userID string, city model.City, page int, pageSize int) (PaginatedOrdersOutput, error) {
	if userID == "" {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !model.IsValidCity(city) {
		return PaginatedOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid city")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	var out PaginatedOrdersOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		partner, err := r.DeliveryPartners().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "delivery partner profile not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if partner.City != city {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		orders, total, err := r.Orders().ListDeliveredByPartner(ctx, partner.ID, city, page, pageSize)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		data, err := u.composeOutputs(ctx, r, orders)
		if err != nil {
			return err
		}

		out = PaginatedOrdersOutput{
			Data: data,
			Meta: pageMeta(total, page, pageSize),
		}
		return nil
	})

	if err != nil {
		return PaginatedOrdersOutput{}, err
	}
	return out, nil
}

// ============================================================
// helper
// ============================================================

// ORD + yymmdd + 4桁連番
func FormatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("ORD%s%04d", t.Format("060102"), seq)
}

func applyMilestone(o *model.Order, s model.OrderStatus, at time.Time) {
	o.Status = s
	switch s {
	case model.OrderStatusPickedUp:
		o.PickedUpAt = &at
	case model.OrderStatusOnTheWay:
		o.OnTheWayAt = &at
	case model.OrderStatusDelivered:
		o.DeliveredAt = &at
	case model.OrderStatusCancelled:
		o.CancelledAt = &at
	}
}

func pageMeta(total int64, page int, pageSize int) PageMeta {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return PageMeta{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// 注文＋明細＋顧客＋パートナーのプロジェクションを組み立てる
func (u *OrderUsecase) composeOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	customer, err := r.Customers().FindByID(ctx, o.CustomerID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	customerUser, err := r.Users().FindByID(ctx, customer.UserID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var partnerOut *DeliveryPartnerOutput
	if o.DeliveryPartnerID != nil {
		partner, err := r.DeliveryPartners().FindByID(ctx, *o.DeliveryPartnerID)
		if err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		partnerUser, err := r.Users().FindByID(ctx, partner.UserID)
		if err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		partnerOut = &DeliveryPartnerOutput{
			ID:          partner.ID,
			Name:        partnerUser.Name,
			Phone:       partnerUser.Phone,
			VehicleType: partner.VehicleType,
		}
	}

	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductNameSnapshot,
			Quantity:    it.Quantity,
			Price:       it.UnitPriceSnapshot,
			Subtotal:    it.UnitPriceSnapshot * it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		City:            o.City,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		DeliveryFee:     o.DeliveryFee,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		AcceptedAt:      o.AcceptedAt,
		PickedUpAt:      o.PickedUpAt,
		OnTheWayAt:      o.OnTheWayAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		Customer: CustomerOutput{
			ID:    customer.ID,
			Name:  customerUser.Name,
			Phone: customerUser.Phone,
		},
		DeliveryPartner: partnerOut,
		Items:           outItems,
	}, nil
}

func (u *OrderUsecase) composeOutputs(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		out, err := u.composeOutput(ctx, r, o)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}
