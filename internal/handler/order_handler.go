package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す

func getUserIDFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return "", false
	}

	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func getRoleFromContext(c echo.Context) (model.Role, bool) {
	v := c.Get(middleware.CtxUserRoleKey)
	if v == nil {
		return "", false
	}

	role, ok := v.(model.Role)
	if !ok || role == "" {
		return "", false
	}
	return role, true
}

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type OrderCreateRequest struct {
	DeliveryAddress string             `json:"delivery_address"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	customerOnly := middleware.RequireRole(model.RoleCustomer)
	partnerOnly := middleware.RequireRole(model.RoleDeliveryPartner)

	g.POST("", h.create, customerOnly)
	g.POST("/:id/accept", h.accept, partnerOnly)
	g.PATCH("/:id/status", h.updateStatus, partnerOnly)
	g.POST("/:id/cancel", h.cancel, customerOnly)

	g.GET("/customer/my-orders", h.listMine, customerOnly)
	g.GET("/delivery-partner/my-orders", h.listPending, partnerOnly)
	g.GET("/delivery-partner/active", h.activeOrder, partnerOnly)
	g.GET("/delivery-partner/history", h.history, partnerOnly)

	//静的パスより後に置く（echoは静的セグメント優先でマッチする）
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.PlaceOrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.PlaceOrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Items:           items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) accept(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Accept(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if !model.IsValidOrderStatus(model.OrderStatus(req.Status)) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid status"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), userID, c.Param("id"), usecase.UpdateOrderStatusInput{
		Status: model.OrderStatus(req.Status),
		Notes:  req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CancelByCustomer(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	role, ok := getRoleFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetOrder(c.Request().Context(), userID, role, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, pageSize := pagination(c)

	var status model.OrderStatus
	if s := c.QueryParam("status"); s != "" {
		if !model.IsValidOrderStatus(model.OrderStatus(s)) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid status"})
		}
		status = model.OrderStatus(s)
	}

	out, err := h.uc.ListCustomerOrders(c.Request().Context(), userID, page, pageSize, status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listPending(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	city := c.QueryParam("city")
	if !model.IsValidCity(model.City(city)) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid city"})
	}

	out, err := h.uc.ListPendingOrders(c.Request().Context(), userID, model.City(city))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) activeOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	city := c.QueryParam("city")
	if !model.IsValidCity(model.City(city)) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid city"})
	}

	out, err := h.uc.GetActiveOrder(c.Request().Context(), userID, model.City(city))
	if err != nil {
		return writeError(c, err)
	}

	//アサイン中の注文が無いときはdata:null
	return c.JSON(http.StatusOK, map[string]interface{}{"data": out})
}

func (h *OrderHandler) history(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	city := c.QueryParam("city")
	if !model.IsValidCity(model.City(city)) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid city"})
	}

	page, pageSize := pagination(c)

	out, err := h.uc.ListDeliveredHistory(c.Request().Context(), userID, model.City(city), page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// page/pageSizeをクエリから読む。未指定・不正は既定値
func pagination(c echo.Context) (int, int) {
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}

	pageSize := 10
	if v, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}

	return page, pageSize
}
