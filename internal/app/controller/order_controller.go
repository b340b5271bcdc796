package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type OrderController struct {
	orderService  service.OrderService
	reportService service.ReportService
	bounds        pagination.Bounds
}

func NewOrderController(orderService service.OrderService, reportService service.ReportService, bounds pagination.Bounds) *OrderController {
	return &OrderController{
		orderService:  orderService,
		reportService: reportService,
		bounds:        bounds,
	}
}

// OptionalID tells an absent field apart from an explicit null
type OptionalID struct {
	Set   bool
	Value *uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type UpdateOrderRequest struct {
	Status         *string    `json:"status" binding:"omitempty,orderstatus"`
	DeliveryCrewID OptionalID `json:"delivery_crew_id"`
}

func (r UpdateOrderRequest) input() service.UpdateOrderInput {
	in := service.UpdateOrderInput{Status: statusInput(r.Status)}
	if r.DeliveryCrewID.Set {
		if r.DeliveryCrewID.Value == nil {
			in.UnassignCrew = true
		} else {
			in.DeliveryCrewID = r.DeliveryCrewID.Value
		}
	}
	return in
}

type AddOrderItemRequest struct {
	MenuItemID uint             `json:"menuitem_id" binding:"required"`
	Quantity   int              `json:"quantity" binding:"required,min=1,max=32767"`
	Price      *decimal.Decimal `json:"price"`
}

// orderFilter reads status, delivery_crew, date_from, date_to and ordering
func orderFilter(c *gin.Context) (repository.OrderFilter, bool) {
	filter := repository.OrderFilter{
		Status:   model.OrderStatus(c.Query("status")),
		Ordering: c.Query("ordering"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, service.ErrInvalidStatus.Error())
		return filter, false
	}
	if raw := c.Query("delivery_crew"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, "Invalid delivery_crew")
			return filter, false
		}
		crew := uint(id)
		filter.DeliveryCrewID = &crew
	}
	for name, dst := range map[string]**time.Time{"date_from": &filter.CreatedFrom, "date_to": &filter.CreatedTo} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidQuery, "Invalid "+name+", expected YYYY-MM-DD")
			return filter, false
		}
		if name == "date_to" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*dst = &t
	}
	return filter, true
}

// ListOrders returns the orders visible to the caller
// GET /api/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	page, ok := pageParams(c, ctrl.bounds)
	if !ok {
		return
	}
	filter, ok := orderFilter(c)
	if !ok {
		return
	}

	orders, count, err := ctrl.orderService.List(middleware.GetPrincipal(c), filter, page)
	if err != nil {
		respondServiceError(c, err, "List orders")
		return
	}
	writePage(c, presentOrders(orders), count, page)
}

// CreateOrder places an order from the caller's cart
// POST /api/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	order, err := ctrl.orderService.Place(middleware.GetPrincipal(c))
	if err != nil {
		respondServiceError(c, err, "Place order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	})
	c.JSON(http.StatusCreated, presentOrder(order))
}

// GetOrder GET /api/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.Get(middleware.GetPrincipal(c), id)
	if err != nil {
		respondServiceError(c, err, "Get order")
		return
	}
	c.JSON(http.StatusOK, presentOrder(order))
}

// UpdateOrder assigns delivery crew and moves the status
// PUT|PATCH /api/orders/:id
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order update request", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	order, err := ctrl.orderService.Update(middleware.GetPrincipal(c), id, req.input())
	if err != nil {
		respondServiceError(c, err, "Update order")
		return
	}
	c.JSON(http.StatusOK, presentOrder(order))
}

// DeleteOrder DELETE /api/orders/:id
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.orderService.Delete(middleware.GetPrincipal(c), id); err != nil {
		respondServiceError(c, err, "Delete order")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListItems GET /api/orders/:id/items
func (ctrl *OrderController) ListItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := ctrl.orderService.ListItems(middleware.GetPrincipal(c), id)
	if err != nil {
		respondServiceError(c, err, "List order items")
		return
	}
	c.JSON(http.StatusOK, presentOrderItems(items))
}

// AddItem adds a line to a pending order. The subtotal is computed unless
// a price is supplied.
// POST /api/orders/:id/items
func (ctrl *OrderController) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AddOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.orderService.AddItem(middleware.GetPrincipal(c), id, service.AddOrderItemInput{
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
		Price:      req.Price,
	})
	if err != nil {
		respondServiceError(c, err, "Add order item")
		return
	}
	c.JSON(http.StatusCreated, presentOrderItem(item))
}

// ExportOrders streams an xlsx report of the filtered orders
// GET /api/reports/orders.xlsx
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	filter, ok := orderFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := ctrl.reportService.WriteOrders(middleware.GetPrincipal(c), filter, &buf); err != nil {
		respondServiceError(c, err, "Export orders")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
