package repository

import (
	"errors"
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrStatusConflict means the row was no longer in the expected status
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderScope restricts which orders a caller can see. The conditions are
// OR-ed: a manager sees everything, otherwise own orders and/or assigned
// orders.
type OrderScope struct {
	All        bool
	CustomerID *uint
	CrewID     *uint
}

type OrderFilter struct {
	Scope          OrderScope
	Status         model.OrderStatus
	DeliveryCrewID *uint
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Ordering       string
}

var orderOrdering = map[string]string{
	"id":           "orders.id",
	"date_created": "orders.created_at",
	"total":        "orders.total",
	"status":       "orders.status",
}

// StatusCount is one row of the per-status aggregate
type StatusCount struct {
	Status model.OrderStatus
	Count  int64
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindInScope(id uint, scope OrderScope) (*model.Order, error)
	List(filter OrderFilter, p pagination.Params) ([]model.Order, int64, error)
	TransitionStatus(id uint, from, to model.OrderStatus) error
	AssignCrew(id uint, crewID *uint) error
	Delete(id uint) error
	AddItem(item *model.OrderItem) error
	ListItems(orderID uint) ([]model.OrderItem, error)
	CountByStatus() ([]StatusCount, error)
	WithTx(tx *gorm.DB) OrderRepository
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.MenuItem.Category")
}

func applyScope(q *gorm.DB, scope OrderScope) *gorm.DB {
	if scope.All {
		return q
	}
	switch {
	case scope.CustomerID != nil && scope.CrewID != nil:
		return q.Where("orders.user_id = ? OR orders.delivery_crew_id = ?", *scope.CustomerID, *scope.CrewID)
	case scope.CustomerID != nil:
		return q.Where("orders.user_id = ?", *scope.CustomerID)
	case scope.CrewID != nil:
		return q.Where("orders.delivery_crew_id = ?", *scope.CrewID)
	default:
		return q.Where("1 = 0")
	}
}

// Create inserts the order with its items
func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", logger.Fields{
		"user_id": order.UserID,
		"items":   len(order.Items),
		"total":   order.Total.String(),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		items := order.Items
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Omit(clause.Associations).Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		logger.Error("Failed to create order in database", err, logger.Fields{"user_id": order.UserID})
		return err
	}

	logger.Debug("Order created in database", logger.Fields{"order_id": order.ID})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	return r.FindInScope(id, OrderScope{All: true})
}

// FindInScope returns ErrOrderNotFound for orders outside the scope
func (r *orderRepository) FindInScope(id uint, scope OrderScope) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", logger.Fields{"order_id": id})

	var order model.Order
	err := applyScope(preloadOrderItems(r.db), scope).
		Where("orders.id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Order not found in database", logger.Fields{"order_id": id})
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.Error("Failed to find order by ID in database", err, logger.Fields{"order_id": id})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(filter OrderFilter, p pagination.Params) ([]model.Order, int64, error) {
	logger.Debug("Listing orders in database", logger.Fields{
		"status":   filter.Status,
		"ordering": filter.Ordering,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})

	order, err := orderBy(filter.Ordering, orderOrdering, "orders.id ASC")
	if err != nil {
		return nil, 0, err
	}

	q := applyScope(r.db.Model(&model.Order{}), filter.Scope)
	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if filter.DeliveryCrewID != nil {
		q = q.Where("orders.delivery_crew_id = ?", *filter.DeliveryCrewID)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("orders.created_at < ?", *filter.CreatedTo)
	}

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count orders in database", err)
		return nil, 0, err
	}

	var orders []model.Order
	if err := paginate(preloadOrderItems(q.Session(&gorm.Session{})), p).Order(order).Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders in database", err)
		return nil, 0, err
	}

	logger.Debug("Orders listed in database", logger.Fields{"count": count})
	return orders, count, nil
}

// TransitionStatus updates status only while the row still has from
func (r *orderRepository) TransitionStatus(id uint, from, to model.OrderStatus) error {
	logger.Debug("Updating order status in database", logger.Fields{
		"order_id": id,
		"from":     from,
		"to":       to,
	})

	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		logger.Error("Failed to update order status in database", res.Error, logger.Fields{"order_id": id})
		return res.Error
	}
	if res.RowsAffected == 0 {
		logger.Warn("Order status update matched no rows", logger.Fields{
			"order_id": id,
			"from":     from,
		})
		return ErrStatusConflict
	}
	return nil
}

func (r *orderRepository) AssignCrew(id uint, crewID *uint) error {
	logger.Debug("Assigning delivery crew in database", logger.Fields{
		"order_id": id,
		"crew_id":  crewID,
	})

	res := r.db.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"delivery_crew_id": crewID, "updated_at": time.Now()})
	if res.Error != nil {
		logger.Error("Failed to assign delivery crew in database", res.Error, logger.Fields{"order_id": id})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Delete(id uint) error {
	logger.Debug("Deleting order from database", logger.Fields{"order_id": id})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		logger.Error("Failed to delete order from database", err, logger.Fields{"order_id": id})
	}
	return err
}

// AddItem inserts the line and rolls its subtotal into the order total
func (r *orderRepository) AddItem(item *model.OrderItem) error {
	logger.Debug("Adding order item in database", logger.Fields{
		"order_id":     item.OrderID,
		"menu_item_id": item.MenuItemID,
		"quantity":     item.Quantity,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		return tx.Model(&model.Order{}).
			Where("id = ?", item.OrderID).
			UpdateColumn("total", gorm.Expr("total + ?", item.Price)).Error
	})
	if err != nil {
		logger.Error("Failed to add order item in database", err, logger.Fields{
			"order_id":     item.OrderID,
			"menu_item_id": item.MenuItemID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) ListItems(orderID uint) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.Preload("MenuItem.Category").
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list order items in database", err, logger.Fields{"order_id": orderID})
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) CountByStatus() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count orders by status in database", err)
		return nil, err
	}
	return rows, nil
}
