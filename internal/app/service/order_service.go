package service

import (
	"errors"
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	orderReadAccess   = permission.Any(permission.IsManager, permission.IsCustomer, permission.IsDeliveryCrew)
	orderUpdateAccess = permission.Any(permission.IsManager, permission.IsDeliveryCrew)
	orderDeleteAccess = permission.Any(permission.IsManager, permission.All(permission.IsCustomer, permission.OwnerOnly))
	orderItemAccess   = permission.All(permission.IsCustomer, permission.OwnerOnly)
)

const MsgCrewStatusOnly = "Delivery crew can only update the order status"

// Order event types pushed to connected clients
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderAssigned      = "order.assigned"
)

type OrderEvent struct {
	Type           string            `json:"type"`
	OrderID        uint              `json:"order_id"`
	Status         model.OrderStatus `json:"status"`
	DeliveryCrewID *uint             `json:"delivery_crew_id"`
	CustomerID     uint              `json:"customer_id"`
	At             time.Time         `json:"at"`
}

// Recipients are the customer and the assigned crew member, if any
func (e OrderEvent) Recipients() []uint {
	ids := []uint{e.CustomerID}
	if e.DeliveryCrewID != nil && *e.DeliveryCrewID != e.CustomerID {
		ids = append(ids, *e.DeliveryCrewID)
	}
	return ids
}

// OrderNotifier receives events after the change is committed
type OrderNotifier interface {
	PublishOrderEvent(event OrderEvent)
}

type noopNotifier struct{}

func (noopNotifier) PublishOrderEvent(OrderEvent) {}

// UpdateOrderInput: nil fields are left alone. UnassignCrew clears the assignee.
type UpdateOrderInput struct {
	Status         *model.OrderStatus
	DeliveryCrewID *uint
	UnassignCrew   bool
}

func (in UpdateOrderInput) changesCrew() bool {
	return in.DeliveryCrewID != nil || in.UnassignCrew
}

type AddOrderItemInput struct {
	MenuItemID uint
	Quantity   int
	Price      *decimal.Decimal // subtotal override; computed when nil
}

type OrderService interface {
	Place(p *permission.Principal) (*model.Order, error)
	List(p *permission.Principal, filter repository.OrderFilter, page pagination.Params) ([]model.Order, int64, error)
	Get(p *permission.Principal, id uint) (*model.Order, error)
	Update(p *permission.Principal, id uint, input UpdateOrderInput) (*model.Order, error)
	Delete(p *permission.Principal, id uint) error
	AddItem(p *permission.Principal, orderID uint, input AddOrderItemInput) (*model.OrderItem, error)
	ListItems(p *permission.Principal, orderID uint) ([]model.OrderItem, error)
}

type orderService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	userRepo     repository.UserRepository
	menuItemRepo repository.MenuItemRepository
	notifier     OrderNotifier
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	menuItemRepo repository.MenuItemRepository,
	notifier OrderNotifier,
) OrderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &orderService{
		db:           db,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		userRepo:     userRepo,
		menuItemRepo: menuItemRepo,
		notifier:     notifier,
	}
}

// scopeFor is the union of what each of the caller's roles may see
func scopeFor(p *permission.Principal) repository.OrderScope {
	if p.IsManager() {
		return repository.OrderScope{All: true}
	}
	var scope repository.OrderScope
	if p == nil {
		return scope
	}
	id := p.UserID
	if p.IsCustomer() {
		scope.CustomerID = &id
	}
	if p.IsDeliveryCrew() {
		scope.CrewID = &id
	}
	return scope
}

// Place turns the caller's cart into an order and empties the cart, in one
// transaction with the cart row locked.
func (s *orderService) Place(p *permission.Principal) (*model.Order, error) {
	if err := permission.Enforce(permission.IsCustomer, permission.Check{Principal: p, Action: permission.ActionCreate}); err != nil {
		return nil, err
	}

	logger.Info("Placing order from cart", logger.Fields{"user_id": p.UserID})

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		cart, err := carts.LockByUserID(p.UserID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(cart.Items))
		for _, ci := range cart.Items {
			subtotal := model.LineSubtotal(ci.UnitPrice, ci.Quantity)
			total = total.Add(subtotal)
			items = append(items, model.OrderItem{
				MenuItemID: ci.MenuItemID,
				Quantity:   ci.Quantity,
				UnitPrice:  ci.UnitPrice,
				Price:      subtotal,
			})
		}

		order = &model.Order{
			UserID: p.UserID,
			Status: model.OrderStatusPending,
			Total:  total,
			Items:  items,
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		return carts.Clear(cart.ID)
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			logger.Warn("Order placement refused: empty cart", logger.Fields{"user_id": p.UserID})
		} else {
			logger.Error("Failed to place order", err, logger.Fields{"user_id": p.UserID})
		}
		return nil, err
	}

	placed, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Order placed", logger.Fields{
		"order_id": placed.ID,
		"user_id":  p.UserID,
		"total":    placed.Total.StringFixed(2),
		"items":    len(placed.Items),
	})
	s.publish(EventOrderCreated, placed)
	return placed, nil
}

func (s *orderService) List(p *permission.Principal, filter repository.OrderFilter, page pagination.Params) ([]model.Order, int64, error) {
	if err := permission.Enforce(orderReadAccess, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return nil, 0, err
	}
	filter.Scope = scopeFor(p)
	return s.orderRepo.List(filter, page)
}

func (s *orderService) Get(p *permission.Principal, id uint) (*model.Order, error) {
	if err := permission.Enforce(orderReadAccess, permission.Check{Principal: p, Action: permission.ActionRetrieve}); err != nil {
		return nil, err
	}
	return s.orderRepo.FindInScope(id, scopeFor(p))
}

// Update assigns crew and moves status. Managers may do both; crew members
// may only move the status of orders assigned to them.
func (s *orderService) Update(p *permission.Principal, id uint, input UpdateOrderInput) (*model.Order, error) {
	if err := permission.Enforce(orderUpdateAccess, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
		return nil, err
	}
	manager := p.IsManager()
	if !manager && input.changesCrew() {
		return nil, &permission.DeniedError{Reason: MsgCrewStatusOnly}
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	scope := repository.OrderScope{All: true}
	if !manager {
		crewID := p.UserID
		scope = repository.OrderScope{CrewID: &crewID}
	}
	order, err := s.orderRepo.FindInScope(id, scope)
	if err != nil {
		return nil, err
	}

	var events []string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		if manager && input.changesCrew() {
			var crewID *uint
			if input.DeliveryCrewID != nil {
				crew, err := s.userRepo.WithTx(tx).FindByID(*input.DeliveryCrewID)
				if errors.Is(err, repository.ErrUserNotFound) {
					return ErrNotDeliveryCrew
				}
				if err != nil {
					return err
				}
				if !crew.InGroup(model.GroupDeliveryCrew) {
					return ErrNotDeliveryCrew
				}
				crewID = &crew.ID
			}
			if !sameAssignee(order.DeliveryCrewID, crewID) {
				if err := orders.AssignCrew(id, crewID); err != nil {
					return err
				}
				events = append(events, EventOrderAssigned)
			}
		}

		if input.Status != nil && *input.Status != order.Status {
			if !order.Status.CanTransitionTo(*input.Status) {
				return ErrInvalidTransition
			}
			if err := orders.TransitionStatus(id, order.Status, *input.Status); err != nil {
				if errors.Is(err, repository.ErrStatusConflict) {
					return ErrInvalidTransition
				}
				return err
			}
			events = append(events, EventOrderStatusChanged)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Order update rejected", logger.Fields{
			"order_id": id,
			"user_id":  p.UserID,
			"error":    err.Error(),
		})
		return nil, err
	}

	updated, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	logger.Info("Order updated", logger.Fields{
		"order_id":         id,
		"status":           updated.Status,
		"delivery_crew_id": updated.DeliveryCrewID,
		"updated_by":       p.UserID,
	})
	for _, ev := range events {
		s.publish(ev, updated)
	}
	return updated, nil
}

func (s *orderService) Delete(p *permission.Principal, id uint) error {
	if err := permission.Enforce(orderReadAccess, permission.Check{Principal: p, Action: permission.ActionDelete}); err != nil {
		return err
	}
	order, err := s.orderRepo.FindInScope(id, scopeFor(p))
	if err != nil {
		return err
	}
	if err := permission.Enforce(orderDeleteAccess, permission.Check{Principal: p, Action: permission.ActionDelete, Owner: &order.UserID}); err != nil {
		return err
	}

	if err := s.orderRepo.Delete(id); err != nil {
		return err
	}
	logger.Info("Order deleted", logger.Fields{"order_id": id, "deleted_by": p.UserID})
	return nil
}

// AddItem appends a line to the caller's pending order and rolls the
// subtotal into the order total.
func (s *orderService) AddItem(p *permission.Principal, orderID uint, input AddOrderItemInput) (*model.OrderItem, error) {
	if err := permission.Enforce(permission.IsCustomer, permission.Check{Principal: p, Action: permission.ActionCreate}); err != nil {
		return nil, err
	}
	customerID := p.UserID
	order, err := s.orderRepo.FindInScope(orderID, repository.OrderScope{CustomerID: &customerID})
	if err != nil {
		return nil, err
	}
	if err := permission.Enforce(orderItemAccess, permission.Check{Principal: p, Action: permission.ActionCreate, Owner: &order.UserID}); err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	if input.Quantity < model.MinQuantity || input.Quantity > model.MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	menuItem, err := s.menuItemRepo.FindByID(input.MenuItemID)
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return nil, ErrUnknownMenuItem
		}
		return nil, err
	}

	item := &model.OrderItem{
		OrderID:    order.ID,
		MenuItemID: menuItem.ID,
		Quantity:   input.Quantity,
		UnitPrice:  menuItem.Price,
	}
	if input.Price != nil {
		item.Price = input.Price.Round(2)
	}
	if err := s.orderRepo.AddItem(item); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrDuplicateOrderItem
		}
		return nil, err
	}
	item.MenuItem = *menuItem

	logger.Info("Order item added", logger.Fields{
		"order_id":      orderID,
		"order_item_id": item.ID,
		"price":         item.Price.StringFixed(2),
	})
	return item, nil
}

func (s *orderService) ListItems(p *permission.Principal, orderID uint) ([]model.OrderItem, error) {
	order, err := s.Get(p, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

func (s *orderService) publish(eventType string, order *model.Order) {
	s.notifier.PublishOrderEvent(OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		Status:         order.Status,
		DeliveryCrewID: order.DeliveryCrewID,
		CustomerID:     order.UserID,
		At:             time.Now().UTC(),
	})
}

func sameAssignee(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
