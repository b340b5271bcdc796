package service

import (
	"errors"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
)

// Carts are reachable only by the customer who owns them
var cartAccess = permission.All(permission.IsCustomer, permission.OwnerOnly)

type CartService interface {
	GetCart(p *permission.Principal, userID uint) (*model.Cart, error)
	ListItems(p *permission.Principal, userID uint) ([]model.CartItem, error)
	AddItem(p *permission.Principal, userID, menuItemID uint, quantity int) (*model.CartItem, error)
	GetItem(p *permission.Principal, userID, itemID uint) (*model.CartItem, error)
	UpdateItem(p *permission.Principal, userID, itemID uint, quantity int) (*model.CartItem, error)
	RemoveItem(p *permission.Principal, userID, itemID uint) error
	Clear(p *permission.Principal, userID uint) (*model.Cart, error)
}

type cartService struct {
	cartRepo     repository.CartRepository
	menuItemRepo repository.MenuItemRepository
}

func NewCartService(cartRepo repository.CartRepository, menuItemRepo repository.MenuItemRepository) CartService {
	return &cartService{
		cartRepo:     cartRepo,
		menuItemRepo: menuItemRepo,
	}
}

func (s *cartService) authorize(p *permission.Principal, userID uint, action permission.Action) error {
	return permission.Enforce(cartAccess, permission.Check{Principal: p, Action: action, Owner: &userID})
}

func (s *cartService) GetCart(p *permission.Principal, userID uint) (*model.Cart, error) {
	if err := s.authorize(p, userID, permission.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) ListItems(p *permission.Principal, userID uint) ([]model.CartItem, error) {
	cart, err := s.GetCart(p, userID)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// AddItem copies the current menu price as the unit price. The subtotal
// and the cart's running total are maintained by the repository.
func (s *cartService) AddItem(p *permission.Principal, userID, menuItemID uint, quantity int) (*model.CartItem, error) {
	if err := s.authorize(p, userID, permission.ActionCreate); err != nil {
		return nil, err
	}
	if quantity < model.MinQuantity || quantity > model.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	logger.Info("Adding item to cart", logger.Fields{
		"user_id":      userID,
		"menu_item_id": menuItemID,
		"quantity":     quantity,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	menuItem, err := s.menuItemRepo.FindByID(menuItemID)
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return nil, ErrUnknownMenuItem
		}
		return nil, err
	}

	item := &model.CartItem{
		CartID:     cart.ID,
		MenuItemID: menuItem.ID,
		Quantity:   quantity,
		UnitPrice:  menuItem.Price,
	}
	if err := s.cartRepo.AddItem(item); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Menu item already in cart", logger.Fields{
				"cart_id":      cart.ID,
				"menu_item_id": menuItemID,
			})
			return nil, ErrDuplicateCartItem
		}
		return nil, err
	}
	item.MenuItem = *menuItem

	logger.Info("Item added to cart", logger.Fields{
		"cart_item_id": item.ID,
		"price":        item.Price.StringFixed(2),
	})
	return item, nil
}

func (s *cartService) GetItem(p *permission.Principal, userID, itemID uint) (*model.CartItem, error) {
	cart, err := s.GetCart(p, userID)
	if err != nil {
		return nil, err
	}
	return s.cartRepo.FindItem(cart.ID, itemID)
}

func (s *cartService) UpdateItem(p *permission.Principal, userID, itemID uint, quantity int) (*model.CartItem, error) {
	if err := s.authorize(p, userID, permission.ActionUpdate); err != nil {
		return nil, err
	}
	if quantity < model.MinQuantity || quantity > model.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.FindItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Cart item updated", logger.Fields{
		"cart_item_id": itemID,
		"quantity":     quantity,
	})
	return item, nil
}

func (s *cartService) RemoveItem(p *permission.Principal, userID, itemID uint) error {
	if err := s.authorize(p, userID, permission.ActionDelete); err != nil {
		return err
	}
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.DeleteItem(cart.ID, itemID); err != nil {
		return err
	}
	logger.Info("Cart item removed", logger.Fields{"cart_item_id": itemID})
	return nil
}

// Clear empties the cart and resets its total; the cart itself is kept
func (s *cartService) Clear(p *permission.Principal, userID uint) (*model.Cart, error) {
	if err := s.authorize(p, userID, permission.ActionDelete); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Clear(cart.ID); err != nil {
		return nil, err
	}

	logger.Info("Cart cleared", logger.Fields{"cart_id": cart.ID, "user_id": userID})
	return s.cartRepo.FindByUserID(userID)
}
