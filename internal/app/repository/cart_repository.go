package repository

import (
	"errors"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

type CartRepository interface {
	FindByUserID(userID uint) (*model.Cart, error)
	LockByUserID(userID uint) (*model.Cart, error)
	FindItem(cartID, itemID uint) (*model.CartItem, error)
	AddItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(cartID, itemID uint) error
	Clear(cartID uint) error
	WithTx(tx *gorm.DB) CartRepository
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func preloadCartItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id ASC")
	}).Preload("Items.MenuItem.Category")
}

func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", logger.Fields{"user_id": userID})

	var cart model.Cart
	err := preloadCartItems(r.db).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Cart not found in database", logger.Fields{"user_id": userID})
		return nil, ErrCartNotFound
	}
	if err != nil {
		logger.Error("Failed to find cart by user ID in database", err, logger.Fields{"user_id": userID})
		return nil, err
	}

	logger.Debug("Cart found in database", logger.Fields{
		"cart_id": cart.ID,
		"items":   len(cart.Items),
	})
	return &cart, nil
}

// LockByUserID loads the cart with SELECT ... FOR UPDATE. Only meaningful
// inside a transaction.
func (r *cartRepository) LockByUserID(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := preloadCartItems(r.db.Clauses(clause.Locking{Strength: "UPDATE"})).
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		logger.Error("Failed to lock cart in database", err, logger.Fields{"user_id": userID})
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindItem(cartID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Preload("MenuItem.Category").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		logger.Error("Failed to find cart item in database", err, logger.Fields{
			"cart_id":      cartID,
			"cart_item_id": itemID,
		})
		return nil, err
	}
	return &item, nil
}

// bumpTotal adds quantity to the cart's running total in SQL so concurrent
// writers cannot lose increments.
func bumpTotal(tx *gorm.DB, cartID uint, quantity int) error {
	return tx.Model(&model.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("total", gorm.Expr("total + ?", quantity)).Error
}

func (r *cartRepository) AddItem(item *model.CartItem) error {
	logger.Debug("Adding cart item in database", logger.Fields{
		"cart_id":      item.CartID,
		"menu_item_id": item.MenuItemID,
		"quantity":     item.Quantity,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		return bumpTotal(tx, item.CartID, item.Quantity)
	})
	if err != nil {
		logger.Error("Failed to add cart item in database", err, logger.Fields{
			"cart_id":      item.CartID,
			"menu_item_id": item.MenuItemID,
		})
		return err
	}

	logger.Debug("Cart item added in database", logger.Fields{
		"cart_item_id": item.ID,
		"price":        item.Price.String(),
	})
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	logger.Debug("Updating cart item in database", logger.Fields{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return err
		}
		return bumpTotal(tx, item.CartID, item.Quantity)
	})
	if err != nil {
		logger.Error("Failed to update cart item in database", err, logger.Fields{"cart_item_id": item.ID})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(cartID, itemID uint) error {
	logger.Debug("Deleting cart item from database", logger.Fields{
		"cart_id":      cartID,
		"cart_item_id": itemID,
	})

	res := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&model.CartItem{})
	if res.Error != nil {
		logger.Error("Failed to delete cart item from database", res.Error, logger.Fields{"cart_item_id": itemID})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear removes every item and resets the running total. The cart row stays.
func (r *cartRepository) Clear(cartID uint) error {
	logger.Debug("Clearing cart in database", logger.Fields{"cart_id": cartID})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Cart{}).Where("id = ?", cartID).UpdateColumn("total", 0).Error
	})
	if err != nil {
		logger.Error("Failed to clear cart in database", err, logger.Fields{"cart_id": cartID})
		return err
	}
	return nil
}
