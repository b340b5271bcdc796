package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart belongs to exactly one user and lives as long as the user does.
// Total is a running counter of added quantities, see CartItem.BeforeSave.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Total     int       `gorm:"not null;default:0" json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// ItemsTotal sums the loaded line subtotals
func (c *Cart) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Price)
	}
	return sum
}

type CartItem struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	CartID     uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_menuitem" json:"cart_id"`
	MenuItemID uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_menuitem;index" json:"menuitem_id"`
	Quantity   int             `gorm:"type:smallint;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // line subtotal
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	MenuItem MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE" json:"menuitem"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeSave keeps the subtotal in line with unit price and quantity on every write
func (it *CartItem) BeforeSave(tx *gorm.DB) error {
	it.Price = LineSubtotal(it.UnitPrice, it.Quantity)
	return nil
}
