package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusDelivered
}

// CanTransitionTo allows pending -> delivered and same-state writes only
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	return s == OrderStatusPending && next == OrderStatusDelivered
}

type Order struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`                                        // customer
	DeliveryCrewID *uint           `gorm:"index" json:"delivery_crew_id"`                                        // assignee, nil until assigned
	Status         OrderStatus     `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	CreatedAt      time.Time       `gorm:"index" json:"date_created"`
	UpdatedAt      time.Time       `json:"last_updated"`

	User         User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	DeliveryCrew *User       `gorm:"foreignKey:DeliveryCrewID;constraint:OnDelete:SET NULL" json:"-"`
	Items        []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	OrderID    uint            `gorm:"not null;uniqueIndex:idx_order_items_order_menuitem" json:"order_id"`
	MenuItemID uint            `gorm:"not null;uniqueIndex:idx_order_items_order_menuitem;index" json:"menuitem_id"`
	Quantity   int             `gorm:"type:smallint;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt  time.Time       `json:"created_at"`

	MenuItem MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE" json:"menuitem"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeCreate fills the subtotal unless the caller supplied one
func (it *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if it.Price.IsZero() {
		it.Price = LineSubtotal(it.UnitPrice, it.Quantity)
	}
	return nil
}
