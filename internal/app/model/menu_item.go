package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	Title      string          `gorm:"size:255;not null;index" json:"title"`
	Price      decimal.Decimal `gorm:"type:decimal(6,2);not null;index" json:"price"`
	Featured   bool            `gorm:"not null;default:false;index" json:"featured"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	ImageURL   string          `gorm:"size:512" json:"image_url"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

// PriceAfterTax is the listed price with tax applied
func (m *MenuItem) PriceAfterTax() decimal.Decimal {
	return WithTax(m.Price)
}
