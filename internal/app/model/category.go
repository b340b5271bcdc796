package model

import (
	"strings"

	"github.com/ikkim/littlelemon-backend/pkg/util"
	"gorm.io/gorm"
)

type Category struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Title string `gorm:"size:255;not null" json:"title"`
	Slug  string `gorm:"size:255;index" json:"slug"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeSave derives the slug from the title when none was given
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Title = strings.TrimSpace(c.Title)
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = util.Slugify(c.Title)
	}
	return nil
}
