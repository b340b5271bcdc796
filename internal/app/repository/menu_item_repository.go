package repository

import (
	"errors"
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItemFilter mirrors the list query parameters
type MenuItemFilter struct {
	CategorySlug string
	Title        string           // exact title
	Search       string           // title contains, case insensitive
	PriceLTE     *decimal.Decimal // price ceiling
	Featured     *bool
	Ordering     string // price,title,category with optional '-'
}

var menuItemOrdering = map[string]string{
	"id":       "menu_items.id",
	"price":    "menu_items.price",
	"title":    "menu_items.title",
	"category": "categories.title",
}

type MenuItemRepository interface {
	Create(item *model.MenuItem) error
	FindByID(id uint) (*model.MenuItem, error)
	List(filter MenuItemFilter, p pagination.Params) ([]model.MenuItem, int64, error)
	Update(item *model.MenuItem) error
	UpdateImageURL(id uint, url string) error
	Delete(id uint) error
}

type menuItemRepository struct {
	db *gorm.DB
}

func NewMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &menuItemRepository{db: db}
}

func (r *menuItemRepository) Create(item *model.MenuItem) error {
	logger.Debug("Creating menu item in database", logger.Fields{
		"title":       item.Title,
		"category_id": item.CategoryID,
	})

	if err := r.db.Omit(clause.Associations).Create(item).Error; err != nil {
		logger.Error("Failed to create menu item in database", err, logger.Fields{"title": item.Title})
		return err
	}
	if err := r.db.First(&item.Category, item.CategoryID).Error; err != nil {
		return err
	}

	logger.Debug("Menu item created in database", logger.Fields{"menu_item_id": item.ID})
	return nil
}

func (r *menuItemRepository) FindByID(id uint) (*model.MenuItem, error) {
	logger.Debug("Finding menu item by ID in database", logger.Fields{"menu_item_id": id})

	var item model.MenuItem
	err := r.db.Preload("Category").First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Menu item not found in database", logger.Fields{"menu_item_id": id})
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		logger.Error("Failed to find menu item by ID in database", err, logger.Fields{"menu_item_id": id})
		return nil, err
	}
	return &item, nil
}

func (r *menuItemRepository) List(filter MenuItemFilter, p pagination.Params) ([]model.MenuItem, int64, error) {
	logger.Debug("Listing menu items in database", logger.Fields{
		"category": filter.CategorySlug,
		"title":    filter.Title,
		"search":   filter.Search,
		"ordering": filter.Ordering,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})

	order, err := orderBy(filter.Ordering, menuItemOrdering, "menu_items.id ASC")
	if err != nil {
		return nil, 0, err
	}

	q := r.db.Model(&model.MenuItem{}).
		Joins("JOIN categories ON categories.id = menu_items.category_id")

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		q = q.Where("categories.slug = ?", slug)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(`LOWER(menu_items.title) LIKE ? ESCAPE '\'`, containsPattern(s))
	}
	if filter.Title != "" {
		q = q.Where("menu_items.title = ?", filter.Title)
	}
	if filter.PriceLTE != nil {
		q = q.Where("menu_items.price <= ?", *filter.PriceLTE)
	}
	if filter.Featured != nil {
		q = q.Where("menu_items.featured = ?", *filter.Featured)
	}

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count menu items in database", err)
		return nil, 0, err
	}

	var items []model.MenuItem
	err = paginate(q.Session(&gorm.Session{}), p).
		Preload("Category").
		Order(order).
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list menu items in database", err)
		return nil, 0, err
	}

	logger.Debug("Menu items listed in database", logger.Fields{"count": count})
	return items, count, nil
}

func (r *menuItemRepository) Update(item *model.MenuItem) error {
	logger.Debug("Updating menu item in database", logger.Fields{"menu_item_id": item.ID})

	if err := r.db.Omit(clause.Associations).Save(item).Error; err != nil {
		logger.Error("Failed to update menu item in database", err, logger.Fields{"menu_item_id": item.ID})
		return err
	}
	return r.db.First(&item.Category, item.CategoryID).Error
}

func (r *menuItemRepository) UpdateImageURL(id uint, url string) error {
	res := r.db.Model(&model.MenuItem{}).Where("id = ?", id).Update("image_url", url)
	if res.Error != nil {
		logger.Error("Failed to update menu item image in database", res.Error, logger.Fields{"menu_item_id": id})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (r *menuItemRepository) Delete(id uint) error {
	logger.Debug("Deleting menu item from database", logger.Fields{"menu_item_id": id})

	res := r.db.Delete(&model.MenuItem{}, id)
	if res.Error != nil {
		logger.Error("Failed to delete menu item from database", res.Error, logger.Fields{"menu_item_id": id})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}
