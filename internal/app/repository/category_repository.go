package repository

import (
	"errors"
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryFilter struct {
	Search   string
	Ordering string
}

var categoryOrdering = map[string]string{
	"id":    "id",
	"title": "title",
	"slug":  "slug",
}

type CategoryRepository interface {
	Create(category *model.Category) error
	FindByID(id uint) (*model.Category, error)
	FindBySlug(slug string) (*model.Category, error)
	List(filter CategoryFilter, p pagination.Params) ([]model.Category, int64, error)
	Update(category *model.Category) error
	Delete(id uint) error
	CountMenuItems(id uint) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category in database", logger.Fields{"title": category.Title})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, logger.Fields{"title": category.Title})
		return err
	}

	logger.Debug("Category created in database", logger.Fields{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return nil
}

func (r *categoryRepository) FindByID(id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		logger.Error("Failed to find category by ID in database", err, logger.Fields{"category_id": id})
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*model.Category, error) {
	var category model.Category
	err := r.db.Where("slug = ?", slug).Order("id ASC").First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		logger.Error("Failed to find category by slug in database", err, logger.Fields{"slug": slug})
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(filter CategoryFilter, p pagination.Params) ([]model.Category, int64, error) {
	logger.Debug("Listing categories in database", logger.Fields{
		"search": filter.Search,
		"limit":  p.Limit,
		"offset": p.Offset,
	})

	order, err := orderBy(filter.Ordering, categoryOrdering, "id ASC")
	if err != nil {
		return nil, 0, err
	}

	q := r.db.Model(&model.Category{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(s))
	}

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count categories in database", err)
		return nil, 0, err
	}

	var categories []model.Category
	if err := paginate(q.Session(&gorm.Session{}), p).Order(order).Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories in database", err)
		return nil, 0, err
	}
	return categories, count, nil
}

func (r *categoryRepository) Update(category *model.Category) error {
	logger.Debug("Updating category in database", logger.Fields{"category_id": category.ID})

	if err := r.db.Save(category).Error; err != nil {
		logger.Error("Failed to update category in database", err, logger.Fields{"category_id": category.ID})
		return err
	}
	return nil
}

func (r *categoryRepository) Delete(id uint) error {
	logger.Debug("Deleting category from database", logger.Fields{"category_id": id})

	res := r.db.Delete(&model.Category{}, id)
	if res.Error != nil {
		logger.Error("Failed to delete category from database", res.Error, logger.Fields{"category_id": id})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) CountMenuItems(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.MenuItem{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}
