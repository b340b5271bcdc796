package service

import (
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
)

var catalogAccess = permission.ManagerOrReadOnly

type CategoryInput struct {
	Title *string
	Slug  *string
}

type CategoryService interface {
	List(p *permission.Principal, filter repository.CategoryFilter, page pagination.Params) ([]model.Category, int64, error)
	Get(p *permission.Principal, id uint) (*model.Category, error)
	Create(p *permission.Principal, input CategoryInput) (*model.Category, error)
	Update(p *permission.Principal, id uint, input CategoryInput) (*model.Category, error)
	Delete(p *permission.Principal, id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(p *permission.Principal, filter repository.CategoryFilter, page pagination.Params) ([]model.Category, int64, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return nil, 0, err
	}
	return s.categoryRepo.List(filter, page)
}

func (s *categoryService) Get(p *permission.Principal, id uint) (*model.Category, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionRetrieve}); err != nil {
		return nil, err
	}
	return s.categoryRepo.FindByID(id)
}

func (s *categoryService) Create(p *permission.Principal, input CategoryInput) (*model.Category, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionCreate}); err != nil {
		return nil, err
	}

	category := &model.Category{}
	applyCategoryInput(category, input)
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}

	logger.Info("Category created", logger.Fields{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

func (s *categoryService) Update(p *permission.Principal, id uint, input CategoryInput) (*model.Category, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	applyCategoryInput(category, input)
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}

	logger.Info("Category updated", logger.Fields{"category_id": id})
	return category, nil
}

// Delete refuses while menu items still point at the category
func (s *categoryService) Delete(p *permission.Principal, id uint) error {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionDelete}); err != nil {
		return err
	}

	if _, err := s.categoryRepo.FindByID(id); err != nil {
		return err
	}
	count, err := s.categoryRepo.CountMenuItems(id)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warn("Category delete refused: in use", logger.Fields{
			"category_id": id,
			"menu_items":  count,
		})
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		return err
	}
	logger.Info("Category deleted", logger.Fields{"category_id": id})
	return nil
}

func applyCategoryInput(c *model.Category, input CategoryInput) {
	if input.Title != nil {
		c.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		c.Slug = strings.TrimSpace(*input.Slug)
	}
}
