package service

import (
	"errors"
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// MenuItemInput leaves nil fields untouched on update
type MenuItemInput struct {
	Title      *string
	Price      *decimal.Decimal
	Featured   *bool
	CategoryID *uint
}

type MenuItemService interface {
	List(p *permission.Principal, filter repository.MenuItemFilter, page pagination.Params) ([]model.MenuItem, int64, error)
	Get(p *permission.Principal, id uint) (*model.MenuItem, error)
	Create(p *permission.Principal, input MenuItemInput) (*model.MenuItem, error)
	Update(p *permission.Principal, id uint, input MenuItemInput) (*model.MenuItem, error)
	Delete(p *permission.Principal, id uint) error
}

type menuItemService struct {
	menuItemRepo repository.MenuItemRepository
	categoryRepo repository.CategoryRepository
}

func NewMenuItemService(menuItemRepo repository.MenuItemRepository, categoryRepo repository.CategoryRepository) MenuItemService {
	return &menuItemService{
		menuItemRepo: menuItemRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *menuItemService) List(p *permission.Principal, filter repository.MenuItemFilter, page pagination.Params) ([]model.MenuItem, int64, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return nil, 0, err
	}
	return s.menuItemRepo.List(filter, page)
}

func (s *menuItemService) Get(p *permission.Principal, id uint) (*model.MenuItem, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionRetrieve}); err != nil {
		return nil, err
	}
	return s.menuItemRepo.FindByID(id)
}

func (s *menuItemService) Create(p *permission.Principal, input MenuItemInput) (*model.MenuItem, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionCreate}); err != nil {
		return nil, err
	}

	item := &model.MenuItem{}
	if err := s.apply(item, input); err != nil {
		return nil, err
	}
	if item.CategoryID == 0 {
		return nil, ErrUnknownCategory
	}
	if err := s.menuItemRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Info("Menu item created", logger.Fields{
		"menu_item_id": item.ID,
		"price":        item.Price.StringFixed(2),
	})
	return item, nil
}

func (s *menuItemService) Update(p *permission.Principal, id uint, input MenuItemInput) (*model.MenuItem, error) {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
		return nil, err
	}

	item, err := s.menuItemRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(item, input); err != nil {
		return nil, err
	}
	if err := s.menuItemRepo.Update(item); err != nil {
		return nil, err
	}

	logger.Info("Menu item updated", logger.Fields{"menu_item_id": id})
	return item, nil
}

func (s *menuItemService) Delete(p *permission.Principal, id uint) error {
	if err := permission.Enforce(catalogAccess, permission.Check{Principal: p, Action: permission.ActionDelete}); err != nil {
		return err
	}
	if err := s.menuItemRepo.Delete(id); err != nil {
		return err
	}
	logger.Info("Menu item deleted", logger.Fields{"menu_item_id": id})
	return nil
}

func (s *menuItemService) apply(item *model.MenuItem, input MenuItemInput) error {
	if input.Price != nil {
		if !model.ValidPrice(*input.Price) {
			return ErrInvalidPrice
		}
		item.Price = *input.Price
	}
	if input.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(*input.CategoryID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return ErrUnknownCategory
			}
			return err
		}
		item.CategoryID = category.ID
		item.Category = *category
	}
	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Featured != nil {
		item.Featured = *input.Featured
	}
	return nil
}
