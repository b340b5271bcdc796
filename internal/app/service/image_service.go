package service

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
)

// MaxImageSize bounds menu image uploads
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStorage stores a blob and returns the URL it is served from
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type ImageService interface {
	UploadMenuItemImage(ctx context.Context, p *permission.Principal, menuItemID uint, body []byte) (*model.MenuItem, error)
}

type imageService struct {
	storage      ObjectStorage
	menuItemRepo repository.MenuItemRepository
}

// NewImageService accepts a nil storage; uploads then fail with ErrStorageDisabled
func NewImageService(storage ObjectStorage, menuItemRepo repository.MenuItemRepository) ImageService {
	return &imageService{
		storage:      storage,
		menuItemRepo: menuItemRepo,
	}
}

// UploadMenuItemImage sniffs the content type from the bytes, never the
// client's header.
func (s *imageService) UploadMenuItemImage(ctx context.Context, p *permission.Principal, menuItemID uint, body []byte) (*model.MenuItem, error) {
	if err := permission.Enforce(permission.IsManager, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if len(body) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mtype := mimetype.Detect(body)
	ext, ok := allowedImageTypes[mtype.String()]
	if !ok {
		logger.Warn("Rejected image upload", logger.Fields{
			"menu_item_id": menuItemID,
			"detected":     mtype.String(),
		})
		return nil, ErrInvalidImage
	}

	if _, err := s.menuItemRepo.FindByID(menuItemID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("menu-items/%s%s", uuid.New().String(), ext)
	url, err := s.storage.Put(ctx, key, mtype.String(), body)
	if err != nil {
		return nil, err
	}
	if err := s.menuItemRepo.UpdateImageURL(menuItemID, url); err != nil {
		return nil, err
	}

	logger.Info("Menu item image uploaded", logger.Fields{
		"menu_item_id": menuItemID,
		"key":          key,
		"uploaded_by":  p.UserID,
	})
	return s.menuItemRepo.FindByID(menuItemID)
}
