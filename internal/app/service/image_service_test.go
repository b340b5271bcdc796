package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeStorage struct {
	keys        []string
	contentType string
	err         error
}

func (s *fakeStorage) Put(_ context.Context, key, contentType string, _ []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	s.contentType = contentType
	return "https://cdn.example.com/" + key, nil
}

func TestImageService_UploadStoresURL(t *testing.T) {
	f := newFixture(t)
	store := &fakeStorage{}
	svc := NewImageService(store, f.menuItems)
	_, manager := f.user(t, "boss", model.GroupManager)
	item := f.menuItem(t, f.category(t, "Soups"), "Tomato soup", "5.50")

	updated, err := svc.UploadMenuItemImage(context.Background(), manager, item.ID, pngHeader)
	require.NoError(t, err)

	require.Len(t, store.keys, 1)
	assert.Regexp(t, `^menu-items/[0-9a-f-]{36}\.png$`, store.keys[0])
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, "https://cdn.example.com/"+store.keys[0], updated.ImageURL)
}

func TestImageService_Rejections(t *testing.T) {
	f := newFixture(t)
	store := &fakeStorage{}
	_, manager := f.user(t, "boss", model.GroupManager)
	_, alice := f.user(t, "alice", model.GroupCustomer)
	item := f.menuItem(t, f.category(t, "Soups"), "Tomato soup", "5.50")
	ctx := context.Background()

	svc := NewImageService(store, f.menuItems)

	_, err := svc.UploadMenuItemImage(ctx, alice, item.ID, pngHeader)
	requireDenied(t, err, permission.MsgManagerOnly)

	_, err = svc.UploadMenuItemImage(ctx, manager, item.ID, []byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageSize)...)
	_, err = svc.UploadMenuItemImage(ctx, manager, item.ID, big)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.UploadMenuItemImage(ctx, manager, 9999, pngHeader)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	assert.Empty(t, store.keys)

	store.err = errors.New("bucket unavailable")
	_, err = svc.UploadMenuItemImage(ctx, manager, item.ID, pngHeader)
	assert.EqualError(t, err, "bucket unavailable")

	disabled := NewImageService(nil, f.menuItems)
	_, err = disabled.UploadMenuItemImage(ctx, manager, item.ID, pngHeader)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
