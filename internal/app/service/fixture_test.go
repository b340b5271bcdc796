package service

import (
	"testing"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.PasswordCost = bcrypt.MinCost
}

type fixture struct {
	db         *gorm.DB
	users      repository.UserRepository
	groups     repository.GroupRepository
	categories repository.CategoryRepository
	menuItems  repository.MenuItemRepository
	carts      repository.CartRepository
	orders     repository.OrderRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &fixture{
		db:         testDB,
		users:      repository.NewUserRepository(testDB),
		groups:     repository.NewGroupRepository(testDB),
		categories: repository.NewCategoryRepository(testDB),
		menuItems:  repository.NewMenuItemRepository(testDB),
		carts:      repository.NewCartRepository(testDB),
		orders:     repository.NewOrderRepository(testDB),
	}
}

func (f *fixture) user(t *testing.T, username string, groups ...string) (*model.User, *permission.Principal) {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "hash", IsActive: true}
	require.NoError(t, f.users.Create(u, groups...))
	return u, PrincipalFor(u)
}

func (f *fixture) category(t *testing.T, title string) *model.Category {
	t.Helper()
	c := &model.Category{Title: title}
	require.NoError(t, f.categories.Create(c))
	return c
}

func (f *fixture) menuItem(t *testing.T, category *model.Category, title, price string) *model.MenuItem {
	t.Helper()
	item := &model.MenuItem{
		Title:      title,
		Price:      decimal.RequireFromString(price),
		CategoryID: category.ID,
	}
	require.NoError(t, f.menuItems.Create(item))
	return item
}

// recordingNotifier keeps published events in order
type recordingNotifier struct {
	events []OrderEvent
}

func (n *recordingNotifier) PublishOrderEvent(e OrderEvent) {
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func requireDenied(t *testing.T, err error, reason string) {
	t.Helper()
	de, ok := permission.IsDenied(err)
	require.True(t, ok, "expected a permission denial, got %v", err)
	require.Equal(t, reason, de.Reason)
}
