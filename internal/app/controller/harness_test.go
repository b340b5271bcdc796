package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/ikkim/littlelemon-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	util.PasswordCost = bcrypt.MinCost
}

type testEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	categories repository.CategoryRepository
	menuItems  repository.MenuItemRepository
	carts      repository.CartRepository

	auth   service.AuthService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:         testDB,
		users:      repository.NewUserRepository(testDB),
		categories: repository.NewCategoryRepository(testDB),
		menuItems:  repository.NewMenuItemRepository(testDB),
		carts:      repository.NewCartRepository(testDB),
		router:     gin.New(),
	}
	env.auth = service.NewAuthService(env.users, nil, "test-secret", time.Hour)
	return env
}

// as injects the caller the way the auth middleware does
func as(p *permission.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.PrincipalKey, p)
		}
		c.Next()
	}
}

func (e *testEnv) user(t *testing.T, username string, groups ...string) (*model.User, *permission.Principal) {
	t.Helper()
	hash, err := util.HashPassword("secret123")
	require.NoError(t, err)
	u := &model.User{Username: username, PasswordHash: hash, IsActive: true}
	require.NoError(t, e.users.Create(u, groups...))
	loaded, err := e.users.FindByID(u.ID)
	require.NoError(t, err)
	return loaded, service.PrincipalFor(loaded)
}

func (e *testEnv) category(t *testing.T, title string) *model.Category {
	t.Helper()
	c := &model.Category{Title: title}
	require.NoError(t, e.categories.Create(c))
	return c
}

func (e *testEnv) menuItem(t *testing.T, category *model.Category, title, price string, featured bool) *model.MenuItem {
	t.Helper()
	item := &model.MenuItem{
		Title:      title,
		Price:      decimal.RequireFromString(price),
		Featured:   featured,
		CategoryID: category.ID,
	}
	require.NoError(t, e.menuItems.Create(item))
	return item
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, w)["error"].(string)
	return code
}

var testBounds = pagination.Bounds{Default: 10, Max: 50}

// principals for the three roles used across the controller tests
type roles struct {
	manager  *permission.Principal
	customer *permission.Principal
	crew     *permission.Principal

	managerUser  *model.User
	customerUser *model.User
	crewUser     *model.User
}

func (e *testEnv) roles(t *testing.T) roles {
	t.Helper()
	var r roles
	r.managerUser, r.manager = e.user(t, "manager", model.GroupManager)
	r.customerUser, r.customer = e.user(t, "customer", model.GroupCustomer)
	r.crewUser, r.crew = e.user(t, "crew", model.GroupDeliveryCrew)
	return r
}
