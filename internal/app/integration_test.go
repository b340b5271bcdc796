package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/internal/app/controller"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/internal/router"
	ws "github.com/ikkim/littlelemon-backend/internal/websocket"
	"github.com/ikkim/littlelemon-backend/pkg/metrics"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/ikkim/littlelemon-backend/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.PasswordCost = bcrypt.MinCost
}

// memoryCounter stands in for redis in the throttle
type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server:     config.ServerConfig{GinMode: gin.TestMode, Environment: "test"},
		JWT:        config.JWTConfig{Secret: "test-secret", TokenExpiry: time.Hour},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Throttle:   config.ThrottleConfig{Window: time.Minute, AnonLimit: 2, UserLimit: 5},
		Pagination: config.PaginationConfig{DefaultLimit: 50, MaxLimit: 100},
	}

	userRepo := repository.NewUserRepository(testDB)
	groupRepo := repository.NewGroupRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	menuItemRepo := repository.NewMenuItemRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	hub := ws.NewHub()
	authService := service.NewAuthService(userRepo, nil, cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	bounds := pagination.Bounds{Default: cfg.Pagination.DefaultLimit, Max: cfg.Pagination.MaxLimit}

	controllers := router.Controllers{
		Auth:        controller.NewAuthController(authService),
		Users:       controller.NewUserController(service.NewUserService(userRepo, groupRepo), bounds),
		Categories:  controller.NewCategoryController(service.NewCategoryService(categoryRepo), bounds),
		MenuItems:   controller.NewMenuItemController(service.NewMenuItemService(menuItemRepo, categoryRepo), service.NewImageService(nil, menuItemRepo), bounds),
		Cart:        controller.NewCartController(service.NewCartService(cartRepo, menuItemRepo)),
		Orders:      controller.NewOrderController(service.NewOrderService(testDB, orderRepo, cartRepo, userRepo, menuItemRepo, hub), service.NewReportService(orderRepo), bounds),
		OrderEvents: controller.NewOrderEventsController(hub, cfg.CORS.AllowedOrigins),
		Diagnostics: controller.NewDiagnosticsController(nil),
	}

	registry := prometheus.NewRegistry()
	engine := router.NewRouter(
		controllers,
		middleware.NewAuthMiddleware(authService),
		middleware.NewThrottle(&memoryCounter{counts: map[string]int64{}}, cfg.Throttle.Window),
		metrics.NewHTTPMetrics(registry),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg,
	).Setup()

	return &TestServer{Router: engine, DB: testDB}
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *TestServer) register(t *testing.T, username string) uint {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decodeBody(t, w)["id"].(float64))
}

func (s *TestServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/api-token-auth", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody(t, w)["token"].(string)
}

// manager creates a manager account directly; registration only makes customers
func (s *TestServer) manager(t *testing.T) string {
	t.Helper()
	hash, err := util.HashPassword("secret123")
	require.NoError(t, err)
	u := &model.User{Username: "boss", PasswordHash: hash, IsActive: true}
	require.NoError(t, repository.NewUserRepository(s.DB).Create(u, model.GroupManager))
	return s.login(t, "boss")
}

func (s *TestServer) seedMenu(t *testing.T, token string) map[string]uint {
	t.Helper()
	ids := map[string]uint{}
	categories := map[string]uint{}
	for _, title := range []string{"Soups", "Mains"} {
		w := s.request(t, http.MethodPost, "/api/categories", token, map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		categories[title] = uint(decodeBody(t, w)["id"].(float64))
	}
	items := []struct {
		title, price, category string
	}{
		{"Tomato Soup", "10.00", "Soups"},
		{"Lobster Bisque", "18.00", "Soups"},
		{"Lentil Soup", "15.00", "Soups"},
		{"Lemon Chicken", "12.00", "Mains"},
	}
	for _, it := range items {
		w := s.request(t, http.MethodPost, "/api/menu-items", token, map[string]interface{}{
			"title":       it.title,
			"price":       it.price,
			"category_id": categories[it.category],
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids[it.title] = uint(decodeBody(t, w)["id"].(float64))
	}
	return ids
}

func TestIntegration_CartTotalFlow(t *testing.T) {
	server := setupIntegrationTest(t)
	menu := server.seedMenu(t, server.manager(t))

	userID := server.register(t, "ursula")
	token := server.login(t, "ursula")

	w := server.request(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decodeBody(t, w)
	assert.EqualValues(t, 0, cart["total"])
	assert.EqualValues(t, userID, cart["user_id"])

	w = server.request(t, http.MethodPost, fmt.Sprintf("/api/users/%d/cart/menu-items", userID), token, map[string]interface{}{
		"menuitem_id": menu["Tomato Soup"],
		"quantity":    2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "20.00", decodeBody(t, w)["price"])

	w = server.request(t, http.MethodGet, "/api/cart", token, nil)
	assert.EqualValues(t, 2, decodeBody(t, w)["total"])

	w = server.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/cart", userID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart = decodeBody(t, w)
	assert.EqualValues(t, 0, cart["total"])
	assert.Empty(t, cart["items"])

	var rows int64
	require.NoError(t, server.DB.Model(&model.CartItem{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestIntegration_GroupChangeSwitchesRole(t *testing.T) {
	server := setupIntegrationTest(t)
	managerToken := server.manager(t)

	userID := server.register(t, "ursula")
	token := server.login(t, "ursula")

	w := server.request(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodPost, fmt.Sprintf("/api/users/%d/groups", userID), managerToken, map[string]string{"name": model.GroupDeliveryCrew})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	// groups are read per request, so the same token sees the new role
	w = server.request(t, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = server.request(t, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = server.request(t, http.MethodPost, "/api/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = server.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{model.GroupDeliveryCrew}, decodeBody(t, w)["groups"])
}

func TestIntegration_AnonymousMenuFilter(t *testing.T) {
	server := setupIntegrationTest(t)
	server.seedMenu(t, server.manager(t))

	w := server.request(t, http.MethodGet, "/api/menu-items?category=soups&price=15", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])
	var titles []string
	for _, r := range body["results"].([]interface{}) {
		item := r.(map[string]interface{})
		titles = append(titles, item["title"].(string))
		price := decimal.RequireFromString(item["price"].(string))
		assert.True(t, price.LessThanOrEqual(decimal.NewFromInt(15)))
	}
	assert.Equal(t, []string{"Tomato Soup", "Lentil Soup"}, titles)
}

func TestIntegration_CatalogWritesNeedManager(t *testing.T) {
	server := setupIntegrationTest(t)
	server.register(t, "ursula")
	token := server.login(t, "ursula")

	w := server.request(t, http.MethodPost, "/api/categories", "", map[string]string{"title": "Soups"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = server.request(t, http.MethodPost, "/api/categories", token, map[string]string{"title": "Soups"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIntegration_OrderLifecycle(t *testing.T) {
	server := setupIntegrationTest(t)
	managerToken := server.manager(t)
	menu := server.seedMenu(t, managerToken)

	server.register(t, "ursula")
	customer := server.login(t, "ursula")
	crewID := server.register(t, "rider")
	w := server.request(t, http.MethodPost, "/api/groups/delivery-crew/users", managerToken, map[string]interface{}{"user_id": crewID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	crew := server.login(t, "rider")

	w = server.request(t, http.MethodPost, "/api/cart/menu-items", customer, map[string]interface{}{
		"menuitem_id": menu["Lemon Chicken"],
		"quantity":    3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = server.request(t, http.MethodPost, "/api/orders", customer, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeBody(t, w)
	assert.Equal(t, "36.00", order["total"])
	path := fmt.Sprintf("/api/orders/%d", uint(order["id"].(float64)))

	w = server.request(t, http.MethodPatch, path, managerToken, map[string]interface{}{"delivery_crew_id": crewID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = server.request(t, http.MethodPatch, path, crew, map[string]interface{}{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = server.request(t, http.MethodGet, path, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", decodeBody(t, w)["status"])
}

func TestIntegration_Diagnostics(t *testing.T) {
	server := setupIntegrationTest(t)
	managerToken := server.manager(t)
	server.register(t, "ursula")
	customer := server.login(t, "ursula")

	for i := 0; i < 2; i++ {
		w := server.request(t, http.MethodGet, "/api/throttle-check", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "successful", decodeBody(t, w)["message"])
	}
	w := server.request(t, http.MethodGet, "/api/throttle-check", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = server.request(t, http.MethodGet, "/api/throttle-check-auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = server.request(t, http.MethodGet, "/api/secrets", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Some secret message", decodeBody(t, w)["message"])

	w = server.request(t, http.MethodGet, "/api/manager-view", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = server.request(t, http.MethodGet, "/api/manager-view", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Only Manager Should See This", decodeBody(t, w)["message"])

	w = server.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "littlelemon_http_requests_total")
}

func TestIntegration_CORSPreflight(t *testing.T) {
	server := setupIntegrationTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/menu-items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
