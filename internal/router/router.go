package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/internal/app/controller"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/metrics"
)

// Controllers groups the HTTP handlers mounted by the router
type Controllers struct {
	Auth        *controller.AuthController
	Users       *controller.UserController
	Categories  *controller.CategoryController
	MenuItems   *controller.MenuItemController
	Cart        *controller.CartController
	Orders      *controller.OrderController
	OrderEvents *controller.OrderEventsController
	Diagnostics *controller.DiagnosticsController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	throttle       *middleware.Throttle
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	config         *config.Config
}

// NewRouter wires the routes. metricsHandler may be nil to leave /metrics
// unmounted.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	throttle *middleware.Throttle,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		throttle:       throttle,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics(r.httpMetrics))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	ctl := r.controllers
	authenticate := r.authMiddleware.Authenticate()

	router.GET("/health", ctl.Diagnostics.Health)
	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	api := router.Group("/api")
	api.Use(r.authMiddleware.OptionalAuthenticate())
	{
		api.POST("/api-token-auth", ctl.Auth.Login)

		auth := api.Group("/auth")
		{
			auth.POST("/register", ctl.Auth.Register)
			auth.GET("/me", authenticate, ctl.Auth.Me)
			if r.config.Redis.Enabled {
				auth.POST("/logout", authenticate, ctl.Auth.Logout)
			}
		}

		categories := api.Group("/categories")
		categories.Use(middleware.Require(permission.ManagerOrReadOnly))
		{
			categories.GET("", ctl.Categories.ListCategories)
			categories.POST("", ctl.Categories.CreateCategory)
			categories.GET("/:id", ctl.Categories.GetCategory)
			categories.PUT("/:id", ctl.Categories.UpdateCategory)
			categories.PATCH("/:id", ctl.Categories.UpdateCategory)
			categories.DELETE("/:id", ctl.Categories.DeleteCategory)
		}

		menuItems := api.Group("/menu-items")
		menuItems.Use(middleware.Require(permission.ManagerOrReadOnly))
		{
			menuItems.GET("", ctl.MenuItems.ListMenuItems)
			menuItems.POST("", ctl.MenuItems.CreateMenuItem)
			menuItems.GET("/:id", ctl.MenuItems.GetMenuItem)
			menuItems.PUT("/:id", ctl.MenuItems.UpdateMenuItem)
			menuItems.PATCH("/:id", ctl.MenuItems.UpdateMenuItem)
			menuItems.DELETE("/:id", ctl.MenuItems.DeleteMenuItem)
			menuItems.POST("/:id/image", ctl.MenuItems.UploadImage)
		}

		users := api.Group("/users")
		users.Use(authenticate)
		{
			users.GET("", ctl.Users.ListUsers)
			users.POST("", ctl.Users.CreateUser)
			users.GET("/:id", ctl.Users.GetUser)
			users.PUT("/:id", ctl.Users.UpdateUser)
			users.PATCH("/:id", ctl.Users.UpdateUser)
			users.DELETE("/:id", ctl.Users.DeleteUser)

			users.POST("/:id/groups", ctl.Users.AddToGroup)
			users.PUT("/:id/groups", ctl.Users.AddToGroup)
			users.DELETE("/:id/groups", ctl.Users.RemoveFromGroup)

			users.GET("/:id/cart", ctl.Cart.GetCart)
			users.DELETE("/:id/cart", ctl.Cart.ClearCart)
			users.GET("/:id/cart/menu-items", ctl.Cart.ListItems)
			users.POST("/:id/cart/menu-items", ctl.Cart.AddItem)
			users.GET("/:id/cart/menu-items/:itemId", ctl.Cart.GetItem)
			users.PUT("/:id/cart/menu-items/:itemId", ctl.Cart.UpdateItem)
			users.DELETE("/:id/cart/menu-items/:itemId", ctl.Cart.RemoveItem)
		}

		// the caller's own cart
		cart := api.Group("/cart")
		cart.Use(authenticate)
		{
			cart.GET("", ctl.Cart.GetCart)
			cart.DELETE("", ctl.Cart.ClearCart)
			cart.GET("/menu-items", ctl.Cart.ListItems)
			cart.POST("/menu-items", ctl.Cart.AddItem)
			cart.GET("/menu-items/:itemId", ctl.Cart.GetItem)
			cart.PUT("/menu-items/:itemId", ctl.Cart.UpdateItem)
			cart.DELETE("/menu-items/:itemId", ctl.Cart.RemoveItem)
		}

		groups := api.Group("/groups/:group/users")
		groups.Use(authenticate)
		{
			groups.GET("", ctl.Users.ListGroupMembers)
			groups.POST("", ctl.Users.AddGroupMember)
			groups.DELETE("/:id", ctl.Users.RemoveGroupMember)
		}

		orders := api.Group("/orders")
		orders.Use(authenticate)
		{
			orders.GET("", ctl.Orders.ListOrders)
			orders.POST("", ctl.Orders.CreateOrder)
			orders.GET("/:id", ctl.Orders.GetOrder)
			orders.PUT("/:id", ctl.Orders.UpdateOrder)
			orders.PATCH("/:id", ctl.Orders.UpdateOrder)
			orders.DELETE("/:id", ctl.Orders.DeleteOrder)
			orders.GET("/:id/items", ctl.Orders.ListItems)
			orders.POST("/:id/items", ctl.Orders.AddItem)
		}

		api.GET("/reports/orders.xlsx", authenticate, ctl.Orders.ExportOrders)
		api.GET("/ws/orders", authenticate, ctl.OrderEvents.Stream)

		api.GET("/throttle-check", r.throttle.Anon(r.config.Throttle.AnonLimit), ctl.Diagnostics.ThrottleCheck)
		api.GET("/throttle-check-auth", authenticate, r.throttle.User(r.config.Throttle.UserLimit), ctl.Diagnostics.ThrottleCheckAuth)
		api.GET("/secrets", authenticate, ctl.Diagnostics.Secret)
		api.GET("/manager-view", authenticate, middleware.Require(permission.IsManager), ctl.Diagnostics.ManagerView)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
