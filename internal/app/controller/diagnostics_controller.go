package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// DiagnosticsController serves the health probe and the small endpoints used
// to check throttling and role gates by hand.
type DiagnosticsController struct {
	checks map[string]Pinger
}

func NewDiagnosticsController(checks map[string]Pinger) *DiagnosticsController {
	return &DiagnosticsController{checks: checks}
}

// Health GET /health
func (ctrl *DiagnosticsController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, p := range ctrl.checks {
		if err := p.Ping(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err, map[string]interface{}{
				"dependency": name,
			})
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	body := gin.H{"status": "ok", "checks": results}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// ThrottleCheck GET /api/throttle-check
func (ctrl *DiagnosticsController) ThrottleCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "successful"})
}

// ThrottleCheckAuth GET /api/throttle-check-auth
func (ctrl *DiagnosticsController) ThrottleCheckAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "message for the logged in users only"})
}

// Secret GET /api/secrets
func (ctrl *DiagnosticsController) Secret(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Some secret message"})
}

// ManagerView GET /api/manager-view
func (ctrl *DiagnosticsController) ManagerView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Only Manager Should See This"})
}
