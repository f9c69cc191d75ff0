package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/version"
)

// Health returns a handler that aggregates component health. Any component
// down answers 503; degraded components still answer 200.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.GetShortVersion())
		for _, checker := range checkers {
			sh.AddComponent(checker.CheckHealth(c.Request.Context()))
		}

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
