package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/middleware"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// limiterInstance may be nil to disable rate limiting.
func RegisterRoutes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services, limiterInstance)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	v1 := r.Group("/api/v1", middleware.ActorMiddleware())
	if limiterInstance != nil {
		v1.Use(middleware.RateLimit(limiterInstance))
	}

	workplaceGroup := v1.Group("/workplaces/:workplace_id")
	registerPostingRoutes(workplaceGroup, services.Posting)
	registerReportingRoutes(workplaceGroup, services.Reporting, services.JournalQuery)
}
