package router

import (
	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/api/web"
	"github.com/gin-gonic/gin"
)

const serviceName = "job-web-service"

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(deps.AllowedOrigins))
	r.Use(AuthMiddleware(deps.Verifier, deps.CookieName, deps.Logger))
	r.Use(SameOriginMiddleware(deps.AllowedOrigins, deps.Logger))

	r.SetHTMLTemplate(web.Templates())
	r.StaticFS("/static", web.Static())

	// Health check endpoint
	r.GET("/health", handler.Health(serviceName, deps.HealthChecks))

	// Initialize job handler
	jobHandler := handler.NewJobHandler(deps)

	// Server-rendered pages
	pages := r.Group("/jobs")
	{
		// GET /jobs/:job_id - Job detail page
		pages.GET("/:job_id", jobHandler.ShowJobPage)

		// POST /jobs/:job_id/favourite - Toggle favourite from the page form
		pages.POST("/:job_id/favourite", jobHandler.ToggleFavouriteForm)

		// GET /jobs/:job_id/live - Websocket live view
		pages.GET("/:job_id/live", jobHandler.LiveJob)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs/:job_id - Get rendered job details
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/favourite - Toggle favourite
			jobs.POST("/:job_id/favourite", RequireAuth(), jobHandler.ToggleFavourite)
		}
	}

	return r
}
