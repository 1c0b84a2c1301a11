package api

import (
	"github.com/gin-gonic/gin"

	"github.com/k-telecom/pdf-parser/api/handler"
	"github.com/k-telecom/pdf-parser/api/middleware"
)

// SetupRouter configures all API endpoints and middleware.
func SetupRouter(
	processHandler *handler.ProcessHandler,
	jobHandler *handler.JobHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.SetTraceID())
	router.Use(middleware.ErrorMiddleware())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		// synchronous extraction - POST /api/process
		api.POST("/process", processHandler.Process)

		// batch extraction - POST /api/process-batch
		api.POST("/process-batch", processHandler.ProcessBatch)

		// loaded rule inventory - GET /api/patterns
		api.GET("/patterns", processHandler.Patterns)

		// asynchronous jobs
		jobGroup := api.Group("/jobs")
		{
			// submit a job - POST /api/jobs
			jobGroup.POST("", jobHandler.SubmitJob)

			// job status and result - GET /api/jobs/:id
			jobGroup.GET("/:id", jobHandler.GetJob)

			// list jobs - GET /api/jobs
			jobGroup.GET("", jobHandler.ListJobs)
		}

		// health check - GET /api/health
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors enables cross-origin requests for browser clients.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
