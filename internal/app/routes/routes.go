package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/derya/enrollsync/internal/app/controllers"
	"github.com/derya/enrollsync/internal/app/models/dto"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	reportController *controllers.ReportController,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Enrollment report routes
	enrollment := v1.Group("/enrollment")
	{
		enrollment.POST("/generate", reportController.GenerateReport)
	}

	// Job routes
	jobs := v1.Group("/jobs")
	{
		jobs.GET("", reportController.ListJobs)
		jobs.GET("/:jobId/status", reportController.GetJobStatus)
	}

	// Reference data routes
	referenceData := v1.Group("/reference-data")
	{
		referenceData.POST("/reload", reportController.ReloadReferenceData)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})

	// Swagger routes are set up in bootstrap.go already
}
