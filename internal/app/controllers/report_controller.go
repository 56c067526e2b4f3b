package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/app/models/dto"
	"github.com/derya/enrollsync/internal/app/repositories"
	"github.com/derya/enrollsync/internal/app/services"
	"github.com/derya/enrollsync/internal/middleware"
	"github.com/derya/enrollsync/internal/pkg/validation"
)

// ReportController handles enrollment report operations
type ReportController struct {
	reportService *services.ReportService
	referenceRepo *repositories.ReferenceRepository
}

// NewReportController creates a new ReportController
func NewReportController(reportService *services.ReportService, referenceRepo *repositories.ReferenceRepository) *ReportController {
	return &ReportController{
		reportService: reportService,
		referenceRepo: referenceRepo,
	}
}

// GenerateReport starts an enrollment report job
// @Summary Generate an enrollment report
// @Description Validates the request, creates a report job and starts processing it asynchronously. Poll the job status endpoint with the returned job id.
// @Tags enrollment
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "Report parameters"
// @Success 202 {object} dto.APIResponse{data=dto.JobSubmittedResponse} "Job accepted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /enrollment/generate [post]
func (c *ReportController) GenerateReport(ctx *gin.Context) {
	var req dto.GenerateReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	includeSummer, saveAll, saveGrouped := req.Defaults()
	params, err := validation.ValidateJobParameters(req.Nterms, req.Subjects, req.Ranges, includeSummer, saveAll, saveGrouped)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	job, err := c.reportService.SubmitJob(ctx, params)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewAPIResponse(dto.JobSubmittedResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Report generation started",
	}))
}

// GetJobStatus returns the current state of a report job
// @Summary Get report job status
// @Description Retrieves a report job's status, progress and, once completed, the embedded CSV or a download URL
// @Tags jobs
// @Accept json
// @Produce json
// @Param jobId path string true "Job ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.JobStatusResponse} "Job status"
// @Failure 400 {object} dto.ErrorResponse "Invalid job id format"
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /jobs/{jobId}/status [get]
func (c *ReportController) GetJobStatus(ctx *gin.Context) {
	job, err := c.reportService.GetJob(ctx, ctx.Param("jobId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewJobStatusResponse(job)))
}

// ListJobs returns the most recent report jobs
// @Summary List recent report jobs
// @Description Lists recent report jobs, optionally filtered by status
// @Tags jobs
// @Accept json
// @Produce json
// @Param status query string false "Filter by job status" Enums(pending, processing, completed, failed)
// @Success 200 {object} dto.APIResponse{data=dto.JobListResponse} "Recent jobs"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /jobs [get]
func (c *ReportController) ListJobs(ctx *gin.Context) {
	var status *models.JobStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.JobStatus(raw)
		status = &s
	}

	jobs, err := c.reportService.ListJobs(ctx, status, 20)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	views := make([]dto.JobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, dto.NewJobStatusResponse(job))
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.JobListResponse{
		Jobs:  views,
		Count: len(views),
	}))
}

// ReloadReferenceData reloads the capacity and building tables
// @Summary Reload reference data
// @Description Forces a reload of the room capacity and building mapping CSVs from object storage
// @Tags reference-data
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ReferenceReloadResponse} "Reload outcome"
// @Router /reference-data/reload [post]
func (c *ReportController) ReloadReferenceData(ctx *gin.Context) {
	state := c.referenceRepo.Reload(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ReferenceReloadResponse{
		State: state.String(),
	}))
}
