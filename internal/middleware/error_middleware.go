package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/derya/enrollsync/internal/app/models/dto"
	"github.com/derya/enrollsync/internal/pkg/apperrors"
)

// --- Central Error Handling Middleware/Function ---

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && len(custom.Details) > 0 {
			detail = detail.WithDetails(custom.Details)
		}
		c.JSON(400, dto.NewErrorResponse(detail))
		return
	case errors.Is(err, apperrors.ErrInvalidJobID):
		c.JSON(400, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidJobID, "Invalid job id format"),
		))
		return
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(400, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()),
		))
		return
	case errors.Is(err, apperrors.ErrJobNotFound):
		c.JSON(404, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeJobNotFound, "Job not found"),
		))
		return
	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(404, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"),
		))
		return
	case errors.Is(err, apperrors.ErrUpstreamUnavailable),
		errors.Is(err, apperrors.ErrUpstreamThrottled),
		errors.Is(err, apperrors.ErrNoTermsAvailable):
		c.JSON(502, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Schedule source unavailable"),
		))
		return
	default:
		c.JSON(500, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		))
		return
	}
}
