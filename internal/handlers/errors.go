package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/skinsense-api/internal/prediction"
)

// RetryAfterSeconds is sent with 503 responses caused by an inference timeout.
const RetryAfterSeconds = 5

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
	Retryable  bool
}

// MapPredictionError maps prediction errors to HTTP error responses.
func MapPredictionError(err error) ErrorResponse {
	switch {
	case errors.Is(err, prediction.ErrInvalidImage):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_IMAGE",
			Message:    "Invalid image file. Supported formats: JPEG, PNG, WebP, BMP, GIF",
		}
	case errors.Is(err, prediction.ErrRuntimeUnavailable):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "MODEL_UNAVAILABLE",
			Message:    "Model not loaded",
		}
	case errors.Is(err, prediction.ErrInferenceTimeout):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "INFERENCE_TIMEOUT",
			Message:    "prediction timed out, please retry",
			Retryable:  true,
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INTERNAL_ERROR",
			Message:    "internal server error",
		}
	}
}

// HandlePredictionError sends the JSON error response for err.
func HandlePredictionError(c *gin.Context, err error) {
	errResp := MapPredictionError(err)
	if errResp.Retryable {
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}
	respondError(c, errResp.StatusCode, errResp.Code, errResp.Message)
}
