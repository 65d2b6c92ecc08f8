package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/middleware"
	"github.com/Brownie44l1/skinsense-api/internal/model"
	"github.com/Brownie44l1/skinsense-api/internal/prediction"
)

// Multipart field names accepted for the uploaded photo.
const (
	FileField      = "file"
	FileFieldAlias = "image"
)

// DefaultMaxUploadSize caps request bodies when no limit is configured.
const DefaultMaxUploadSize = 10 << 20

// Predictor is the part of prediction.Service the handlers depend on.
type Predictor interface {
	Predict(ctx context.Context, data []byte) (*prediction.Result, error)
	Available() bool
	LoadError() error
}

type Handler struct {
	predictor     Predictor
	maxUploadSize int64
	logger        *zap.Logger
}

func NewHandler(predictor Predictor, maxUploadSize int64, logger *zap.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{
		predictor:     predictor,
		maxUploadSize: maxUploadSize,
		logger:        logger.Named("handlers"),
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string   `json:"status"`
	ModelLoaded       bool     `json:"model_loaded"`
	ModelError        string   `json:"model_error,omitempty"`
	Classes           []string `json:"classes"`
	LabelOrderVersion int      `json:"label_order_version"`
}

// Health handles GET /health. The process is alive even when the model is
// not, so it always answers 200 and reports the model state.
func (h *Handler) Health(c *gin.Context) {
	status := HealthStatus{
		Status:            "healthy",
		ModelLoaded:       h.predictor.Available(),
		Classes:           model.LabelNames(),
		LabelOrderVersion: model.LabelOrderVersion,
	}
	if err := h.predictor.LoadError(); err != nil {
		status.ModelError = err.Error()
	}
	c.JSON(http.StatusOK, status)
}

// Ready handles GET /ready
func (h *Handler) Ready(c *gin.Context) {
	if !h.predictor.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Predict handles POST /predict with a multipart photo upload.
func (h *Handler) Predict(c *gin.Context) {
	if !h.predictor.Available() {
		HandlePredictionError(c, prediction.ErrRuntimeUnavailable)
		return
	}

	data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), data)
	if err != nil {
		_ = c.Error(err)
		HandlePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// readUpload extracts the photo bytes. On failure it writes the response
// itself and returns false.
func (h *Handler) readUpload(c *gin.Context) ([]byte, bool) {
	if c.Request.ContentLength > h.maxUploadSize {
		respondUploadTooLarge(c)
		return nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondUploadTooLarge(c)
			return nil, false
		}
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "No file part in the request")
		return nil, false
	}

	for _, field := range []string{FileField, FileFieldAlias} {
		files := form.File[field]
		if len(files) == 0 {
			// A part with an empty filename is parsed as a plain value.
			if _, ok := form.Value[field]; ok {
				respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "No selected file")
				return nil, false
			}
			continue
		}

		header := files[0]
		if header.Filename == "" {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "No selected file")
			return nil, false
		}

		src, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to open uploaded file")
			return nil, false
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			h.logger.Error("failed to read upload", zap.String("filename", header.Filename), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read uploaded file")
			return nil, false
		}

		h.logger.Debug("received upload",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("field", field),
			zap.String("filename", header.Filename),
			zap.Int64("size", header.Size),
		)
		return data, true
	}

	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "No file part in the request")
	return nil, false
}

func respondUploadTooLarge(c *gin.Context) {
	respondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "uploaded file is too large")
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
