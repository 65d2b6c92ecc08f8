package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/middleware"
)

// NewRouter creates and configures the Gin router
func NewRouter(h *Handler, logger *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = h.maxUploadSize

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	router.POST("/predict", h.Predict)
	router.POST("/predict/image", h.Predict)

	return router
}
