package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/availability"
	sudto "github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type AvailabilityHandler struct {
	uc     availability.UseCase
	logger pkglogger.ZapLogger
}

func NewAvailabilityHandler(uc availability.UseCase, log pkglogger.ZapLogger) *AvailabilityHandler {
	return &AvailabilityHandler{uc: uc, logger: log}
}

func (h *AvailabilityHandler) MapRoutes(g *gin.RouterGroup) {
	// batch queries take a body, so POST even though they only read
	g.POST("/query", h.Query)
	g.POST("/low-stock", h.LowStock)
}

func (h *AvailabilityHandler) Query(c *gin.Context) {
	var req struct {
		Pools []sudto.VariantLocation `json:"pools" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metrics, err := h.uc.GetMetrics(c.Request.Context(), req.Pools)
	if err != nil {
		h.logger.Error("availability query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": metrics})
}

func (h *AvailabilityHandler) LowStock(c *gin.Context) {
	var req struct {
		Pools     []sudto.VariantLocation `json:"pools" binding:"required"`
		Threshold int                     `json:"threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metrics, err := h.uc.ListLowStock(c.Request.Context(), req.Pools, req.Threshold)
	if err != nil {
		h.logger.Error("low stock query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": metrics})
}
