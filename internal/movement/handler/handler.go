package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/movement/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type MovementHandler struct {
	uc     movement.UseCase
	logger pkglogger.ZapLogger
}

func NewMovementHandler(uc movement.UseCase, log pkglogger.ZapLogger) *MovementHandler {
	return &MovementHandler{uc: uc, logger: log}
}

func (h *MovementHandler) MapRoutes(g *gin.RouterGroup) {
	g.GET("", h.List)
}

func (h *MovementHandler) List(c *gin.Context) {
	filters := &dto.MovementFilters{
		VariantID:     c.Query("variant_id"),
		LocationID:    c.Query("location_id"),
		Direction:     c.Query("direction"),
		ReferenceType: c.Query("reference_type"),
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		filters.EndDate = &t
	}
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	list, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("movement listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
