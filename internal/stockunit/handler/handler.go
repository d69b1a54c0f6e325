package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/auth"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type StockUnitHandler struct {
	uc     stockunit.UseCase
	logger pkglogger.ZapLogger
}

func NewStockUnitHandler(uc stockunit.UseCase, log pkglogger.ZapLogger) *StockUnitHandler {
	return &StockUnitHandler{uc: uc, logger: log}
}

func (h *StockUnitHandler) MapRoutes(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("/count", h.Count)
	g.GET("/resolve/:code", h.ResolveByCode)
	g.PATCH("/:id", h.Update)
	g.POST("/remove", h.Remove)
}

func (h *StockUnitHandler) Create(c *gin.Context) {
	var req struct {
		VariantID  string `json:"variant_id" binding:"required"`
		LocationID string `json:"location_id" binding:"required"`
		UnitCode   string `json:"unit_code" binding:"required"`
		Status     string `json:"status"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.uc.CreateUnit(c.Request.Context(), &dto.CreateUnitInput{
		VariantID:  req.VariantID,
		LocationID: req.LocationID,
		UnitCode:   req.UnitCode,
		Status:     req.Status,
		Notes:      req.Notes,
		ActorID:    auth.ActorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": unit})
}

func (h *StockUnitHandler) Count(c *gin.Context) {
	variantID := c.Query("variant_id")
	locationID := c.Query("location_id")

	var status *model.UnitStatus
	if s := c.Query("status"); s != "" {
		st := model.UnitStatus(s)
		status = &st
	}

	count, err := h.uc.CountUnits(c.Request.Context(), variantID, locationID, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *StockUnitHandler) ResolveByCode(c *gin.Context) {
	unit, err := h.uc.ResolveByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if unit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": unit})
}

func (h *StockUnitHandler) Update(c *gin.Context) {
	var req struct {
		VariantID  *string `json:"variant_id"`
		LocationID *string `json:"location_id"`
		UnitCode   *string `json:"unit_code"`
		Notes      *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.uc.UpdateUnit(c.Request.Context(), c.Param("id"), &dto.UpdateUnitInput{
		VariantID:  req.VariantID,
		LocationID: req.LocationID,
		UnitCode:   req.UnitCode,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": unit})
}

func (h *StockUnitHandler) Remove(c *gin.Context) {
	var req struct {
		UnitIDs []string `json:"unit_ids" binding:"required"`
		Mode    string   `json:"mode"`
		Reason  string   `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := dto.RemoveModeDelete
	if req.Mode == string(dto.RemoveModeDamage) {
		mode = dto.RemoveModeDamage
	}

	removed, err := h.uc.RemoveUnits(c.Request.Context(), &dto.RemoveUnitsInput{
		UnitIDs: req.UnitIDs,
		Mode:    mode,
		Reason:  req.Reason,
		ActorID: auth.ActorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *StockUnitHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stockunit.ErrDuplicateCode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, stockunit.ErrUnitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("stock unit request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
