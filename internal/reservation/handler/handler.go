package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/auth"
	"github.com/arkapos/stockunit-service/internal/reservation"
	"github.com/arkapos/stockunit-service/internal/reservation/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type ReservationHandler struct {
	uc     reservation.UseCase
	logger pkglogger.ZapLogger
}

func NewReservationHandler(uc reservation.UseCase, log pkglogger.ZapLogger) *ReservationHandler {
	return &ReservationHandler{uc: uc, logger: log}
}

// MapRoutes keys static and wildcard segments into separate subtrees; gin
// rejects a static sibling next to a wildcard in the same method tree.
func (h *ReservationHandler) MapRoutes(g *gin.RouterGroup) {
	g.POST("", h.Reserve)
	g.POST("/release-units", h.ReleaseUnits)

	keys := g.Group("/keys")
	keys.GET("/:key", h.ListHeld)
	keys.DELETE("/:key", h.Release)
	keys.POST("/:key/fulfill", h.Fulfill)

	sweeps := g.Group("/sweeps")
	sweeps.POST("/expired", h.SweepExpired)
	sweeps.POST("/stale", h.SweepStale)

	orders := g.Group("/orders")
	orders.GET("/:orderId", h.ListSold)
	orders.POST("/:orderId/reverse", h.Reverse)
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req struct {
		VariantID      string `json:"variant_id"`
		LocationID     string `json:"location_id"`
		Quantity       int    `json:"quantity"`
		ReservationKey string `json:"reservation_key" binding:"required"`
		TTLSeconds     int    `json:"ttl_seconds"`
		UnitID         string `json:"unit_id"`
		UnitCode       string `json:"unit_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Quantity <= 0 && req.UnitID == "" && req.UnitCode == "" {
		req.Quantity = 1
	}

	result, err := h.uc.Reserve(c.Request.Context(), &dto.ReserveInput{
		VariantID:      req.VariantID,
		LocationID:     req.LocationID,
		Quantity:       req.Quantity,
		ReservationKey: req.ReservationKey,
		TTLSeconds:     req.TTLSeconds,
		UnitID:         req.UnitID,
		UnitCode:       req.UnitCode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ReservationHandler) ListHeld(c *gin.Context) {
	units, err := h.uc.ListHeld(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": units})
}

func (h *ReservationHandler) ListSold(c *gin.Context) {
	units, err := h.uc.ListSold(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": units})
}

func (h *ReservationHandler) Release(c *gin.Context) {
	released, err := h.uc.Release(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *ReservationHandler) Fulfill(c *gin.Context) {
	var req struct {
		OrderID    string `json:"order_id" binding:"required"`
		BillID     string `json:"bill_id"`
		CustomerID string `json:"customer_id"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.uc.Fulfill(c.Request.Context(), &dto.FulfillInput{
		ReservationKey: c.Param("key"),
		OrderID:        req.OrderID,
		BillID:         req.BillID,
		CustomerID:     req.CustomerID,
		Notes:          req.Notes,
		ActorID:        auth.ActorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ReservationHandler) ReleaseUnits(c *gin.Context) {
	var req struct {
		UnitIDs []string `json:"unit_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	released, err := h.uc.ReleaseUnits(c.Request.Context(), req.UnitIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *ReservationHandler) SweepExpired(c *gin.Context) {
	released, err := h.uc.SweepExpired(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *ReservationHandler) SweepStale(c *gin.Context) {
	var req struct {
		OlderThanHours int `json:"older_than_hours"`
	}
	// body is optional; default age applies when absent
	_ = c.ShouldBindJSON(&req)

	released, err := h.uc.SweepStale(c.Request.Context(), req.OlderThanHours)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *ReservationHandler) Reverse(c *gin.Context) {
	reverted, err := h.uc.ReverseToAvailable(c.Request.Context(), c.Param("orderId"), auth.ActorID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reverted": reverted})
}

func (h *ReservationHandler) respondError(c *gin.Context, err error) {
	h.logger.Error("reservation request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
