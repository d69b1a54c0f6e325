package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/auth"
	"github.com/arkapos/stockunit-service/internal/pair"
	"github.com/arkapos/stockunit-service/internal/pair/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type PairHandler struct {
	uc     pair.UseCase
	logger pkglogger.ZapLogger
}

func NewPairHandler(uc pair.UseCase, log pkglogger.ZapLogger) *PairHandler {
	return &PairHandler{uc: uc, logger: log}
}

func (h *PairHandler) MapRoutes(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("/resolve/:code", h.Resolve)
	g.POST("/:id/reserve", h.Reserve)
	g.POST("/:id/release", h.Release)
	g.POST("/:id/sell", h.Sell)
	g.DELETE("/:id", h.Dismantle)
}

// MapKeyRoutes attaches the reservation-key-scoped release. It lives under
// the reservation keys group; a static sibling next to the /:id wildcard
// would not register.
func (h *PairHandler) MapKeyRoutes(g *gin.RouterGroup) {
	g.DELETE("/:key/pairs", h.ReleaseByKey)
}

func (h *PairHandler) Create(c *gin.Context) {
	var req struct {
		PrimaryUnitID   string `json:"primary_unit_id" binding:"required"`
		SecondaryUnitID string `json:"secondary_unit_id" binding:"required"`
		CombinedCode    string `json:"combined_code" binding:"required"`
		Notes           string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.CreatePair(c.Request.Context(), &dto.CreatePairInput{
		PrimaryUnitID:   req.PrimaryUnitID,
		SecondaryUnitID: req.SecondaryUnitID,
		CombinedCode:    req.CombinedCode,
		Notes:           req.Notes,
		ActorID:         auth.ActorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

func (h *PairHandler) Reserve(c *gin.Context) {
	var req struct {
		ReservationKey string `json:"reservation_key" binding:"required"`
		TTLSeconds     int    `json:"ttl_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.ReservePair(c.Request.Context(), &dto.ReservePairInput{
		PairID:         c.Param("id"),
		ReservationKey: req.ReservationKey,
		TTLSeconds:     req.TTLSeconds,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *PairHandler) Release(c *gin.Context) {
	if err := h.uc.ReleasePair(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}

func (h *PairHandler) Resolve(c *gin.Context) {
	p, err := h.uc.ResolveByCombinedCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *PairHandler) ReleaseByKey(c *gin.Context) {
	released, err := h.uc.ReleasePairByReservationKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *PairHandler) Sell(c *gin.Context) {
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

	p, err := h.uc.SellPair(c.Request.Context(), &dto.SellPairInput{
		PairID:     c.Param("id"),
		OrderID:    req.OrderID,
		BillID:     req.BillID,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
		ActorID:    auth.ActorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *PairHandler) Dismantle(c *gin.Context) {
	if err := h.uc.DismantlePair(c.Request.Context(), c.Param("id"), auth.ActorID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismantled": true})
}

func (h *PairHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pair.ErrPairNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pair.ErrComponentUnavailable),
		errors.Is(err, pair.ErrAlreadyPaired),
		errors.Is(err, pair.ErrPairNotAvailable),
		errors.Is(err, pair.ErrCannotDismantleSold),
		errors.Is(err, pair.ErrDuplicateCombinedCode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("pair request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
