package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/payment"
	"github.com/arkapos/stockunit-service/internal/payment/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type PaymentHandler struct {
	uc     payment.UseCase
	logger pkglogger.ZapLogger
}

func NewPaymentHandler(uc payment.UseCase, log pkglogger.ZapLogger) *PaymentHandler {
	return &PaymentHandler{uc: uc, logger: log}
}

func (h *PaymentHandler) MapRoutes(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// MapBillRoutes attaches the bill-scoped endpoints.
func (h *PaymentHandler) MapBillRoutes(g *gin.RouterGroup) {
	g.POST("/:id/recompute", h.Recompute)
	g.GET("/:id/entries", h.ListEntries)
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req struct {
		BillID      string     `json:"bill_id" binding:"required"`
		CustomerID  string     `json:"customer_id"`
		Amount      float64    `json:"amount" binding:"required"`
		Method      string     `json:"method" binding:"required"`
		PaymentDate *time.Time `json:"payment_date"`
		Reference   string     `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.uc.CreatePaymentEntry(c.Request.Context(), &dto.CreatePaymentInput{
		BillID:      req.BillID,
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Method:      req.Method,
		PaymentDate: req.PaymentDate,
		Reference:   req.Reference,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": entry})
}

func (h *PaymentHandler) Update(c *gin.Context) {
	var req struct {
		Amount      *float64   `json:"amount"`
		Method      *string    `json:"method"`
		PaymentDate *time.Time `json:"payment_date"`
		Reference   *string    `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.uc.UpdatePaymentEntry(c.Request.Context(), c.Param("id"), &dto.UpdatePaymentInput{
		Amount:      req.Amount,
		Method:      req.Method,
		PaymentDate: req.PaymentDate,
		Reference:   req.Reference,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.uc.DeletePaymentEntry(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *PaymentHandler) ListEntries(c *gin.Context) {
	entries, err := h.uc.ListPaymentEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *PaymentHandler) Recompute(c *gin.Context) {
	bill, err := h.uc.RecomputeBillStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bill})
}

func (h *PaymentHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrBillNotFound), errors.Is(err, payment.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrAlreadyPaid), errors.Is(err, payment.ErrOverpaymentRejected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("payment request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
