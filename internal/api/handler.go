package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"commerce-service/internal/apperr"
	"commerce-service/internal/gateway"
	"commerce-service/internal/service"
	"commerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	jwtSecret      string
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService, paymentService *service.PaymentService, jwtSecret string) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
		jwtSecret:      jwtSecret,
		logger:         util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// The gateway cannot present caller credentials; the webhook endpoint
	// authenticates deliveries by signature instead.
	v1.POST("/payments/webhook", h.paymentWebhook)

	authed := v1.Group("")
	authed.Use(authMiddleware(h.jwtSecret))
	{
		authed.POST("/orders/create", h.createOrder)
		authed.POST("/orders/:id/cancel", h.cancelOrder)
		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/:id", h.getOrder)

		authed.POST("/payments/create-session", h.createPaymentSession)
		authed.POST("/payments/process-card-payment", h.processCardPayment)
		authed.POST("/payments/verify-otp", h.verifyOTP)
		authed.GET("/payments/status/:gateway_order_id", h.paymentStatus)
		authed.GET("/payments/sessions", h.listPaymentSessions)
		authed.GET("/payments/sessions/:id", h.getPaymentSession)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps an application error onto the response envelope
func (h *Handler) respondError(c *gin.Context, err error) {
	ae := apperr.FromError(err)
	if ae.Code == apperr.CodeInternal {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{
		"success": false,
		"code":    ae.Code,
		"message": ae.Message,
	}
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	if ae.Retryable() {
		body["retryable"] = true
	}
	c.JSON(ae.HTTPStatus(), body)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"errors":  gin.H{"body": err.Error()},
		})
		return
	}

	order, items, err := h.orderService.CreateOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"order":   order,
		"items":   items,
	})
}

// cancelOrder handles order cancellation
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order ID"})
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

// listOrders handles listing the caller's orders
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order ID"})
		return
	}

	order, items, history, err := h.orderService.GetOrder(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"order":          order,
		"items":          items,
		"status_history": history,
	})
}

type createSessionRequest struct {
	OrderID   int64  `json:"order_id" binding:"required"`
	ReturnURL string `json:"return_url"`
	NotifyURL string `json:"notify_url"`
}

// createPaymentSession handles payment session creation
func (h *Handler) createPaymentSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"errors":  gin.H{"body": err.Error()},
		})
		return
	}

	result, err := h.paymentService.CreateSession(c.Request.Context(), currentUserID(c), req.OrderID, req.ReturnURL, req.NotifyURL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "Payment session created successfully"
	if result.Reused {
		message = "Payment session already exists"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    result,
	})
}

type cardPaymentRequest struct {
	PaymentSessionID string       `json:"payment_session_id" binding:"required"`
	CardData         gateway.Card `json:"card_data"`
}

// processCardPayment handles card submission
func (h *Handler) processCardPayment(c *gin.Context) {
	var req cardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"errors":  gin.H{"body": err.Error()},
		})
		return
	}

	result, err := h.paymentService.ProcessCardPayment(c.Request.Context(), currentUserID(c), req.PaymentSessionID, req.CardData)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

type verifyOTPRequest struct {
	OTPURL           string `json:"otp_url" binding:"required"`
	OTP              string `json:"otp" binding:"required"`
	PaymentSessionID string `json:"payment_session_id" binding:"required"`
}

// verifyOTP handles step-up OTP verification
func (h *Handler) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"errors":  gin.H{"body": err.Error()},
		})
		return
	}

	result, err := h.paymentService.VerifyOTP(c.Request.Context(), currentUserID(c), req.OTPURL, req.OTP, req.PaymentSessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// paymentStatus handles client-initiated status polls
func (h *Handler) paymentStatus(c *gin.Context) {
	gatewayOrderID := c.Param("gateway_order_id")

	result, err := h.paymentService.PollStatus(c.Request.Context(), currentUserID(c), gatewayOrderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// listPaymentSessions lists the caller's payment sessions
func (h *Handler) listPaymentSessions(c *gin.Context) {
	sessions, err := h.paymentService.ListSessions(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
	})
}

// getPaymentSession retrieves one of the caller's payment sessions
func (h *Handler) getPaymentSession(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid session ID"})
		return
	}

	session, err := h.paymentService.GetSession(c.Request.Context(), currentUserID(c), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session,
	})
}

// paymentWebhook ingests gateway webhook deliveries. The sender cannot act
// on an error response, so everything past signature verification answers
// 200.
func (h *Handler) paymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unreadable body"})
		return
	}

	timestamp := c.GetHeader("x-webhook-timestamp")
	signature := c.GetHeader("x-webhook-signature")

	if err := h.paymentService.IngestWebhook(c.Request.Context(), body, timestamp, signature); err != nil {
		ae := apperr.FromError(err)
		if ae.Code == apperr.CodeUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid signature"})
			return
		}
		if ae.Code == apperr.CodeValidation {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": ae.Message})
			return
		}
		h.logger.Error("Webhook ingestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
