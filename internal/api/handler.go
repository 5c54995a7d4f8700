package api

import (
	"net/http"
	"strconv"
	"time"

	"commerce-api/internal/models"
	"commerce-api/internal/service"
	"commerce-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orders    *service.OrderService
	products  *service.ProductService
	customers *service.CustomerService
	auth      *service.AuthService
	jwtCfg    JWTConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, products *service.ProductService, customers *service.CustomerService, auth *service.AuthService, jwtCfg JWTConfig) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		customers: customers,
		auth:      auth,
		jwtCfg:    jwtCfg,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine, rateRPS float64, rateBurst int) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(corsMiddleware())
	router.Use(rateLimitMiddleware(rateRPS, rateBurst))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)

		// Catalog browsing is open to everyone.
		v1.GET("/products", h.searchProducts)
		v1.GET("/products/sku/:sku", h.getProductBySKU)
		v1.GET("/products/:id", h.getProduct)

		authed := v1.Group("", authRequired(h.jwtCfg))
		{
			authed.POST("/orders", h.createOrder)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/count", h.orderCount)
			authed.GET("/orders/:id", h.getOrder)
			authed.PUT("/orders/:id/status", requireRole(models.RoleAdmin), h.updateOrderStatus)

			authed.POST("/customers", requireRole(models.RoleAdmin), h.createCustomer)
			authed.GET("/customers", requireRole(models.RoleAdmin), h.listCustomers)
			authed.GET("/customers/:id", h.getCustomer)

			authed.POST("/products", requireRole(models.RoleAdmin), h.createProduct)
			authed.PUT("/products/:id", requireRole(models.RoleAdmin), h.updateProduct)
			authed.PATCH("/products/:id", requireRole(models.RoleAdmin), h.toggleProduct)
			authed.DELETE("/products/:id", requireRole(models.RoleAdmin), h.deleteProduct)
		}
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

// statusFromError maps the service error taxonomy to HTTP status
// codes. Pure function; the only place the mapping lives.
func statusFromError(err error) int {
	switch service.KindOf(err) {
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrEmptyOrder, service.ErrInsufficientStock:
		return http.StatusUnprocessableEntity
	case service.ErrInvalidArgument, service.ErrInvalidStatus:
		return http.StatusBadRequest
	case service.ErrDuplicateEntity:
		return http.StatusConflict
	case service.ErrUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		util.GetLogger().Error("Request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// createOrder handles order placement
func (h *Handler) createOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	summary, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	summary, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// listOrders handles filtered, optionally paginated order listing
func (h *Handler) listOrders(c *gin.Context) {
	var filter models.OrderFilter

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer ID"})
			return
		}
		filter.CustomerID = &id
	}
	filter.CustomerName = c.Query("customer_name")
	filter.Page = intQuery(c, "page")
	filter.PageSize = intQuery(c, "page_size")

	list, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// orderCount handles the order count endpoint
func (h *Handler) orderCount(c *gin.Context) {
	count, err := h.orders.CountOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// updateOrderStatus handles order status transitions (admin only)
func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	summary, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// intQuery parses an optional positive integer query parameter.
func intQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil
	}
	return &v
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
