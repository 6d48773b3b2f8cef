package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"deliverus-api/middleware"
	"deliverus-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle service over HTTP.
type OrderHandler struct {
	svc *service.OrderService
	log *zap.Logger
}

func NewOrderHandler(svc *service.OrderService, log *zap.Logger) *OrderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{svc: svc, log: log}
}

type OrderLineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	RestaurantID uint               `json:"restaurant_id" binding:"required"`
	Address      string             `json:"address" binding:"required"`
	Products     []OrderLineRequest `json:"products" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Address  string             `json:"address" binding:"required"`
	Products []OrderLineRequest `json:"products" binding:"required,min=1,dive"`
}

// CreateOrder places a new order (customer only)
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.Create(c.Request.Context(), middleware.GetActor(c), service.CreateOrderInput{
		RestaurantID: req.RestaurantID,
		Address:      req.Address,
		Items:        toLines(req.Products),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// GetMyOrders returns all orders of the logged-in customer
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.svc.ListForCustomer(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrder returns a single order if the caller may see it
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.svc.Get(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetRestaurantOrders returns a restaurant's orders for its owner,
// ordered by status along the pipeline
func (h *OrderHandler) GetRestaurantOrders(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid restaurant id"})
		return
	}
	orders, err := h.svc.ListForRestaurant(c.Request.Context(), middleware.GetActor(c), uint(restaurantID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// UpdateOrder edits a pending order (customer only)
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	order, err := h.svc.Update(c.Request.Context(), middleware.GetActor(c), orderID, service.UpdateOrderInput{
		Address: req.Address,
		Items:   toLines(req.Products),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "order": order})
}

// DeleteOrder removes a pending order (customer only)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	if err := h.svc.Destroy(c.Request.Context(), middleware.GetActor(c), orderID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// ForwardOrder advances the order one status (owner only)
func (h *OrderHandler) ForwardOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.svc.Forward(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status advanced", "order": order})
}

// BackwardOrder reverts the last transition within the undo window (owner only)
func (h *OrderHandler) BackwardOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.svc.Backward(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status reverted", "order": order})
}

func (h *OrderHandler) orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the service taxonomy to response codes. Anything
// outside the taxonomy is an internal failure: logged, never swallowed.
func (h *OrderHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("order operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func toLines(reqs []OrderLineRequest) []service.OrderLineInput {
	lines := make([]service.OrderLineInput, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, service.OrderLineInput{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return lines
}
