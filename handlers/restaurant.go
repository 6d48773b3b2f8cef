package handlers

import (
	"net/http"

	"deliverus-api/config"
	"deliverus-api/middleware"
	"deliverus-api/models"

	"github.com/gin-gonic/gin"
)

// ── Restaurant Management ────────────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Address       string  `json:"address" binding:"required"`
	PostalCode    string  `json:"postal_code"`
	ShippingCosts float64 `json:"shipping_costs" binding:"gte=0"`
}

// CreateRestaurant lets an owner-role user create a restaurant
func CreateRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	restaurant := models.Restaurant{
		UserID:        ownerID,
		Name:          req.Name,
		Description:   req.Description,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		ShippingCosts: req.ShippingCosts,
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create restaurant"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

// GetMyRestaurants fetches the restaurants owned by the logged-in user
func GetMyRestaurants(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurants []models.Restaurant
	config.DB.Preload("Products").Where("user_id = ?", ownerID).Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// UpdateRestaurant updates restaurant details
func UpdateRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	if restaurant.UserID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This restaurant does not belong to you"})
		return
	}
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	// Only allow safe fields; ownership is immutable
	allowed := map[string]bool{"name": true, "description": true, "address": true, "postal_code": true, "shipping_costs": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	config.DB.Model(&restaurant).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// ── Product Management ──────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

// AddProduct adds a new product to a restaurant's catalogue
func AddProduct(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	if restaurant.UserID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This restaurant does not belong to you"})
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Availability: true,
	}
	if err := config.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added", "product": product})
}

// UpdateProduct updates a product (only by the restaurant owner)
func UpdateProduct(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	productID := c.Param("productId")

	var product models.Product
	if err := config.DB.First(&product, productID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Verify ownership via the owning restaurant
	var restaurant models.Restaurant
	if err := config.DB.Where("id = ? AND user_id = ?", product.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this product"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	allowed := map[string]bool{"name": true, "description": true, "price": true, "availability": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	config.DB.Model(&product).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

// DeleteProduct removes a product
func DeleteProduct(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	productID := c.Param("productId")

	var product models.Product
	if err := config.DB.First(&product, productID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	var restaurant models.Restaurant
	if err := config.DB.Where("id = ? AND user_id = ?", product.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this product"})
		return
	}
	config.DB.Delete(&product)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
