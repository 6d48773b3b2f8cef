package handlers

import (
	"net/http"

	"deliverus-api/config"
	"deliverus-api/models"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns all restaurants (public)
func ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	query := config.DB

	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if postalCode := c.Query("postal_code"); postalCode != "" {
		query = query.Where("postal_code = ?", postalCode)
	}

	query.Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant with its product catalogue
func GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := config.DB.Preload("Products").First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetRestaurantProducts returns the catalogue for a restaurant (public)
func GetRestaurantProducts(c *gin.Context) {
	restaurantID := c.Param("id")
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, restaurantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var products []models.Product
	query := config.DB.Where("restaurant_id = ?", restaurantID)
	if c.Query("available") == "true" {
		query = query.Where("availability = ?", true)
	}
	query.Find(&products)

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"count":      len(products),
		"products":   products,
	})
}
