package handlers

import (
	"net/http"

	"deliverus-api/config"
	"deliverus-api/middleware"
	"deliverus-api/models"

	"github.com/gin-gonic/gin"
)

// Stars is a pointer so a missing field is rejected while an explicit
// zero-star rating stays valid.
type ReviewRequest struct {
	Stars *int   `json:"stars" binding:"required,min=0,max=5"`
	Body  string `json:"body"`
}

// ListReviews returns a restaurant's reviews, newest first (public)
func ListReviews(c *gin.Context) {
	restaurantID := c.Param("id")
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, restaurantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	var reviews []models.Review
	config.DB.Where("restaurant_id = ?", restaurantID).Order("created_at desc").Find(&reviews)
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "reviews": reviews})
}

// CreateReview lets a customer review a restaurant they have ordered from,
// once. Customers only.
func CreateReview(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	restaurantID := c.Param("id")

	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, restaurantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var ordersCount int64
	config.DB.Model(&models.Order{}).
		Where("user_id = ? AND restaurant_id = ?", customerID, restaurant.ID).
		Count(&ordersCount)
	if ordersCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You cannot review this restaurant without orders"})
		return
	}

	var existing models.Review
	if err := config.DB.Where("restaurant_id = ? AND customer_id = ?", restaurant.ID, customerID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already reviewed this restaurant"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	review := models.Review{
		RestaurantID: restaurant.ID,
		CustomerID:   customerID,
		Stars:        *req.Stars,
		Body:         req.Body,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review created", "review": review})
}

// UpdateReview edits the caller's own review
func UpdateReview(c *gin.Context) {
	review, ok := loadOwnReview(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	config.DB.Model(review).Updates(map[string]interface{}{"stars": *req.Stars, "body": req.Body})
	c.JSON(http.StatusOK, gin.H{"message": "Review updated", "review": review})
}

// DeleteReview removes the caller's own review
func DeleteReview(c *gin.Context) {
	review, ok := loadOwnReview(c)
	if !ok {
		return
	}
	config.DB.Delete(review)
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// loadOwnReview fetches the review, checks it belongs to the restaurant in
// the path and to the calling customer.
func loadOwnReview(c *gin.Context) (*models.Review, bool) {
	var review models.Review
	if err := config.DB.First(&review, c.Param("reviewId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return nil, false
	}
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return nil, false
	}
	if review.RestaurantID != restaurant.ID {
		c.JSON(http.StatusConflict, gin.H{"error": "Review does not belong to the specified restaurant"})
		return nil, false
	}
	if review.CustomerID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this review"})
		return nil, false
	}
	return &review, true
}
