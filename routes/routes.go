package routes

import (
	"deliverus-api/handlers"
	"deliverus-api/middleware"
	"deliverus-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, orders *handlers.OrderHandler) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Restaurants, catalogue & reviews (no auth needed)
		public.GET("/restaurants", handlers.ListRestaurants)
		public.GET("/restaurants/:id", handlers.GetRestaurant)
		public.GET("/restaurants/:id/products", handlers.GetRestaurantProducts)
		public.GET("/restaurants/:id/reviews", handlers.ListReviews)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)

		// Order detail is visible to its customer and the restaurant owner
		auth.GET("/orders/:orderId", orders.GetOrder)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/orders", orders.CreateOrder)
		customer.GET("/orders", orders.GetMyOrders)
		customer.PUT("/orders/:orderId", orders.UpdateOrder)
		customer.DELETE("/orders/:orderId", orders.DeleteOrder)

		customer.POST("/restaurants/:id/reviews", handlers.CreateReview)
		customer.PUT("/restaurants/:id/reviews/:reviewId", handlers.UpdateReview)
		customer.DELETE("/restaurants/:id/reviews/:reviewId", handlers.DeleteReview)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	owner := r.Group("/api")
	owner.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleOwner))
	{
		// Restaurant management
		owner.POST("/restaurants", handlers.CreateRestaurant)
		owner.GET("/my-restaurants", handlers.GetMyRestaurants)
		owner.PUT("/restaurants/:id", handlers.UpdateRestaurant)

		// Catalogue management
		owner.POST("/restaurants/:id/products", handlers.AddProduct)
		owner.PUT("/products/:productId", handlers.UpdateProduct)
		owner.DELETE("/products/:productId", handlers.DeleteProduct)

		// Order pipeline
		owner.GET("/restaurants/:id/orders", orders.GetRestaurantOrders)
		owner.PATCH("/orders/:orderId/forward", orders.ForwardOrder)
		owner.PATCH("/orders/:orderId/backward", orders.BackwardOrder)
	}
}
