package models

import "time"

// Review is a customer rating of a restaurant. One review per customer
// per restaurant, and only after having ordered there.
type Review struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_review_once"`
	Restaurant   Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CustomerID   uint       `json:"customer_id" gorm:"not null;uniqueIndex:idx_review_once"`
	Customer     User       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Stars        int        `json:"stars" gorm:"not null"`
	Body         string     `json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
