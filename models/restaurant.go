package models

import "time"

type Restaurant struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"not null;index"` // owning user, immutable
	Owner         User      `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description"`
	Address       string    `json:"address" gorm:"not null"`
	PostalCode    string    `json:"postal_code"`
	ShippingCosts float64   `json:"shipping_costs" gorm:"default:0"`
	Products      []Product `json:"products,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	Availability bool      `json:"availability" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
