package models

import "time"

// OrderStatus represents the delivery pipeline position of an order.
// The pipeline is linear: pending → in process → sent → delivered.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusInProcess OrderStatus = "in process"
	StatusSent      OrderStatus = "sent"
	StatusDelivered OrderStatus = "delivered"
)

// AllStatuses lists the pipeline in order, pending first.
var AllStatuses = []OrderStatus{StatusPending, StatusInProcess, StatusSent, StatusDelivered}

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Code         string      `json:"code" gorm:"uniqueIndex;not null"` // public reference
	UserID       uint        `json:"user_id" gorm:"not null;index"`    // placing customer, immutable
	Customer     User        `json:"customer,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null;index"` // immutable
	Restaurant   Restaurant  `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'pending'"`

	// Each stamp is set when the order enters the matching status and
	// cleared again when the status is backed out of.
	StartedAt   *time.Time `json:"started_at"`
	SentAt      *time.Time `json:"sent_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Price         float64     `json:"price"`
	ShippingCosts float64     `json:"shipping_costs"`
	Address       string      `json:"address" gorm:"not null"`
	Items         []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`

	// Version guards the read-modify-write cycle on status transitions.
	Version   uint      `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"not null;index"`
	ProductID uint    `json:"product_id" gorm:"not null"`
	Product   Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"` // snapshot price at time of order
}
