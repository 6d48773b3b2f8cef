package store

import (
	"context"
	"errors"

	"deliverus-api/models"
	"deliverus-api/service"

	"gorm.io/gorm"
)

// GormOrderStore persists orders through gorm. Status transitions use an
// optimistic version check instead of row locks; sqlite has no
// SELECT ... FOR UPDATE.
type GormOrderStore struct {
	db *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

func (s *GormOrderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Restaurant").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormOrderStore) FindByCustomer(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *GormOrderStore) FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Customer").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *GormOrderStore) Create(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// Update persists the order guarded by its loaded version. Zero rows
// affected means another writer won the race since our load.
func (s *GormOrderStore) Update(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"status":       order.Status,
				"started_at":   order.StartedAt,
				"sent_at":      order.SentAt,
				"delivered_at": order.DeliveredAt,
				"price":        order.Price,
				"address":      order.Address,
				"version":      order.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return service.ErrStaleWrite
		}
		order.Version++
		if order.Items != nil {
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			for i := range order.Items {
				order.Items[i].ID = 0
				order.Items[i].OrderID = order.ID
				order.Items[i].Product = models.Product{}
			}
			if err := tx.Create(&order.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormOrderStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return service.ErrNotFound
		}
		return nil
	})
}

// GormRestaurantStore resolves restaurants with their product catalogue.
type GormRestaurantStore struct {
	db *gorm.DB
}

func NewGormRestaurantStore(db *gorm.DB) *GormRestaurantStore {
	return &GormRestaurantStore{db: db}
}

func (s *GormRestaurantStore) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Preload("Products").First(&restaurant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}
