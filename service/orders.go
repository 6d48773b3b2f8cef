package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"deliverus-api/authz"
	"deliverus-api/metrics"
	"deliverus-api/models"
	"deliverus-api/statemachine"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence collaborator for orders. Update must be
// version-checked so that concurrent transitions on the same order cannot
// both win; a stale write returns ErrStaleWrite. A nil Items slice on
// Update means the order lines are unchanged.
type OrderStore interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByCustomer(ctx context.Context, userID uint) ([]models.Order, error)
	FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uint) error
}

// RestaurantStore resolves restaurants, products included, so ownership
// and line pricing can be derived.
type RestaurantStore interface {
	FindByID(ctx context.Context, id uint) (*models.Restaurant, error)
}

// OrderService orchestrates the authorization gate, the transition engine
// and the stores for every public order operation.
type OrderService struct {
	orders      OrderStore
	restaurants RestaurantStore
	clock       statemachine.Clock
	log         *zap.Logger
}

func NewOrderService(orders OrderStore, restaurants RestaurantStore, clock statemachine.Clock, log *zap.Logger) *OrderService {
	if clock == nil {
		clock = statemachine.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{orders: orders, restaurants: restaurants, clock: clock, log: log}
}

type OrderLineInput struct {
	ProductID uint
	Quantity  int
}

type CreateOrderInput struct {
	RestaurantID uint
	Address      string
	Items        []OrderLineInput
}

type UpdateOrderInput struct {
	Address string
	Items   []OrderLineInput
}

// Get returns an order the actor is allowed to see. A missing order is
// reported before ownership is even checked.
func (s *OrderService) Get(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	order, ownerID, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(actor, order, ownerID) {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListForCustomer returns the actor's own orders, newest first.
func (s *OrderService) ListForCustomer(ctx context.Context, actor authz.Actor) ([]models.Order, error) {
	if actor.Role != models.RoleCustomer {
		return nil, ErrForbidden
	}
	return s.orders.FindByCustomer(ctx, actor.ID)
}

// ListForRestaurant returns a restaurant's orders for its owner, ordered
// by pipeline position (pending first) and recency within a status.
func (s *OrderService) ListForRestaurant(ctx context.Context, actor authz.Actor, restaurantID uint) ([]models.Order, error) {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOwner || actor.ID != restaurant.UserID {
		return nil, ErrForbidden
	}
	orders, err := s.orders.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		pi, pj := statemachine.PipelinePosition(orders[i].Status), statemachine.PipelinePosition(orders[j].Status)
		if pi != pj {
			return pi < pj
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Create places a new pending order for the acting customer.
func (s *OrderService) Create(ctx context.Context, actor authz.Actor, in CreateOrderInput) (*models.Order, error) {
	if actor.Role != models.RoleCustomer {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.Address) == "" {
		return nil, validationf("address must not be empty")
	}
	if len(in.Items) == 0 {
		return nil, validationf("an order must contain at least one product")
	}
	restaurant, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	items, price, err := buildLines(restaurant, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Code:          uuid.NewString(),
		UserID:        actor.ID,
		RestaurantID:  restaurant.ID,
		Status:        models.StatusPending,
		Price:         price,
		ShippingCosts: restaurant.ShippingCosts,
		Address:       in.Address,
		Items:         items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	s.log.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("restaurant_id", order.RestaurantID),
		zap.Uint("customer_id", order.UserID))
	return order, nil
}

// Update edits a pending order's address and lines. Only the placing
// customer may edit, and only while the order has not been confirmed.
func (s *OrderService) Update(ctx context.Context, actor authz.Actor, orderID uint, in UpdateOrderInput) (*models.Order, error) {
	order, ownerID, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer || !authz.CanMutate(actor, order, ownerID) {
		return nil, ErrForbidden
	}
	if order.Status != models.StatusPending {
		return nil, conflictf("only pending orders can be edited")
	}
	if strings.TrimSpace(in.Address) == "" {
		return nil, validationf("address must not be empty")
	}
	if len(in.Items) == 0 {
		return nil, validationf("an order must contain at least one product")
	}
	restaurant, err := s.restaurants.FindByID(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}
	items, price, err := buildLines(restaurant, in.Items)
	if err != nil {
		return nil, err
	}

	order.Address = in.Address
	order.Items = items
	order.Price = price
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Destroy hard-deletes a pending order on behalf of its customer.
func (s *OrderService) Destroy(ctx context.Context, actor authz.Actor, orderID uint) error {
	order, ownerID, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleCustomer || !authz.CanMutate(actor, order, ownerID) {
		return ErrForbidden
	}
	if order.Status != models.StatusPending {
		return conflictf("only pending orders can be deleted")
	}
	return s.orders.Delete(ctx, order.ID)
}

// Forward advances the order one step along the pipeline. Owner only.
func (s *OrderService) Forward(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, orderID, "forward", statemachine.Advance)
}

// Backward reverts the last transition within the undo window. Owner only.
func (s *OrderService) Backward(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	return s.transition(ctx, actor, orderID, "backward", statemachine.Revert)
}

// Confirm moves a pending order into process.
func (s *OrderService) Confirm(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	return s.forwardFrom(ctx, actor, orderID, models.StatusPending)
}

// Send moves an in-process order to sent.
func (s *OrderService) Send(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	return s.forwardFrom(ctx, actor, orderID, models.StatusInProcess)
}

// Deliver moves a sent order to delivered.
func (s *OrderService) Deliver(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	return s.forwardFrom(ctx, actor, orderID, models.StatusSent)
}

// forwardFrom is Forward constrained to a named source status, so that
// confirm/send/deliver cannot silently apply a different transition than
// the caller asked for.
func (s *OrderService) forwardFrom(ctx context.Context, actor authz.Actor, orderID uint, from models.OrderStatus) (*models.Order, error) {
	order, ownerID, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOwner || !authz.CanMutate(actor, order, ownerID) {
		return nil, ErrForbidden
	}
	if order.Status != from {
		return nil, conflictf("the order is not %s", from)
	}
	return s.apply(ctx, order, "forward", statemachine.Advance)
}

func (s *OrderService) transition(ctx context.Context, actor authz.Actor, orderID uint, direction string, step func(*models.Order, time.Time) error) (*models.Order, error) {
	order, ownerID, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOwner || !authz.CanMutate(actor, order, ownerID) {
		return nil, ErrForbidden
	}
	return s.apply(ctx, order, direction, step)
}

func (s *OrderService) apply(ctx context.Context, order *models.Order, direction string, step func(*models.Order, time.Time) error) (*models.Order, error) {
	from := order.Status
	if err := step(order, s.clock.Now()); err != nil {
		if statemachine.IsConflict(err) {
			metrics.TransitionsRejected.WithLabelValues(direction, rejectionReason(err)).Inc()
			s.log.Info("transition rejected",
				zap.Uint("order_id", order.ID),
				zap.String("direction", direction),
				zap.String("status", string(from)),
				zap.Error(err))
			return nil, conflict(err)
		}
		return nil, err
	}
	// Transitions never touch the order lines; withhold them from the
	// store so it does not rewrite untouched rows.
	items := order.Items
	order.Items = nil
	err := s.orders.Update(ctx, order)
	order.Items = items
	if err != nil {
		if errors.Is(err, ErrStaleWrite) {
			metrics.TransitionsRejected.WithLabelValues(direction, "stale_write").Inc()
		}
		return nil, err
	}
	metrics.TransitionsApplied.WithLabelValues(direction, string(order.Status)).Inc()
	s.log.Info("order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("direction", direction),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)))
	return order, nil
}

// load fetches the order plus the owning user of its restaurant.
func (s *OrderService) load(ctx context.Context, orderID uint) (*models.Order, uint, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}
	restaurant, err := s.restaurants.FindByID(ctx, order.RestaurantID)
	if err != nil {
		return nil, 0, err
	}
	return order, restaurant.UserID, nil
}

// buildLines resolves the requested products against the restaurant's
// catalogue, snapshotting unit prices.
func buildLines(restaurant *models.Restaurant, lines []OrderLineInput) ([]models.OrderItem, float64, error) {
	catalogue := make(map[uint]models.Product, len(restaurant.Products))
	for _, p := range restaurant.Products {
		catalogue[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total float64
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, 0, validationf("product quantity must be at least 1")
		}
		product, ok := catalogue[line.ProductID]
		if !ok {
			return nil, 0, validationf("product %d does not belong to this restaurant", line.ProductID)
		}
		if !product.Availability {
			return nil, 0, validationf("product %q is not available", product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total += product.Price * float64(line.Quantity)
	}
	return items, total, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, statemachine.ErrAlreadyDelivered):
		return "already_delivered"
	case errors.Is(err, statemachine.ErrAlreadyPending):
		return "already_pending"
	case errors.Is(err, statemachine.ErrWindowExpired):
		return "window_expired"
	}
	return "unknown"
}
