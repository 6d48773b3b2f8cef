package service

import (
	"context"
	"testing"
	"time"

	"deliverus-api/authz"
	"deliverus-api/models"
	"deliverus-api/statemachine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests travel in time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// memOrderStore is an in-memory OrderStore with the same optimistic
// version semantics as the gorm store.
type memOrderStore struct {
	nextID uint
	orders map[uint]models.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{nextID: 1, orders: map[uint]models.Order{}}
}

func (s *memOrderStore) FindByID(_ context.Context, id uint) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (s *memOrderStore) FindByCustomer(_ context.Context, userID uint) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrderStore) FindByRestaurant(_ context.Context, restaurantID uint) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrderStore) Create(_ context.Context, order *models.Order) error {
	order.ID = s.nextID
	s.nextID++
	s.orders[order.ID] = *order
	return nil
}

func (s *memOrderStore) Update(_ context.Context, order *models.Order) error {
	current, ok := s.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != order.Version {
		return ErrStaleWrite
	}
	order.Version++
	s.orders[order.ID] = *order
	return nil
}

func (s *memOrderStore) Delete(_ context.Context, id uint) error {
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

type memRestaurantStore struct {
	restaurants map[uint]models.Restaurant
}

func (s *memRestaurantStore) FindByID(_ context.Context, id uint) (*models.Restaurant, error) {
	r, ok := s.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r
	return &cp, nil
}

// fixture wires a service over one restaurant (owner 20, a margherita and
// an unavailable calzone) and exposes the stores and clock for tests.
type fixture struct {
	svc    *OrderService
	orders *memOrderStore
	clock  *fakeClock
}

var (
	ownerA   = authz.Actor{ID: 20, Role: models.RoleOwner}
	ownerB   = authz.Actor{ID: 21, Role: models.RoleOwner}
	customer = authz.Actor{ID: 10, Role: models.RoleCustomer}
	stranger = authz.Actor{ID: 11, Role: models.RoleCustomer}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	restaurants := &memRestaurantStore{restaurants: map[uint]models.Restaurant{
		5: {
			ID: 5, UserID: ownerA.ID, Name: "Casa Felix", Address: "Calle Betis 1", ShippingCosts: 2.5,
			Products: []models.Product{
				{ID: 1, RestaurantID: 5, Name: "Margherita", Price: 8, Availability: true},
				{ID: 2, RestaurantID: 5, Name: "Calzone", Price: 10, Availability: false},
			},
		},
		6: {ID: 6, UserID: ownerB.ID, Name: "Burger Feast", Address: "Av. Reina Mercedes 2"},
	}}
	orders := newMemOrderStore()
	clock := &fakeClock{now: time.Date(2025, 10, 6, 12, 0, 0, 0, time.UTC)}
	return &fixture{
		svc:    NewOrderService(orders, restaurants, clock, nil),
		orders: orders,
		clock:  clock,
	}
}

func (f *fixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), customer, CreateOrderInput{
		RestaurantID: 5,
		Address:      "Calle Sierpes 3",
		Items:        []OrderLineInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	return order
}

func TestCreate_PlacesPendingOrderWithSnapshotPrices(t *testing.T) {
	f := newFixture(t)

	order := f.placeOrder(t)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Nil(t, order.StartedAt)
	assert.Nil(t, order.SentAt)
	assert.Nil(t, order.DeliveredAt)
	assert.Equal(t, 16.0, order.Price)
	assert.Equal(t, 2.5, order.ShippingCosts)
	assert.NotEmpty(t, order.Code)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 8.0, order.Items[0].UnitPrice)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, customer, CreateOrderInput{RestaurantID: 5, Address: " ", Items: []OrderLineInput{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Create(ctx, customer, CreateOrderInput{RestaurantID: 5, Address: "Calle Sierpes 3"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Create(ctx, customer, CreateOrderInput{RestaurantID: 5, Address: "Calle Sierpes 3", Items: []OrderLineInput{{ProductID: 2, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation, "unavailable product")

	_, err = f.svc.Create(ctx, customer, CreateOrderInput{RestaurantID: 5, Address: "Calle Sierpes 3", Items: []OrderLineInput{{ProductID: 99, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation, "foreign product")

	_, err = f.svc.Create(ctx, ownerA, CreateOrderInput{RestaurantID: 5, Address: "Calle Sierpes 3", Items: []OrderLineInput{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrForbidden, "owners do not place orders")
}

func TestForward_WalksPipelineAndStampsTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	order, err := f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProcess, order.Status)
	require.NotNil(t, order.StartedAt)
	assert.Equal(t, f.clock.now, *order.StartedAt)

	order, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, order.Status)
	assert.NotNil(t, order.SentAt)

	order, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)

	_, err = f.svc.Forward(ctx, ownerA, order.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, statemachine.ErrAlreadyDelivered)

	stored, _ := f.orders.FindByID(ctx, order.ID)
	assert.Equal(t, models.StatusDelivered, stored.Status, "failed transition leaves the order unchanged")
}

func TestForward_AuthorizationMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.svc.Forward(ctx, ownerB, order.ID)
	assert.ErrorIs(t, err, ErrForbidden, "owner of another restaurant")

	_, err = f.svc.Forward(ctx, customer, order.ID)
	assert.ErrorIs(t, err, ErrForbidden, "customers cannot drive the pipeline")

	_, err = f.svc.Forward(ctx, ownerA, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, _ := f.orders.FindByID(ctx, order.ID)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestBackward_PendingIsAConflict(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	_, err := f.svc.Backward(context.Background(), ownerA, order.ID)

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, statemachine.ErrAlreadyPending)
}

func TestBackward_WithinWindowRestoresPriorState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)

	f.clock.advance(3 * time.Minute)
	order, err = f.svc.Backward(ctx, ownerA, order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Nil(t, order.StartedAt)
}

func TestBackward_WindowBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	_, err := f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)

	// exactly five minutes is still allowed
	f.clock.advance(5 * time.Minute)
	order, err = f.svc.Backward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)

	// 301 seconds is not
	_, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	f.clock.advance(5*time.Minute + time.Second)
	_, err = f.svc.Backward(ctx, ownerA, order.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, statemachine.ErrWindowExpired)

	stored, _ := f.orders.FindByID(ctx, order.ID)
	assert.Equal(t, models.StatusInProcess, stored.Status)
	assert.NotNil(t, stored.StartedAt)
}

func TestBackward_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	_, err := f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Backward(ctx, customer, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Backward(ctx, ownerB, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConfirmSendDeliver_RequireTheirSourceStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.svc.Send(ctx, ownerA, order.ID)
	assert.ErrorIs(t, err, ErrConflict, "send requires in process")

	order, err = f.svc.Confirm(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProcess, order.Status)

	_, err = f.svc.Confirm(ctx, ownerA, order.ID)
	assert.ErrorIs(t, err, ErrConflict, "confirm requires pending")

	order, err = f.svc.Send(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, order.Status)

	order, err = f.svc.Deliver(ctx, ownerA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, order.Status)
}

func TestUpdate_PendingOnlyAndOwnOrderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	updated, err := f.svc.Update(ctx, customer, order.ID, UpdateOrderInput{
		Address: "Plaza Nueva 7",
		Items:   []OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Plaza Nueva 7", updated.Address)
	assert.Equal(t, 8.0, updated.Price)

	_, err = f.svc.Update(ctx, stranger, order.ID, UpdateOrderInput{Address: "x", Items: []OrderLineInput{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, customer, order.ID, UpdateOrderInput{Address: "x", Items: []OrderLineInput{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDestroy_PendingOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.placeOrder(t)
	require.NoError(t, f.svc.Destroy(ctx, customer, order.ID))
	_, err := f.svc.Get(ctx, customer, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	order = f.placeOrder(t)
	_, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)
	_, err = f.svc.Forward(ctx, ownerA, order.ID)
	require.NoError(t, err)

	err = f.svc.Destroy(ctx, customer, order.ID)
	assert.ErrorIs(t, err, ErrConflict, "sent orders cannot be deleted")

	err = f.svc.Destroy(ctx, ownerA, order.ID)
	assert.ErrorIs(t, err, ErrForbidden, "owners cannot delete orders")
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.svc.Get(ctx, customer, order.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, ownerA, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Get(ctx, ownerB, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, customer, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForRestaurant_OrderedByPipelinePosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delivered := f.placeOrder(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Forward(ctx, ownerA, delivered.ID)
		require.NoError(t, err)
	}
	sent := f.placeOrder(t)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Forward(ctx, ownerA, sent.ID)
		require.NoError(t, err)
	}
	inProcess := f.placeOrder(t)
	_, err := f.svc.Forward(ctx, ownerA, inProcess.ID)
	require.NoError(t, err)
	f.placeOrder(t) // pending

	orders, err := f.svc.ListForRestaurant(ctx, ownerA, 5)
	require.NoError(t, err)

	var statuses []models.OrderStatus
	for _, o := range orders {
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []models.OrderStatus{
		models.StatusPending, models.StatusInProcess, models.StatusSent, models.StatusDelivered,
	}, statuses)

	_, err = f.svc.ListForRestaurant(ctx, ownerB, 5)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ListForRestaurant(ctx, customer, 5)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTransition_StaleWriteSurfacesAsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	// Another writer bumps the version between our load and persist.
	racing, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.orders.Update(ctx, racing))

	stale := *order
	stale.Status = models.StatusInProcess
	err = f.orders.Update(ctx, &stale)
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.ErrorIs(t, err, ErrConflict)
}
