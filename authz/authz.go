package authz

import "deliverus-api/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role models.UserRole
}

// capability answers view/mutate questions for one role. Ownership of the
// order's restaurant is passed in so the gate stays free of store lookups.
type capability interface {
	canView(actor Actor, order *models.Order, restaurantOwnerID uint) bool
	canMutate(actor Actor, order *models.Order, restaurantOwnerID uint) bool
}

// ownerCapability: owners see and drive only orders of their own restaurant.
type ownerCapability struct{}

func (ownerCapability) canView(actor Actor, _ *models.Order, restaurantOwnerID uint) bool {
	return actor.ID == restaurantOwnerID
}

func (ownerCapability) canMutate(actor Actor, _ *models.Order, restaurantOwnerID uint) bool {
	return actor.ID == restaurantOwnerID
}

// customerCapability: customers see and edit only orders they placed.
// The pending-only restriction on edits belongs to the lifecycle service,
// not to the gate.
type customerCapability struct{}

func (customerCapability) canView(actor Actor, order *models.Order, _ uint) bool {
	return actor.ID == order.UserID
}

func (customerCapability) canMutate(actor Actor, order *models.Order, _ uint) bool {
	return actor.ID == order.UserID
}

// Adding a role means adding one capability here, nothing else.
var capabilities = map[models.UserRole]capability{
	models.RoleOwner:    ownerCapability{},
	models.RoleCustomer: customerCapability{},
}

// CanView reports whether the actor may read the order.
func CanView(actor Actor, order *models.Order, restaurantOwnerID uint) bool {
	c, ok := capabilities[actor.Role]
	return ok && c.canView(actor, order, restaurantOwnerID)
}

// CanMutate reports whether the actor may change the order.
func CanMutate(actor Actor, order *models.Order, restaurantOwnerID uint) bool {
	c, ok := capabilities[actor.Role]
	return ok && c.canMutate(actor, order, restaurantOwnerID)
}
