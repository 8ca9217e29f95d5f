package ports

import (
	"context"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// RestaurantDirectory resolves a restaurant and its owner
type RestaurantDirectory interface {
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
}

// CustomerDirectory resolves a customer's contact details
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// DirectoryWriter upserts directory entries. Used by seeding and admin tooling.
type DirectoryWriter interface {
	PutRestaurant(ctx context.Context, r domain.Restaurant) error
	PutCustomer(ctx context.Context, c domain.Customer) error
}
