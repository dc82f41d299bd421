package repositories

import (
	"context"
	"time"

	"nutriregistry/internal/models"
)

// ProductRepository defines the interface for product data access.
// GetByID returns an error wrapping errs.ErrNotFound for unknown ids.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
}

// AuthorizationRepository stores the authorized-writer set.
// Get reports false for identities that were never recorded.
type AuthorizationRepository interface {
	Get(ctx context.Context, identity models.Identity) (bool, error)
	Set(ctx context.Context, identity models.Identity, authorized bool, at time.Time) error
}

// ProfileRepository defines the interface for user profile data access.
type ProfileRepository interface {
	GetByIdentity(ctx context.Context, identity models.Identity) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
}

// ScanRepository defines the interface for scan history data access.
type ScanRepository interface {
	Get(ctx context.Context, identity models.Identity, productID string) (*models.Scan, error)
	Create(ctx context.Context, scan *models.Scan) error
	Update(ctx context.Context, scan *models.Scan) error
	ListByIdentity(ctx context.Context, identity models.Identity, favoritesOnly bool) ([]models.Scan, error)
}

// CounterRepository keeps named tallies. Add floors the result at zero.
type CounterRepository interface {
	Get(ctx context.Context, name string) (uint64, error)
	Add(ctx context.Context, name string, delta int64) error
}

// Store is the keyed durable storage the registries run on. Every write made
// inside Transaction persists together, or none does when fn returns an error.
type Store interface {
	Products() ProductRepository
	Authorizations() AuthorizationRepository
	Profiles() ProfileRepository
	Scans() ScanRepository
	Counters() CounterRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
