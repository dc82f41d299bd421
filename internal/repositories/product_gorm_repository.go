package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.ID, err)
	}
	return nil
}

// Update replaces every column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("*").
		Omit("id").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s for update: %w", product.ID, errs.ErrNotFound)
	}
	return nil
}

// GORMAuthorizationRepository is a GORM implementation of AuthorizationRepository.
type GORMAuthorizationRepository struct {
	db *gorm.DB
}

// Get reports whether identity holds a true authorization entry.
func (r *GORMAuthorizationRepository) Get(ctx context.Context, identity models.Identity) (bool, error) {
	var entries []models.Authorization
	if err := r.db.WithContext(ctx).Where("identity = ?", identity).Limit(1).Find(&entries).Error; err != nil {
		return false, fmt.Errorf("failed to get authorization for %s: %w", identity, err)
	}
	return len(entries) == 1 && entries[0].Authorized, nil
}

// Set upserts the authorization entry for identity.
func (r *GORMAuthorizationRepository) Set(ctx context.Context, identity models.Identity, authorized bool, at time.Time) error {
	entry := models.Authorization{Identity: identity, Authorized: authorized, ChangedAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"authorized", "changed_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set authorization for %s: %w", identity, err)
	}
	return nil
}
