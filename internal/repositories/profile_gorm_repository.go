package repositories

import (
	"context"
	"errors"
	"fmt"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"

	"gorm.io/gorm"
)

// GORMProfileRepository is a GORM implementation of ProfileRepository.
type GORMProfileRepository struct {
	db *gorm.DB
}

// NewGORMProfileRepository creates a new instance of GORMProfileRepository.
func NewGORMProfileRepository(db *gorm.DB) *GORMProfileRepository {
	return &GORMProfileRepository{
		db: db,
	}
}

// GetByIdentity retrieves the profile owned by identity.
func (r *GORMProfileRepository) GetByIdentity(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "identity = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile of %s: %w", identity, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile of %s: %w", identity, err)
	}
	return &profile, nil
}

// Create inserts a new profile.
func (r *GORMProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile of %s: %w", profile.Identity, err)
	}
	return nil
}

// Update replaces every column of an existing profile.
func (r *GORMProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("identity = ?", profile.Identity).
		Select("*").
		Omit("identity").
		Updates(profile)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile of %s: %w", profile.Identity, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("profile of %s for update: %w", profile.Identity, errs.ErrNotFound)
	}
	return nil
}
