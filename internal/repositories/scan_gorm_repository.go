package repositories

import (
	"context"
	"errors"
	"fmt"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"

	"gorm.io/gorm"
)

// GORMScanRepository is a GORM implementation of ScanRepository.
type GORMScanRepository struct {
	db *gorm.DB
}

// NewGORMScanRepository creates a new instance of GORMScanRepository.
func NewGORMScanRepository(db *gorm.DB) *GORMScanRepository {
	return &GORMScanRepository{
		db: db,
	}
}

// Get retrieves the scan record of productID by identity.
func (r *GORMScanRepository) Get(ctx context.Context, identity models.Identity, productID string) (*models.Scan, error) {
	var scan models.Scan
	err := r.db.WithContext(ctx).
		Where("identity = ? AND product_id = ?", identity, productID).
		First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("scan of %s by %s: %w", productID, identity, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scan of %s by %s: %w", productID, identity, err)
	}
	return &scan, nil
}

// Create inserts a new scan record.
func (r *GORMScanRepository) Create(ctx context.Context, scan *models.Scan) error {
	if err := r.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("failed to create scan of %s by %s: %w", scan.ProductID, scan.Identity, err)
	}
	return nil
}

// Update overwrites the mutable columns of an existing scan record.
func (r *GORMScanRepository) Update(ctx context.Context, scan *models.Scan) error {
	res := r.db.WithContext(ctx).Model(&models.Scan{}).
		Where("identity = ? AND product_id = ?", scan.Identity, scan.ProductID).
		Select("rating", "notes", "is_favorite", "timestamp").
		Updates(scan)
	if res.Error != nil {
		return fmt.Errorf("failed to update scan of %s by %s: %w", scan.ProductID, scan.Identity, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("scan of %s by %s for update: %w", scan.ProductID, scan.Identity, errs.ErrNotFound)
	}
	return nil
}

// ListByIdentity returns the scans of identity ordered by product ID.
func (r *GORMScanRepository) ListByIdentity(ctx context.Context, identity models.Identity, favoritesOnly bool) ([]models.Scan, error) {
	q := r.db.WithContext(ctx).Where("identity = ?", identity)
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	var scans []models.Scan
	if err := q.Order("product_id").Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans of %s: %w", identity, err)
	}
	return scans, nil
}
