package services

import (
	"context"
	"errors"
	"fmt"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"

	"go.uber.org/zap"
)

// ScanInput describes one scan or consumption of a product.
type ScanInput struct {
	ProductID  string `json:"product_id" validate:"required,max=128"`
	Rating     int    `json:"rating" validate:"min=0,max=5"`
	Notes      string `json:"notes" validate:"max=500"`
	IsFavorite bool   `json:"is_favorite"`
}

// ScanStats summarizes the scanning activity of one identity.
type ScanStats struct {
	ScanCount          uint64 `json:"scan_count"`
	LastScannedProduct string `json:"last_scanned_product"`
}

// ScanHistoryRegistry keeps the latest scan of each (identity, product) pair
// and maintains the owning profile's scan count.
type ScanHistoryRegistry struct {
	registry
}

// NewScanHistoryRegistry creates a ScanHistoryRegistry. It shares store with
// the UserProfileRegistry whose profiles it counts scans against.
func NewScanHistoryRegistry(store repositories.Store, opts Options) *ScanHistoryRegistry {
	return &ScanHistoryRegistry{registry: newRegistry(store, opts)}
}

// RecordScan writes the caller's scan of a product. Only the first scan of a
// product increments the caller's scan count; later scans overwrite the record.
func (r *ScanHistoryRegistry) RecordScan(ctx context.Context, caller models.Identity, in ScanInput) (bool, error) {
	if err := validateInput(in); err != nil {
		return false, err
	}

	var (
		scan  models.Scan
		isNew bool
	)
	err := r.exclusive(ctx, profileLockKey(caller), func(tx repositories.Store) error {
		current, err := tx.Profiles().GetByIdentity(ctx, caller)
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: %s has no profile", errs.ErrPreconditionFailed, caller)
		}
		if err != nil {
			return err
		}
		if !current.Active {
			return fmt.Errorf("%w: profile of %s is deleted", errs.ErrPreconditionFailed, caller)
		}

		now := r.clock.Now()
		scan = models.Scan{
			Identity:   caller,
			ProductID:  in.ProductID,
			Rating:     in.Rating,
			Notes:      in.Notes,
			IsFavorite: in.IsFavorite,
			Timestamp:  now,
		}

		_, err = tx.Scans().Get(ctx, caller, in.ProductID)
		switch {
		case err == nil:
			if err := tx.Scans().Update(ctx, &scan); err != nil {
				return err
			}
		case errors.Is(err, errs.ErrNotFound):
			if err := tx.Scans().Create(ctx, &scan); err != nil {
				return err
			}
			if err := tx.Counters().Add(ctx, models.CounterTotalScans, 1); err != nil {
				return err
			}
			isNew = true
		default:
			return err
		}

		profile := *current
		if isNew {
			profile.ScanCount++
		}
		profile.LastScannedProduct = in.ProductID
		return tx.Profiles().Update(ctx, &profile)
	})
	if err != nil {
		r.log.Debug("record scan rejected",
			zap.String("identity", caller.String()),
			zap.String("product_id", in.ProductID),
			zap.Error(err))
		return false, err
	}

	r.log.Info("scan recorded",
		zap.String("identity", caller.String()),
		zap.String("product_id", in.ProductID),
		zap.Bool("new", isNew))
	r.publish(ctx, "scan.recorded", caller, in.ProductID, scan)
	return true, nil
}

// ToggleFavorite flips the favorite flag of the caller's scan of productID.
// It reports false when the caller never scanned the product.
func (r *ScanHistoryRegistry) ToggleFavorite(ctx context.Context, caller models.Identity, productID string) (bool, error) {
	var (
		toggled bool
		scan    models.Scan
	)
	err := r.exclusive(ctx, profileLockKey(caller), func(tx repositories.Store) error {
		current, err := tx.Scans().Get(ctx, caller, productID)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		scan = *current
		scan.IsFavorite = !scan.IsFavorite
		if err := tx.Scans().Update(ctx, &scan); err != nil {
			return err
		}
		toggled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if toggled {
		r.log.Info("favorite toggled",
			zap.String("identity", caller.String()),
			zap.String("product_id", productID),
			zap.Bool("is_favorite", scan.IsFavorite))
		r.publish(ctx, "scan.favorite_toggled", caller, productID, scan)
	}
	return toggled, nil
}

// GetScan returns the scan of productID by identity.
func (r *ScanHistoryRegistry) GetScan(ctx context.Context, identity models.Identity, productID string) (models.Scan, error) {
	scan, err := r.store.Scans().Get(ctx, identity, productID)
	if err != nil {
		return models.Scan{}, err
	}
	return *scan, nil
}

// GetScanCount returns the number of distinct products identity has scanned,
// 0 for unknown identities.
func (r *ScanHistoryRegistry) GetScanCount(ctx context.Context, identity models.Identity) (uint64, error) {
	stats, err := r.Stats(ctx, identity)
	return stats.ScanCount, err
}

// Stats returns the scan count and last scanned product of identity.
func (r *ScanHistoryRegistry) Stats(ctx context.Context, identity models.Identity) (ScanStats, error) {
	profile, err := r.store.Profiles().GetByIdentity(ctx, identity)
	if errors.Is(err, errs.ErrNotFound) {
		return ScanStats{}, nil
	}
	if err != nil {
		return ScanStats{}, err
	}
	return ScanStats{ScanCount: profile.ScanCount, LastScannedProduct: profile.LastScannedProduct}, nil
}

// LastScannedProduct returns the product identity scanned most recently, ""
// when it never scanned anything.
func (r *ScanHistoryRegistry) LastScannedProduct(ctx context.Context, identity models.Identity) (string, error) {
	stats, err := r.Stats(ctx, identity)
	return stats.LastScannedProduct, err
}

// ListScans returns the scan history of identity ordered by product ID.
func (r *ScanHistoryRegistry) ListScans(ctx context.Context, identity models.Identity) ([]models.Scan, error) {
	return r.store.Scans().ListByIdentity(ctx, identity, false)
}

// ListFavorites returns the scans of identity marked as favorite.
func (r *ScanHistoryRegistry) ListFavorites(ctx context.Context, identity models.Identity) ([]models.Scan, error) {
	return r.store.Scans().ListByIdentity(ctx, identity, true)
}

// TotalScans returns the number of distinct (identity, product) pairs scanned.
func (r *ScanHistoryRegistry) TotalScans(ctx context.Context) (uint64, error) {
	return r.store.Counters().Get(ctx, models.CounterTotalScans)
}
