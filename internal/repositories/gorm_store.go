package repositories

import (
	"context"
	"fmt"

	"nutriregistry/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db: db,
	}
}

// AutoMigrate creates or updates the registry tables.
func (s *GORMStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate registry tables: %w", err)
	}
	return nil
}

func (s *GORMStore) Products() ProductRepository {
	return NewGORMProductRepository(s.db)
}

func (s *GORMStore) Authorizations() AuthorizationRepository {
	return &GORMAuthorizationRepository{db: s.db}
}

func (s *GORMStore) Profiles() ProfileRepository {
	return NewGORMProfileRepository(s.db)
}

func (s *GORMStore) Scans() ScanRepository {
	return NewGORMScanRepository(s.db)
}

func (s *GORMStore) Counters() CounterRepository {
	return &GORMCounterRepository{db: s.db}
}

// Transaction runs fn inside a database transaction. A nested call opens a
// savepoint on the outer transaction.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}

// GORMCounterRepository is a GORM implementation of CounterRepository.
// Increments and decrements are single SQL statements so concurrent callers
// never lose an update.
type GORMCounterRepository struct {
	db *gorm.DB
}

// Get returns the counter value, zero when it was never written.
func (r *GORMCounterRepository) Get(ctx context.Context, name string) (uint64, error) {
	var counters []models.Counter
	if err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&counters).Error; err != nil {
		return 0, fmt.Errorf("failed to get counter %s: %w", name, err)
	}
	if len(counters) == 0 {
		return 0, nil
	}
	return counters[0].Value, nil
}

// Add applies delta to the counter, flooring at zero.
func (r *GORMCounterRepository) Add(ctx context.Context, name string, delta int64) error {
	db := r.db.WithContext(ctx)
	if delta >= 0 {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("counters.value + ?", delta)}),
		}).Create(&models.Counter{Name: name, Value: uint64(delta)}).Error
		if err != nil {
			return fmt.Errorf("failed to increment counter %s: %w", name, err)
		}
		return nil
	}

	n := -delta
	err := db.Model(&models.Counter{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("CASE WHEN value > ? THEN value - ? ELSE 0 END", n, n)).Error
	if err != nil {
		return fmt.Errorf("failed to decrement counter %s: %w", name, err)
	}
	return nil
}
