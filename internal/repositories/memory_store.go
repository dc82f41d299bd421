package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"
)

type scanKey struct {
	identity  models.Identity
	productID string
}

type memoryData struct {
	products       map[string]models.Product
	authorizations map[models.Identity]models.Authorization
	profiles       map[models.Identity]models.Profile
	scans          map[scanKey]models.Scan
	counters       map[string]uint64
}

func newMemoryData() *memoryData {
	return &memoryData{
		products:       make(map[string]models.Product),
		authorizations: make(map[models.Identity]models.Authorization),
		profiles:       make(map[models.Identity]models.Profile),
		scans:          make(map[scanKey]models.Scan),
		counters:       make(map[string]uint64),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.authorizations {
		c.authorizations[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.scans {
		c.scans[k] = v
	}
	for k, v := range d.counters {
		c.counters[k] = v
	}
	return c
}

// MemoryStore is an in-memory implementation of Store. A transaction works on
// a private copy of the data that replaces the shared copy only on commit.
type MemoryStore struct {
	mu   *sync.RWMutex
	data *memoryData
	inTx bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:   &sync.RWMutex{},
		data: newMemoryData(),
	}
}

func (s *MemoryStore) Products() ProductRepository             { return memoryProducts{s} }
func (s *MemoryStore) Authorizations() AuthorizationRepository { return memoryAuthorizations{s} }
func (s *MemoryStore) Profiles() ProfileRepository             { return memoryProfiles{s} }
func (s *MemoryStore) Scans() ScanRepository                   { return memoryScans{s} }
func (s *MemoryStore) Counters() CounterRepository             { return memoryCounters{s} }

// Transaction runs fn against a copy of the data and publishes the copy when
// fn succeeds. Transactions are serialized and copy the whole dataset, so the
// store is meant for tests and local runs, not production traffic.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *MemoryStore) read(fn func(d *memoryData)) {
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.data)
}

func (s *MemoryStore) write(fn func(d *memoryData) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	var (
		product models.Product
		ok      bool
	)
	r.s.read(func(d *memoryData) { product, ok = d.products[id] })
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, errs.ErrNotFound)
	}
	return &product, nil
}

func (r memoryProducts) Create(_ context.Context, product *models.Product) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.products[product.ID]; ok {
			return fmt.Errorf("product with ID %s already exists", product.ID)
		}
		d.products[product.ID] = *product
		return nil
	})
}

func (r memoryProducts) Update(_ context.Context, product *models.Product) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.products[product.ID]; !ok {
			return fmt.Errorf("product with ID %s for update: %w", product.ID, errs.ErrNotFound)
		}
		d.products[product.ID] = *product
		return nil
	})
}

type memoryAuthorizations struct{ s *MemoryStore }

func (r memoryAuthorizations) Get(_ context.Context, identity models.Identity) (bool, error) {
	var authorized bool
	r.s.read(func(d *memoryData) { authorized = d.authorizations[identity].Authorized })
	return authorized, nil
}

func (r memoryAuthorizations) Set(_ context.Context, identity models.Identity, authorized bool, at time.Time) error {
	return r.s.write(func(d *memoryData) error {
		d.authorizations[identity] = models.Authorization{Identity: identity, Authorized: authorized, ChangedAt: at}
		return nil
	})
}

type memoryProfiles struct{ s *MemoryStore }

func (r memoryProfiles) GetByIdentity(_ context.Context, identity models.Identity) (*models.Profile, error) {
	var (
		profile models.Profile
		ok      bool
	)
	r.s.read(func(d *memoryData) { profile, ok = d.profiles[identity] })
	if !ok {
		return nil, fmt.Errorf("profile of %s: %w", identity, errs.ErrNotFound)
	}
	return &profile, nil
}

func (r memoryProfiles) Create(_ context.Context, profile *models.Profile) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.profiles[profile.Identity]; ok {
			return fmt.Errorf("profile of %s already exists", profile.Identity)
		}
		d.profiles[profile.Identity] = *profile
		return nil
	})
}

func (r memoryProfiles) Update(_ context.Context, profile *models.Profile) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.profiles[profile.Identity]; !ok {
			return fmt.Errorf("profile of %s for update: %w", profile.Identity, errs.ErrNotFound)
		}
		d.profiles[profile.Identity] = *profile
		return nil
	})
}

type memoryScans struct{ s *MemoryStore }

func (r memoryScans) Get(_ context.Context, identity models.Identity, productID string) (*models.Scan, error) {
	var (
		scan models.Scan
		ok   bool
	)
	r.s.read(func(d *memoryData) { scan, ok = d.scans[scanKey{identity, productID}] })
	if !ok {
		return nil, fmt.Errorf("scan of %s by %s: %w", productID, identity, errs.ErrNotFound)
	}
	return &scan, nil
}

func (r memoryScans) Create(_ context.Context, scan *models.Scan) error {
	key := scanKey{scan.Identity, scan.ProductID}
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.scans[key]; ok {
			return fmt.Errorf("scan of %s by %s already exists", scan.ProductID, scan.Identity)
		}
		d.scans[key] = *scan
		return nil
	})
}

func (r memoryScans) Update(_ context.Context, scan *models.Scan) error {
	key := scanKey{scan.Identity, scan.ProductID}
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.scans[key]; !ok {
			return fmt.Errorf("scan of %s by %s for update: %w", scan.ProductID, scan.Identity, errs.ErrNotFound)
		}
		d.scans[key] = *scan
		return nil
	})
}

func (r memoryScans) ListByIdentity(_ context.Context, identity models.Identity, favoritesOnly bool) ([]models.Scan, error) {
	scans := []models.Scan{}
	r.s.read(func(d *memoryData) {
		for k, scan := range d.scans {
			if k.identity != identity || (favoritesOnly && !scan.IsFavorite) {
				continue
			}
			scans = append(scans, scan)
		}
	})
	sort.Slice(scans, func(i, j int) bool { return scans[i].ProductID < scans[j].ProductID })
	return scans, nil
}

type memoryCounters struct{ s *MemoryStore }

func (r memoryCounters) Get(_ context.Context, name string) (uint64, error) {
	var v uint64
	r.s.read(func(d *memoryData) { v = d.counters[name] })
	return v, nil
}

func (r memoryCounters) Add(_ context.Context, name string, delta int64) error {
	return r.s.write(func(d *memoryData) error {
		cur := d.counters[name]
		switch {
		case delta >= 0:
			d.counters[name] = cur + uint64(delta)
		case uint64(-delta) >= cur:
			d.counters[name] = 0
		default:
			d.counters[name] = cur - uint64(-delta)
		}
		return nil
	})
}
