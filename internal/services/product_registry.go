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

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	ID           string `json:"product_id" validate:"required,max=128"`
	Name         string `json:"name" validate:"max=64"`
	Ingredients  string `json:"ingredients" validate:"max=500"`
	Region       string `json:"region" validate:"max=32"`
	Manufacturer string `json:"manufacturer" validate:"max=100"`
	Category     string `json:"category" validate:"max=64"`
	NutriScore   string `json:"nutri_score" validate:"omitempty,oneof=A+ A B+ B C+ C D E"`
	Allergens    string `json:"allergens" validate:"max=500"`
}

func (in ProductInput) apply(p *models.Product) {
	p.ID = in.ID
	p.Name = in.Name
	p.Ingredients = in.Ingredients
	p.Region = in.Region
	p.Manufacturer = in.Manufacturer
	p.Category = in.Category
	p.NutriScore = in.NutriScore
	p.Allergens = in.Allergens
}

// ProductRegistry is the owner/authorized-writer controlled product catalog.
// Every update bumps the product version by one.
type ProductRegistry struct {
	registry
	owner                models.Identity
	preserveDeactivation bool
}

// NewProductRegistry creates a ProductRegistry owned by owner.
func NewProductRegistry(store repositories.Store, owner models.Identity, opts Options) *ProductRegistry {
	return &ProductRegistry{
		registry:             newRegistry(store, opts),
		owner:                owner,
		preserveDeactivation: opts.PreserveDeactivation,
	}
}

// Owner returns the identity fixed at construction.
func (r *ProductRegistry) Owner() models.Identity {
	return r.owner
}

func productLockKey(id string) string { return "product:" + id }

func authorizationLockKey(identity models.Identity) string {
	return "authorization:" + string(identity)
}

// checkWriter fails with errs.ErrUnauthorized unless caller may write products.
func (r *ProductRegistry) checkWriter(ctx context.Context, tx repositories.Store, caller models.Identity, action string) error {
	if caller == r.owner {
		return nil
	}
	ok, err := tx.Authorizations().Get(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s may not %s", errs.ErrUnauthorized, caller, action)
	}
	return nil
}

func (r *ProductRegistry) checkOwner(caller models.Identity, action string) error {
	if caller != r.owner {
		return fmt.Errorf("%w: only the owner may %s", errs.ErrUnauthorized, action)
	}
	return nil
}

// AddProduct inserts a new product at version 1. It reports false when the
// id is already registered.
func (r *ProductRegistry) AddProduct(ctx context.Context, caller models.Identity, in ProductInput) (bool, error) {
	var (
		added   bool
		product models.Product
	)
	err := r.exclusive(ctx, productLockKey(in.ID), func(tx repositories.Store) error {
		if err := r.checkWriter(ctx, tx, caller, "add products"); err != nil {
			return err
		}
		if err := validateInput(in); err != nil {
			return err
		}

		_, err := tx.Products().GetByID(ctx, in.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		in.apply(&product)
		product.Version = 1
		product.LastModified = r.clock.Now()
		product.Active = true
		if err := tx.Products().Create(ctx, &product); err != nil {
			return err
		}
		if err := tx.Counters().Add(ctx, models.CounterTotalProducts, 1); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		r.log.Debug("add product rejected", zap.String("product_id", in.ID), zap.String("caller", caller.String()), zap.Error(err))
		return false, err
	}
	if added {
		r.log.Info("product added", zap.String("product_id", in.ID), zap.String("caller", caller.String()))
		r.publish(ctx, "product.added", caller, in.ID, product)
	}
	return added, nil
}

// UpdateProduct replaces the fields of an existing product and bumps its
// version. It reports false when the id is unknown.
func (r *ProductRegistry) UpdateProduct(ctx context.Context, caller models.Identity, in ProductInput) (bool, error) {
	var (
		updated bool
		product models.Product
	)
	err := r.exclusive(ctx, productLockKey(in.ID), func(tx repositories.Store) error {
		if err := r.checkWriter(ctx, tx, caller, "update products"); err != nil {
			return err
		}
		if err := validateInput(in); err != nil {
			return err
		}

		current, err := tx.Products().GetByID(ctx, in.ID)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		product = *current
		in.apply(&product)
		product.Version = current.Version + 1
		product.LastModified = r.clock.Now()
		if !r.preserveDeactivation {
			product.Active = true
		}
		if err := tx.Products().Update(ctx, &product); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		r.log.Debug("update product rejected", zap.String("product_id", in.ID), zap.String("caller", caller.String()), zap.Error(err))
		return false, err
	}
	if updated {
		r.log.Info("product updated",
			zap.String("product_id", in.ID),
			zap.Uint64("version", product.Version),
			zap.String("caller", caller.String()))
		r.publish(ctx, "product.updated", caller, in.ID, product)
	}
	return updated, nil
}

// DeactivateProduct marks a product inactive without changing its version.
func (r *ProductRegistry) DeactivateProduct(ctx context.Context, caller models.Identity, id string) (bool, error) {
	var deactivated bool
	err := r.exclusive(ctx, productLockKey(id), func(tx repositories.Store) error {
		if err := r.checkWriter(ctx, tx, caller, "deactivate products"); err != nil {
			return err
		}

		current, err := tx.Products().GetByID(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		product := *current
		product.Active = false
		if err := tx.Products().Update(ctx, &product); err != nil {
			return err
		}
		deactivated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deactivated {
		r.log.Info("product deactivated", zap.String("product_id", id), zap.String("caller", caller.String()))
		r.publish(ctx, "product.deactivated", caller, id, nil)
	}
	return deactivated, nil
}

// GetProduct returns the product, active or not.
func (r *ProductRegistry) GetProduct(ctx context.Context, id string) (models.Product, error) {
	product, err := r.store.Products().GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	return *product, nil
}

// GetVersion returns the current version of a product, 0 when it is unknown.
func (r *ProductRegistry) GetVersion(ctx context.Context, id string) (uint64, error) {
	product, err := r.store.Products().GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return product.Version, nil
}

// AuthorizeUser grants identity write access. Granting an identity that is
// already authorized is a no-op; the owner is always authorized.
func (r *ProductRegistry) AuthorizeUser(ctx context.Context, caller, identity models.Identity) (bool, error) {
	if err := r.checkOwner(caller, "authorize users"); err != nil {
		return false, err
	}
	if err := requireIdentity(identity, "authorized"); err != nil {
		return false, err
	}
	if identity == r.owner {
		return true, nil
	}

	var granted bool
	err := r.exclusive(ctx, authorizationLockKey(identity), func(tx repositories.Store) error {
		already, err := tx.Authorizations().Get(ctx, identity)
		if err != nil {
			return err
		}
		if already {
			return nil
		}
		if err := tx.Authorizations().Set(ctx, identity, true, r.clock.Now()); err != nil {
			return err
		}
		if err := tx.Counters().Add(ctx, models.CounterAuthorizedCount, 1); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if granted {
		r.log.Info("authorization granted", zap.String("identity", identity.String()))
		r.publish(ctx, "authorization.granted", caller, identity.String(), nil)
	}
	return true, nil
}

// RevokeAuthorization withdraws write access. It reports false when identity
// was not authorized. The owner cannot be revoked.
func (r *ProductRegistry) RevokeAuthorization(ctx context.Context, caller, identity models.Identity) (bool, error) {
	if err := r.checkOwner(caller, "revoke authorizations"); err != nil {
		return false, err
	}
	if identity == r.owner {
		return false, nil
	}

	var revoked bool
	err := r.exclusive(ctx, authorizationLockKey(identity), func(tx repositories.Store) error {
		authorized, err := tx.Authorizations().Get(ctx, identity)
		if err != nil {
			return err
		}
		if !authorized {
			return nil
		}
		if err := tx.Authorizations().Set(ctx, identity, false, r.clock.Now()); err != nil {
			return err
		}
		if err := tx.Counters().Add(ctx, models.CounterAuthorizedCount, -1); err != nil {
			return err
		}
		revoked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if revoked {
		r.log.Info("authorization revoked", zap.String("identity", identity.String()))
		r.publish(ctx, "authorization.revoked", caller, identity.String(), nil)
	}
	return revoked, nil
}

// IsAuthorized reports whether identity may write products.
func (r *ProductRegistry) IsAuthorized(ctx context.Context, identity models.Identity) (bool, error) {
	if identity == r.owner {
		return true, nil
	}
	return r.store.Authorizations().Get(ctx, identity)
}

// TotalProducts returns how many products were ever added.
func (r *ProductRegistry) TotalProducts(ctx context.Context) (uint64, error) {
	return r.store.Counters().Get(ctx, models.CounterTotalProducts)
}

// AuthorizedCount returns the number of authorized non-owner identities.
func (r *ProductRegistry) AuthorizedCount(ctx context.Context) (uint64, error) {
	return r.store.Counters().Get(ctx, models.CounterAuthorizedCount)
}
