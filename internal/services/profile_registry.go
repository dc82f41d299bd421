package services

import (
	"context"
	"errors"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"

	"go.uber.org/zap"
)

// UserProfileRegistry stores one self-managed preference profile per identity.
type UserProfileRegistry struct {
	registry
}

// NewUserProfileRegistry creates a UserProfileRegistry.
func NewUserProfileRegistry(store repositories.Store, opts Options) *UserProfileRegistry {
	return &UserProfileRegistry{registry: newRegistry(store, opts)}
}

// profileLockKey also guards the scan records of identity, since recording a
// scan writes to the profile.
func profileLockKey(identity models.Identity) string {
	return "profile:" + string(identity)
}

// CreateProfile creates the caller's profile. It reports false when the caller
// already has one, including a deleted one.
func (r *UserProfileRegistry) CreateProfile(ctx context.Context, caller models.Identity, prefs models.Preferences) (bool, error) {
	if err := requireIdentity(caller, "caller"); err != nil {
		return false, err
	}
	if err := validateInput(prefs); err != nil {
		return false, err
	}

	var (
		created bool
		profile models.Profile
	)
	err := r.exclusive(ctx, profileLockKey(caller), func(tx repositories.Store) error {
		_, err := tx.Profiles().GetByIdentity(ctx, caller)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		now := r.clock.Now()
		profile = models.Profile{
			Identity:     caller,
			Preferences:  prefs,
			CreatedAt:    now,
			LastModified: now,
			Active:       true,
		}
		if err := tx.Profiles().Create(ctx, &profile); err != nil {
			return err
		}
		if err := tx.Counters().Add(ctx, models.CounterTotalUsers, 1); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		r.log.Info("profile created", zap.String("identity", caller.String()))
		r.publish(ctx, "profile.created", caller, caller.String(), profile)
	}
	return created, nil
}

// UpdateProfile replaces the caller's preferences, keeping created_at, the
// scan count and the active flag. It reports false when no profile exists.
func (r *UserProfileRegistry) UpdateProfile(ctx context.Context, caller models.Identity, prefs models.Preferences) (bool, error) {
	if err := validateInput(prefs); err != nil {
		return false, err
	}

	var (
		updated bool
		profile models.Profile
	)
	err := r.exclusive(ctx, profileLockKey(caller), func(tx repositories.Store) error {
		current, err := tx.Profiles().GetByIdentity(ctx, caller)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		profile = *current
		profile.Preferences = prefs
		profile.LastModified = r.clock.Now()
		if err := tx.Profiles().Update(ctx, &profile); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if updated {
		r.log.Info("profile updated", zap.String("identity", caller.String()))
		r.publish(ctx, "profile.updated", caller, caller.String(), profile)
	}
	return updated, nil
}

// DeleteProfile soft-deletes the caller's profile. It reports false when there
// is no active profile to delete.
func (r *UserProfileRegistry) DeleteProfile(ctx context.Context, caller models.Identity) (bool, error) {
	var deleted bool
	err := r.exclusive(ctx, profileLockKey(caller), func(tx repositories.Store) error {
		current, err := tx.Profiles().GetByIdentity(ctx, caller)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !current.Active {
			return nil
		}

		profile := *current
		profile.Active = false
		profile.LastModified = r.clock.Now()
		if err := tx.Profiles().Update(ctx, &profile); err != nil {
			return err
		}
		if err := tx.Counters().Add(ctx, models.CounterTotalUsers, -1); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		r.log.Info("profile deleted", zap.String("identity", caller.String()))
		r.publish(ctx, "profile.deleted", caller, caller.String(), nil)
	}
	return deleted, nil
}

// GetProfile returns the profile of any identity, deleted profiles included.
func (r *UserProfileRegistry) GetProfile(ctx context.Context, identity models.Identity) (models.Profile, error) {
	profile, err := r.store.Profiles().GetByIdentity(ctx, identity)
	if err != nil {
		return models.Profile{}, err
	}
	return *profile, nil
}

// GetMyProfile returns the caller's own profile.
func (r *UserProfileRegistry) GetMyProfile(ctx context.Context, caller models.Identity) (models.Profile, error) {
	return r.GetProfile(ctx, caller)
}

// HasProfile reports whether identity ever created a profile.
func (r *UserProfileRegistry) HasProfile(ctx context.Context, identity models.Identity) (bool, error) {
	_, err := r.store.Profiles().GetByIdentity(ctx, identity)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TotalUsers returns the number of profiles created minus those deleted.
func (r *UserProfileRegistry) TotalUsers(ctx context.Context) (uint64, error) {
	return r.store.Counters().Get(ctx, models.CounterTotalUsers)
}
