package services_test

import (
	"context"
	"sync"
	"testing"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/keylock"
	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"
	"nutriregistry/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanRegistries(store repositories.Store) (*services.UserProfileRegistry, *services.ScanHistoryRegistry) {
	opts := services.Options{
		Locker: keylock.NewLocal(),
		Clock:  newStepClock(),
	}
	return services.NewUserProfileRegistry(store, opts), services.NewScanHistoryRegistry(store, opts)
}

func TestScanHistoryRegistry_RequiresProfile(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)

		_, err := scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 4})
		assert.ErrorIs(t, err, errs.ErrPreconditionFailed)

		_, err = profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)
		_, err = profiles.DeleteProfile(ctx, alice)
		require.NoError(t, err)

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 4})
		assert.ErrorIs(t, err, errs.ErrPreconditionFailed)

		_, err = scans.GetScan(ctx, alice, "P1")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestScanHistoryRegistry_RatingBounds(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 6})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: -1})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		_, err = scans.RecordScan(ctx, alice, services.ScanInput{Rating: 3})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)

		count, _ := scans.GetScanCount(ctx, alice)
		assert.Equal(t, uint64(0), count)

		ok, err := scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 5})
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P2", Rating: 0})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestScanHistoryRegistry_OverwriteDoesNotRecount(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 2, Notes: "too sweet"})
		require.NoError(t, err)
		count, _ := scans.GetScanCount(ctx, alice)
		assert.Equal(t, uint64(1), count)
		first, err := scans.GetScan(ctx, alice, "P1")
		require.NoError(t, err)

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 4, Notes: "better cold", IsFavorite: true})
		require.NoError(t, err)
		count, _ = scans.GetScanCount(ctx, alice)
		assert.Equal(t, uint64(1), count)

		second, err := scans.GetScan(ctx, alice, "P1")
		require.NoError(t, err)
		assert.Equal(t, 4, second.Rating)
		assert.Equal(t, "better cold", second.Notes)
		assert.True(t, second.IsFavorite)
		assert.True(t, second.Timestamp.After(first.Timestamp))

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P2", Rating: 3})
		require.NoError(t, err)
		stats, err := scans.Stats(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), stats.ScanCount)
		assert.Equal(t, "P2", stats.LastScannedProduct)
		last, err := scans.LastScannedProduct(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "P2", last)

		total, _ := scans.TotalScans(ctx)
		assert.Equal(t, uint64(2), total)

		profile, _ := profiles.GetProfile(ctx, alice)
		assert.Equal(t, uint64(2), profile.ScanCount)
	})
}

func TestScanHistoryRegistry_ProfileUpdateKeepsScanCount(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)
		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 1})
		require.NoError(t, err)

		_, err = profiles.UpdateProfile(ctx, alice, models.Preferences{Vegetarian: true})
		require.NoError(t, err)

		count, _ := scans.GetScanCount(ctx, alice)
		assert.Equal(t, uint64(1), count)
	})
}

func TestScanHistoryRegistry_ToggleFavorite(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)

		ok, err := scans.ToggleFavorite(ctx, alice, "P1")
		assert.NoError(t, err)
		assert.False(t, ok)

		_, err = scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: 3})
		require.NoError(t, err)

		ok, err = scans.ToggleFavorite(ctx, alice, "P1")
		require.NoError(t, err)
		assert.True(t, ok)
		scan, _ := scans.GetScan(ctx, alice, "P1")
		assert.True(t, scan.IsFavorite)

		ok, err = scans.ToggleFavorite(ctx, alice, "P1")
		require.NoError(t, err)
		assert.True(t, ok)
		scan, _ = scans.GetScan(ctx, alice, "P1")
		assert.False(t, scan.IsFavorite)

		// another identity's toggle does not see alice's record
		ok, err = scans.ToggleFavorite(ctx, bob, "P1")
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestScanHistoryRegistry_Listing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)
		_, err = profiles.CreateProfile(ctx, bob, models.Preferences{})
		require.NoError(t, err)

		for _, in := range []services.ScanInput{
			{ProductID: "P3", Rating: 1},
			{ProductID: "P1", Rating: 5, IsFavorite: true},
			{ProductID: "P2", Rating: 4, IsFavorite: true},
		} {
			_, err := scans.RecordScan(ctx, alice, in)
			require.NoError(t, err)
		}
		_, err = scans.RecordScan(ctx, bob, services.ScanInput{ProductID: "P9", Rating: 2, IsFavorite: true})
		require.NoError(t, err)

		history, err := scans.ListScans(ctx, alice)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "P1", history[0].ProductID)
		assert.Equal(t, "P3", history[2].ProductID)

		favorites, err := scans.ListFavorites(ctx, alice)
		require.NoError(t, err)
		require.Len(t, favorites, 2)
		assert.Equal(t, "P1", favorites[0].ProductID)
		assert.Equal(t, "P2", favorites[1].ProductID)

		none, err := scans.ListScans(ctx, carol)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestScanHistoryRegistry_UnknownIdentityCountIsZero(t *testing.T) {
	_, scans := newScanRegistries(repositories.NewMemoryStore())

	count, err := scans.GetScanCount(context.Background(), "NOBODY")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestScanHistoryRegistry_ConcurrentFirstScansCountOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		profiles, scans := newScanRegistries(store)
		_, err := profiles.CreateProfile(ctx, alice, models.Preferences{})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(rating int) {
				defer wg.Done()
				_, err := scans.RecordScan(ctx, alice, services.ScanInput{ProductID: "P1", Rating: rating % 6})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		count, _ := scans.GetScanCount(ctx, alice)
		assert.Equal(t, uint64(1), count)
		total, _ := scans.TotalScans(ctx)
		assert.Equal(t, uint64(1), total)
	})
}
