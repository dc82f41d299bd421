package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"
	"nutriregistry/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	owner models.Identity = "OWNER"
	alice models.Identity = "ALICE"
	bob   models.Identity = "BOB"
	carol models.Identity = "CAROL"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType string, body []byte) error {
	args := m.Called(eventType, body)
	return args.Error(0)
}

func newSQLiteStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := repositories.NewGORMStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

// forEachStore runs fn against the in-memory and the sqlite-backed store.
func forEachStore(t *testing.T, fn func(t *testing.T, store repositories.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newSQLiteStore(t))
	})
}

type brokenCounters struct{}

func (brokenCounters) Get(context.Context, string) (uint64, error) { return 0, nil }
func (brokenCounters) Add(context.Context, string, int64) error {
	return errors.New("counter storage unavailable")
}

// failingCounterStore fails every counter write, inside transactions too.
type failingCounterStore struct {
	repositories.Store
}

func (s failingCounterStore) Counters() repositories.CounterRepository { return brokenCounters{} }

func (s failingCounterStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(failingCounterStore{tx})
	})
}

type backwardsClock struct {
	readings []time.Time
}

func (c *backwardsClock) Now() time.Time {
	t := c.readings[0]
	c.readings = c.readings[1:]
	return t
}

func TestMonotonicClock_NeverGoesBackwards(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := services.NewMonotonicClock(&backwardsClock{readings: []time.Time{
		t0,
		t0.Add(-time.Minute),
		t0.Add(time.Minute),
	}})

	assert.Equal(t, t0, clock.Now())
	assert.Equal(t, t0, clock.Now())
	assert.Equal(t, t0.Add(time.Minute), clock.Now())
}

func modelsIdentity(s string) models.Identity { return models.Identity(s) }
