package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/keylock"
	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock supplies the timestamps written into records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// MonotonicClock never returns a reading earlier than the previous one, even
// if the underlying clock steps backwards.
type MonotonicClock struct {
	mu   sync.Mutex
	base Clock
	last time.Time
}

// NewMonotonicClock wraps base.
func NewMonotonicClock(base Clock) *MonotonicClock {
	return &MonotonicClock{base: base}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.base.Now().Round(0)
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}

// EventPublisher delivers registry events after their call has committed.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, body []byte) error
}

// Event is the envelope published for every successful mutation.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Caller     models.Identity `json:"caller"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       interface{}     `json:"data,omitempty"`
}

// Options carries the collaborators shared by all registries. Zero values
// select in-process defaults. Registries sharing a store must share a Locker;
// a nil Locker selects one process-wide lock table.
type Options struct {
	Locker      keylock.Locker
	Clock       Clock
	Events      EventPublisher
	Logger      *zap.Logger
	LockTimeout time.Duration

	// PreserveDeactivation keeps a deactivated product inactive across
	// update_product. By default an update reactivates the product.
	PreserveDeactivation bool
}

var defaultLocker = keylock.NewLocal()

type registry struct {
	store       repositories.Store
	locker      keylock.Locker
	clock       Clock
	events      EventPublisher
	log         *zap.Logger
	lockTimeout time.Duration
}

func newRegistry(store repositories.Store, opts Options) registry {
	r := registry{
		store:       store,
		locker:      opts.Locker,
		clock:       opts.Clock,
		events:      opts.Events,
		log:         opts.Logger,
		lockTimeout: opts.LockTimeout,
	}
	if r.locker == nil {
		r.locker = defaultLocker
	}
	if r.clock == nil {
		r.clock = NewMonotonicClock(SystemClock{})
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.lockTimeout <= 0 {
		r.lockTimeout = 5 * time.Second
	}
	return r
}

// exclusive runs fn in one storage transaction while holding the lock on key.
func (r *registry) exclusive(ctx context.Context, key string, fn func(tx repositories.Store) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	unlock, err := r.locker.Lock(lockCtx, key)
	cancel()
	if err != nil {
		return err
	}
	defer unlock()

	return r.store.Transaction(ctx, fn)
}

func (r *registry) publish(ctx context.Context, eventType string, caller models.Identity, key string, data interface{}) {
	if r.events == nil {
		return
	}
	body, err := json.Marshal(Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Caller:     caller,
		Key:        key,
		OccurredAt: r.clock.Now(),
		Data:       data,
	})
	if err != nil {
		r.log.Error("failed to marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := r.events.Publish(ctx, eventType, body); err != nil {
		r.log.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("key", key),
			zap.Error(err))
	}
}

var validate = validator.New()

func validateInput(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", errs.ErrInvalidArgument, strings.Join(msgs, "; "))
}

func requireIdentity(identity models.Identity, what string) error {
	if strings.TrimSpace(string(identity)) == "" {
		return fmt.Errorf("%w: empty %s identity", errs.ErrInvalidArgument, what)
	}
	return nil
}
