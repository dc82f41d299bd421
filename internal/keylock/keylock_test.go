package keylock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"nutriregistry/internal/errs"
	"nutriregistry/internal/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ keylock.Locker = (*keylock.Local)(nil)
	_ keylock.Locker = (*keylock.Redis)(nil)
)

func TestLocal_ThroughLockerInterface(t *testing.T) {
	var l keylock.Locker = keylock.NewLocal()

	unlock, err := l.Lock(context.Background(), "profile:ALICE")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = l.Lock(context.Background(), "profile:ALICE")
	require.NoError(t, err)
	unlock()
}

func TestLocal_SerializesSameKey(t *testing.T) {
	l := keylock.NewLocal()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "product:P1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocal_DisjointKeysDoNotBlock(t *testing.T) {
	l := keylock.NewLocal()

	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_TimesOut(t *testing.T) {
	l := keylock.NewLocal()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, errs.ErrLockTimeout)

	unlock()
	unlock() // second call is a no-op

	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}
