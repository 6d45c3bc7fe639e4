package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second obtain fails while held", func(t *testing.T) {
		locker := NewLocalLocker()

		lock, err := locker.Obtain(ctx, "receive:v1", time.Minute)
		require.NoError(t, err)

		_, err = locker.Obtain(ctx, "receive:v1", time.Minute)
		assert.ErrorIs(t, err, shared.ErrLockNotObtained)

		other, err := locker.Obtain(ctx, "receive:v2", time.Minute)
		require.NoError(t, err)
		require.NoError(t, other.Release(ctx))

		require.NoError(t, lock.Release(ctx))
		again, err := locker.Obtain(ctx, "receive:v1", time.Minute)
		require.NoError(t, err)
		require.NoError(t, again.Release(ctx))
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		clock := newFakeClock()
		locker := NewLocalLocker()
		locker.now = clock.Now

		stale, err := locker.Obtain(ctx, "sweep", time.Second)
		require.NoError(t, err)

		clock.Advance(2 * time.Second)
		fresh, err := locker.Obtain(ctx, "sweep", time.Minute)
		require.NoError(t, err)

		// the stale holder must not free the new owner's lock
		require.NoError(t, stale.Release(ctx))
		_, err = locker.Obtain(ctx, "sweep", time.Minute)
		assert.ErrorIs(t, err, shared.ErrLockNotObtained)

		require.NoError(t, fresh.Release(ctx))
	})
}
