package cache

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendFactory_Create(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("redis disabled", func(t *testing.T) {
		backends, err := NewBackendFactory(config.RedisConfig{}).Create(ctx)
		require.NoError(t, err)
		defer backends.Close()

		assert.Nil(t, backends.Client)
		assert.IsType(t, &InMemoryIdempotencyStore{}, backends.Idempotency)
		assert.IsType(t, &LocalLocker{}, backends.Locker)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		backends, err := NewBackendFactory(unreachable).Create(ctx)
		require.NoError(t, err)
		defer backends.Close()

		assert.Nil(t, backends.Client)
		assert.IsType(t, &LocalLocker{}, backends.Locker)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewBackendFactory(unreachable, WithInMemoryFallback(false)).Create(ctx)
		assert.Error(t, err)
	})
}
