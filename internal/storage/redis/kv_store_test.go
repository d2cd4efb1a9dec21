package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-autotrader/internal/storage"
)

func setupTestStore(t *testing.T) (*KVStore, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		_ = container.Terminate(ctx)
	}
	return NewKVStore(client, "test:"), cleanup
}

func TestKVStore_SetGetDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.Get(ctx, storage.KeyRiskState)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, storage.KeyRiskState, []byte(`{"consecutive_losses":2}`)))
	got, err := store.Get(ctx, storage.KeyRiskState)
	require.NoError(t, err)
	assert.Equal(t, `{"consecutive_losses":2}`, string(got))

	// Stored under the prefix.
	raw, err := store.client.Get(ctx, "test:"+storage.KeyRiskState).Result()
	require.NoError(t, err)
	assert.Equal(t, `{"consecutive_losses":2}`, raw)

	require.NoError(t, store.Delete(ctx, storage.KeyRiskState))
	_, err = store.Get(ctx, storage.KeyRiskState)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, store.Delete(ctx, storage.KeyRiskState))
}

func TestKVStore_EmptyKey(t *testing.T) {
	store := NewKVStore(nil, "")
	assert.Equal(t, defaultPrefix, store.prefix)

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Set(context.Background(), "", nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Delete(context.Background(), ""), storage.ErrInvalidInput)
}
