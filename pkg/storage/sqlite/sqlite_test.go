package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/danmuhq/danmuz/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()

	store, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestCreateAndListDeliveries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := storage.Delivery{
		Source:     "emby",
		Event:      "item.add",
		Outcome:    storage.OutcomeDispatched,
		Title:      "Bar",
		Season:     2,
		Episode:    5,
		TaskKey:    "webhook-search-Bar-S2-E5",
		ReceivedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	id, err := store.CreateDelivery(ctx, first)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	second := storage.Delivery{
		Source:     "emby",
		Event:      "scan.complete",
		Outcome:    storage.OutcomeSkipped,
		Detail:     "unsupported event",
		ReceivedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	}
	_, err = store.CreateDelivery(ctx, second)
	require.NoError(t, err)

	deliveries, err := store.ListDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)

	// newest first
	assert.Equal(t, storage.OutcomeSkipped, deliveries[0].Outcome)
	assert.Equal(t, "unsupported event", deliveries[0].Detail)
	assert.Equal(t, "Bar", deliveries[1].Title)
	assert.Equal(t, 2, deliveries[1].Season)
	assert.Equal(t, 5, deliveries[1].Episode)
	assert.Equal(t, "webhook-search-Bar-S2-E5", deliveries[1].TaskKey)
}

func TestListDeliveries_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.CreateDelivery(ctx, storage.Delivery{
			Source:     "emby",
			Event:      "item.add",
			Outcome:    storage.OutcomeDispatched,
			ReceivedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	deliveries, err := store.ListDeliveries(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, deliveries, 3)
}

func TestListDeliveries_Empty(t *testing.T) {
	store := newTestStore(t)

	deliveries, err := store.ListDeliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}
