package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessiongate/internal/store"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	err := kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "abc", Payload: `{"data":{}}`})
	require.NoError(t, err)

	item, err := kv.Get(ctx, "SESSION", "abc")
	require.NoError(t, err)
	require.Equal(t, "SESSION", item.PartitionKey)
	require.Equal(t, "abc", item.SortKey)
	require.Equal(t, `{"data":{}}`, item.Payload)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	_, err := kv.Get(ctx, "SESSION", "missing")
	require.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "abc", Payload: "one"}))
	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "abc", Payload: "two"}))

	item, err := kv.Get(ctx, "SESSION", "abc")
	require.NoError(t, err)
	require.Equal(t, "two", item.Payload)
}

func TestQueryReturnsPartitionSorted(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "b", Payload: "2"}))
	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "a", Payload: "1"}))
	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "OTHER", SortKey: "c", Payload: "3"}))

	items, err := kv.Query(ctx, "SESSION")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].SortKey)
	require.Equal(t, "b", items[1].SortKey)
}

func TestQueryEmptyPartition(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	items, err := kv.Query(ctx, "SESSION")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	require.NoError(t, kv.Put(ctx, store.Item{PartitionKey: "SESSION", SortKey: "abc", Payload: "one"}))

	require.NoError(t, kv.Delete(ctx, "SESSION", "abc"))
	require.NoError(t, kv.Delete(ctx, "SESSION", "abc"))

	_, err := kv.Get(ctx, "SESSION", "abc")
	require.ErrorIs(t, err, store.ErrItemNotFound)
}
