package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wolfeidau/sessiongate/internal/store"
)

// KVStore implements store.KV using in-memory storage.
// This implementation is for development and testing only - data is lost on restart.
type KVStore struct {
	mu sync.RWMutex

	partitions map[string]map[string]string // partition_key -> sort_key -> payload
}

// NewKVStore creates a new in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{
		partitions: make(map[string]map[string]string),
	}
}

// Put upserts an item, last-write-wins.
func (s *KVStore) Put(ctx context.Context, item store.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, exists := s.partitions[item.PartitionKey]
	if !exists {
		partition = make(map[string]string)
		s.partitions[item.PartitionKey] = partition
	}
	partition[item.SortKey] = item.Payload

	return nil
}

// Get fetches the item at (partitionKey, sortKey).
func (s *KVStore) Get(ctx context.Context, partitionKey, sortKey string) (store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, exists := s.partitions[partitionKey][sortKey]
	if !exists {
		return store.Item{}, store.ErrItemNotFound
	}

	return store.Item{
		PartitionKey: partitionKey,
		SortKey:      sortKey,
		Payload:      payload,
	}, nil
}

// Query returns all items in a partition, ordered by sort key.
func (s *KVStore) Query(ctx context.Context, partitionKey string) ([]store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.partitions[partitionKey]

	items := make([]store.Item, 0, len(partition))
	for sortKey, payload := range partition {
		items = append(items, store.Item{
			PartitionKey: partitionKey,
			SortKey:      sortKey,
			Payload:      payload,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].SortKey < items[j].SortKey
	})

	return items, nil
}

// Delete removes an item. Deleting a nonexistent item is a no-op.
func (s *KVStore) Delete(ctx context.Context, partitionKey, sortKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, exists := s.partitions[partitionKey]
	if !exists {
		return nil
	}
	delete(partition, sortKey)

	// Clean up empty partitions
	if len(partition) == 0 {
		delete(s.partitions, partitionKey)
	}

	return nil
}
