package store

import (
	"context"
	"errors"
)

// Sentinel errors for common error conditions
var (
	ErrItemNotFound = errors.New("item not found")
	ErrThrottled    = errors.New("request throttled")
)

// Item is a single record in the key-value capability. Records are grouped by
// partition key and ordered within a partition by sort key.
type Item struct {
	PartitionKey string
	SortKey      string
	Payload      string
}

// KV is the contract the session layer requires from a durable key-value
// backend: single-item reads and writes plus a partition scan. Read-after-write
// consistency on a single key is assumed; cross-key transactions are not.
type KV interface {
	// Put upserts an item. Writing the same key twice is last-write-wins.
	Put(ctx context.Context, item Item) error

	// Get fetches the item at (partitionKey, sortKey).
	// Returns ErrItemNotFound if no such item exists.
	Get(ctx context.Context, partitionKey, sortKey string) (Item, error)

	// Query returns all items sharing partitionKey.
	Query(ctx context.Context, partitionKey string) ([]Item, error)

	// Delete removes the item at (partitionKey, sortKey).
	// Deleting a nonexistent item is not an error.
	Delete(ctx context.Context, partitionKey, sortKey string) error
}
