package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessiongate/internal/store"
)

// KVStore implements store.KV using PostgreSQL. Items live in the kv_items
// table keyed by (partition_key, sort_key).
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore creates a new PostgreSQL-backed key-value store.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{
		pool: pool,
	}
}

// Put upserts an item, last-write-wins.
func (s *KVStore) Put(ctx context.Context, item store.Item) error {
	query := `
		INSERT INTO kv_items (partition_key, sort_key, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (partition_key, sort_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query, item.PartitionKey, item.SortKey, item.Payload)
	if err != nil {
		return fmt.Errorf("failed to put item: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("partition_key", item.PartitionKey).
		Str("sort_key", item.SortKey).
		Msg("item stored")

	return nil
}

// Get fetches the item at (partitionKey, sortKey).
func (s *KVStore) Get(ctx context.Context, partitionKey, sortKey string) (store.Item, error) {
	query := `
		SELECT payload
		FROM kv_items
		WHERE partition_key = $1 AND sort_key = $2
	`

	item := store.Item{PartitionKey: partitionKey, SortKey: sortKey}
	err := s.pool.QueryRow(ctx, query, partitionKey, sortKey).Scan(&item.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Item{}, store.ErrItemNotFound
		}
		return store.Item{}, fmt.Errorf("failed to get item: %w", mapPostgresError(err))
	}

	return item, nil
}

// Query returns all items sharing partitionKey, ordered by sort key.
func (s *KVStore) Query(ctx context.Context, partitionKey string) ([]store.Item, error) {
	query := `
		SELECT sort_key, payload
		FROM kv_items
		WHERE partition_key = $1
		ORDER BY sort_key
	`

	rows, err := s.pool.Query(ctx, query, partitionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		item := store.Item{PartitionKey: partitionKey}
		if err := rows.Scan(&item.SortKey, &item.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", mapPostgresError(err))
	}

	return items, nil
}

// Delete removes the item at (partitionKey, sortKey).
// Deleting an absent key affects zero rows and is not an error.
func (s *KVStore) Delete(ctx context.Context, partitionKey, sortKey string) error {
	query := `DELETE FROM kv_items WHERE partition_key = $1 AND sort_key = $2`

	_, err := s.pool.Exec(ctx, query, partitionKey, sortKey)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", mapPostgresError(err))
	}

	return nil
}
