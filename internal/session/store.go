package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessiongate/internal/models"
	"github.com/wolfeidau/sessiongate/internal/store"
)

// partitionKey groups every session record into one logical partition so the
// clear sweep can enumerate them.
const partitionKey = "SESSION"

// Store is the contract for session persistence.
//
// Load returns the record even when it is logically expired; expiry
// enforcement and eviction belong to the caller. Malformed or unknown cookie
// values resolve to (nil, nil), never an error.
type Store interface {
	Load(ctx context.Context, cookieValue string) (*models.Session, error)
	Store(ctx context.Context, sess *models.Session) (string, error)
	Destroy(ctx context.Context, sess *models.Session) error
	Clear(ctx context.Context) error
}

// KVStore implements Store over a key-value capability.
type KVStore struct {
	kv store.KV
}

// NewKVStore creates a session store backed by the given key-value capability.
func NewKVStore(kv store.KV) *KVStore {
	return &KVStore{kv: kv}
}

// Load resolves a cookie value to its session record.
func (s *KVStore) Load(ctx context.Context, cookieValue string) (*models.Session, error) {
	id, ok := models.IDFromCookieValue(cookieValue)
	if !ok {
		log.Debug().Msg("malformed cookie value, no session")
		return nil, nil
	}

	item, err := s.kv.Get(ctx, partitionKey, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			log.Debug().Str("session_id", id).Msg("session not found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess, err := decodeRecord(id, item.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return sess, nil
}

// Store upserts the session record and returns the cookie value that resolves
// back to it. Storing the same session twice is last-write-wins.
func (s *KVStore) Store(ctx context.Context, sess *models.Session) (string, error) {
	payload, err := encodeRecord(sess)
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	err = s.kv.Put(ctx, store.Item{
		PartitionKey: partitionKey,
		SortKey:      sess.ID(),
		Payload:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	sess.ResetDirty()

	log.Debug().Str("session_id", sess.ID()).Msg("session stored")

	return sess.CookieValue(), nil
}

// Destroy deletes the session's record. Destroying an already-deleted session
// is not an error.
func (s *KVStore) Destroy(ctx context.Context, sess *models.Session) error {
	if err := s.kv.Delete(ctx, partitionKey, sess.ID()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	log.Debug().Str("session_id", sess.ID()).Msg("session destroyed")

	return nil
}

// Clear deletes every session record in the partition. The sweep is
// best-effort: per-item delete failures are logged and skipped, and a
// concurrent store may race with it.
func (s *KVStore) Clear(ctx context.Context) error {
	items, err := s.kv.Query(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	for _, item := range items {
		if err := s.kv.Delete(ctx, item.PartitionKey, item.SortKey); err != nil {
			log.Error().Err(err).Str("session_id", item.SortKey).Msg("failed to delete session")
		}
	}

	log.Info().Int("count", len(items)).Msg("session store cleared")

	return nil
}
