package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wolfeidau/sessiongate/internal/models"
)

// recordPayload is the durable JSON shape of a session's contents.
type recordPayload struct {
	Data   map[string]string `json:"data"`
	Expiry *time.Time        `json:"expiry,omitempty"`
}

// encodeRecord serializes a session's data and expiry into the payload stored
// against the session's record key.
func encodeRecord(sess *models.Session) (string, error) {
	payload, err := json.Marshal(recordPayload{
		Data:   sess.Data(),
		Expiry: sess.Expiry(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session record: %w", err)
	}
	return string(payload), nil
}

// decodeRecord rebuilds a session from a stored payload and its record key.
func decodeRecord(id, payload string) (*models.Session, error) {
	var record recordPayload
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return models.Restore(id, record.Data, record.Expiry), nil
}
