package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// CookieName is the literal cookie name used on the wire.
const CookieName = "SESSION"

// UserKey is the session data key holding the authenticated User.
const UserKey = "user"

// tokenLength is the number of random bytes behind a cookie value.
// 32 bytes keeps both guessing and birthday collisions negligible for
// any realistic session volume.
const tokenLength = 32

// User holds the only identity fact persisted with a session.
type User struct {
	Email string `json:"email"`
}

// Session represents a user's authenticated session.
// The cookie holds an opaque random token; the session id is derived from it
// by hashing, so the durable record never contains the value a client presents.
type Session struct {
	id     string
	token  []byte // only set on sessions created in this process
	data   map[string]string
	expiry *time.Time
	dirty  bool
}

// NewSession creates a session with a fresh random token and derived id.
func NewSession() *Session {
	token := make([]byte, tokenLength)
	// rand.Read never returns an error on supported platforms
	_, _ = rand.Read(token)

	return &Session{
		id:    idFromToken(token),
		token: token,
		data:  make(map[string]string),
	}
}

// idFromToken derives the durable session id from a raw cookie token.
func idFromToken(token []byte) string {
	sum := sha256.Sum256(token)
	return base58.Encode(sum[:])
}

// IDFromCookieValue resolves a cookie value to the session id it identifies.
// Returns false for any malformed input; attacker-controlled values must
// never escalate beyond "no session".
func IDFromCookieValue(value string) (string, bool) {
	token, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}
	if len(token) != tokenLength {
		return "", false
	}
	return idFromToken(token), true
}

// ID returns the session's durable identifier.
func (s *Session) ID() string {
	return s.id
}

// CookieValue returns the opaque value handed to the client. It is only
// available on sessions created in this process; loaded sessions return "",
// the caller already holds the cookie in that case.
func (s *Session) CookieValue() string {
	if s.token == nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(s.token)
}

// Insert stores a value under key, JSON-encoding it, and marks the session dirty.
func (s *Session) Insert(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session value %q: %w", key, err)
	}
	s.data[key] = string(encoded)
	s.dirty = true
	return nil
}

// Get decodes the value stored under key into out. Returns false if the key
// is absent or the stored value does not decode.
func (s *Session) Get(key string, out any) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// ExpireIn sets the session's absolute expiry to now + ttl.
func (s *Session) ExpireIn(ttl time.Duration) {
	expiry := time.Now().Add(ttl)
	s.expiry = &expiry
	s.dirty = true
}

// Expiry returns the session's absolute expiry, or nil for a non-expiring session.
func (s *Session) Expiry() *time.Time {
	return s.expiry
}

// IsExpired reports whether the session's expiry has passed.
// Sessions without an expiry never expire.
func (s *Session) IsExpired() bool {
	return s.expiry != nil && time.Now().After(*s.expiry)
}

// Dirty reports whether the session data changed since it was loaded or stored.
func (s *Session) Dirty() bool {
	return s.dirty
}

// ResetDirty clears the dirty flag after a successful store.
func (s *Session) ResetDirty() {
	s.dirty = false
}

// Restore rebuilds a session from its durable representation. The restored
// session carries no cookie token and starts clean.
func Restore(id string, data map[string]string, expiry *time.Time) *Session {
	if data == nil {
		data = make(map[string]string)
	}
	return &Session{
		id:     id,
		data:   data,
		expiry: expiry,
	}
}

// Data exposes the raw key to encoded-value mapping for serialization.
func (s *Session) Data() map[string]string {
	return s.data
}
