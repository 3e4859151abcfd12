package secrets

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a named secret has no value.
var ErrNotFound = errors.New("secret not found")

// Provider resolves named secrets. Implementations are expected to fetch on
// every call; the login flow deliberately does not cache credentials across
// invocations.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Static is a fixed in-memory provider for development and tests.
type Static map[string]string

// GetSecret returns the configured value for name.
func (s Static) GetSecret(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}
