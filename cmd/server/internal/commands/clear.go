package commands

import (
	"context"

	"github.com/wolfeidau/sessiongate/internal/logger"
	"github.com/wolfeidau/sessiongate/internal/session"
)

// ClearSessionsCmd sweeps every session record from the configured backend,
// logging everyone out. Administrative use only; the sweep is best-effort and
// may race with concurrent logins.
type ClearSessionsCmd struct {
	Store StoreFlags `embed:""`
}

func (c *ClearSessionsCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	kv, err := c.Store.createKV(ctx)
	if err != nil {
		return err
	}

	log.Info().Msg("Clearing all sessions")

	return session.NewKVStore(kv).Clear(ctx)
}
