package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sessiongate/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug         bool `help:"Enable debug mode."`
		Version       kong.VersionFlag
		Server        commands.ServerCmd        `cmd:"" help:"Start the session gateway server"`
		ClearSessions commands.ClearSessionsCmd `cmd:"" name:"clear-sessions" help:"Delete every session record (logs everyone out)"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
