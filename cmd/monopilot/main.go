package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/vsinha/monopilot/pkg/interfaces/cli/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag

		Serve   commands.ServeCmd   `cmd:"" help:"Start the HTTP API"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply the Postgres schema"`
		Import  commands.ImportCmd  `cmd:"" help:"Import CSV seed data into an organization"`
		Aging   commands.AgingCmd   `cmd:"" help:"Print the inventory aging report of a CSV seed directory"`
		Trace   commands.TraceCmd   `cmd:"" help:"Print the genealogy of a license plate in a CSV seed directory"`
		Gantt   commands.GanttCmd   `cmd:"" help:"Print the production schedule of a CSV seed directory"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("monopilot"),
		kong.Description("Multi-tenant license plate inventory, traceability and production planning"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
