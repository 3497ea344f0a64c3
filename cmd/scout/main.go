package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/talentscout/cmd/scout/commands"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("scout"),
		kong.Description("Personal job search assistant: track a pipeline, research companies, and generate tailored application documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	global := &commands.Global{Logger: slog.Default()}
	err := ctx.Run(global, cli)

	adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	adapter.HandleError(err)
}
