package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/partsd/cmd/partsd/commands"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("partsd"),
		kong.Description("Device parts daemon: thermal profiles, screen-off force-stop and device toggles."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
