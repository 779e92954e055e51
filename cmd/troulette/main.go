package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the roulette table server"`
	Client  ClientCmd        `cmd:"" help:"Connect as an interactive player"`
	Bots    BotsCmd          `cmd:"" help:"Seat scripted players at a running table"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("troulette"),
		kong.Description("Multiplayer roulette table over websockets"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
