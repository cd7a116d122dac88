package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/cmd/powerboard/console"
	"github.com/mklimuk/powerboard/config"
)

var configCmd = cli.Command{
	Name: "config",
	Subcommands: cli.Commands{
		&configDefaultCmd,
		&configShowCmd,
	},
}

var configDefaultCmd = cli.Command{
	Name:  "default",
	Usage: "write the default settings file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "powerboard.yaml"},
	},
	Action: func(c *cli.Context) error {
		err := config.WriteDefault(c.String("out"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Infof("default settings written to %s", console.White(c.String("out")))
		return nil
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the effective settings",
	Action: func(c *cli.Context) error {
		settings, err := loadSettings(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		return console.YAML(settings)
	},
}
