package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/adapter"
	"github.com/mklimuk/powerboard/cmd/powerboard/console"
)

var indexFlag = &cli.IntFlag{
	Name:  "index",
	Usage: "which of several attached adapters to use",
}

var mcp2221Cmd = cli.Command{
	Name: "mcp2221",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221SpeedCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: []cli.Flag{indexFlag},
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().Status(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return console.YAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the transfer in progress",
	Flags: []cli.Flag{
		indexFlag,
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("cancel the current I2C transfer?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		status, err := adapter.NewMCP2221().ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return console.YAML(status)
	},
}

var mcp2221SpeedCmd = cli.Command{
	Name:  "speed",
	Usage: "set the I2C clock",
	Flags: []cli.Flag{indexFlag, &cli.IntFlag{Name: "hz", Value: 100_000}},
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().SetSpeed(commandContext(c), c.Int("hz"))
		if err != nil {
			return console.Exit(1, "could not set speed: %s", console.Red(err))
		}
		console.Infof("speed divider %s", console.White(status.I2CSpeedDivider))
		return nil
	},
}
