package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/cmd/powerboard/console"
	"github.com/mklimuk/powerboard/device/smartbattery"
)

var batteryCmd = cli.Command{
	Name:  "battery",
	Usage: "read a smart battery",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "addr", Value: smartbattery.DefaultAddress, Usage: "battery address"},
		&cli.BoolFlag{Name: "pec", Usage: "check the SMBus packet error code"},
	}, adapterFlags...),
	Action: func(c *cli.Context) error {
		bus, err := openAdapter(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeAdapter(bus)

		opts := []smartbattery.ConfigOption{smartbattery.WithAddress(byte(c.Int("addr")))}
		if c.Bool("pec") {
			opts = append(opts, smartbattery.WithPEC())
		}
		b := smartbattery.New(bus, opts...)
		reading, err := b.Read(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading battery: %s", console.Red(err))
		}
		console.PInfof(console.PictoBattery, "%s%%  %s", console.White(reading.SOC), console.White(reading.Status))
		return console.YAML(reading)
	},
}
