package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/powerboard"
	"github.com/mklimuk/powerboard/adapter"
	"github.com/mklimuk/powerboard/boardctx"
	"github.com/mklimuk/powerboard/cmd/powerboard/console"
	"github.com/mklimuk/powerboard/config"
	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/sim"
)

var adapterFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   "mcp2221",
		Usage:   "mcp2221, periph or nanopi",
	},
	&cli.StringFlag{
		Name:  "device",
		Usage: "periph bus name, e.g. /dev/i2c-1",
	},
	&cli.IntFlag{
		Name:  "index",
		Usage: "which of several attached USB adapters to use",
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: -1,
		Usage: "nanopi bus number; the board default when negative",
	},
	&cli.IntFlag{
		Name:  "speed",
		Usage: "bus clock in Hz; left unchanged when 0",
	},
}

var addressFlag = &cli.IntFlag{
	Name:     "addr",
	Usage:    "7-bit device address",
	Required: true,
}

// commandContext carries --verbose and --index to the adapters.
func commandContext(c *cli.Context) context.Context {
	ctx := boardctx.SetVerbose(c.Context, c.Bool("verbose"))
	if c.IsSet("index") {
		ctx = boardctx.SetDeviceIndex(ctx, c.Int("index"))
	}
	return ctx
}

func openAdapter(c *cli.Context) (powerboard.I2CBus, error) {
	speed := c.Int("speed")
	switch name := c.String("adapter"); name {
	case "mcp2221":
		a := adapter.NewMCP2221()
		if speed != 0 {
			if _, err := a.SetSpeed(commandContext(c), speed); err != nil {
				return nil, err
			}
		}
		return a, nil
	case "periph":
		var opts []adapter.PeriphOption
		if speed != 0 {
			opts = append(opts, adapter.WithSpeed(physic.Frequency(speed)*physic.Hertz))
		}
		return adapter.OpenPeriph(c.String("device"), opts...)
	case "nanopi":
		var opts []adapter.GobotOption
		if c.Int("bus") >= 0 {
			opts = append(opts, adapter.WithBusNumber(c.Int("bus")))
		}
		return adapter.OpenNanoPi(opts...)
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func closeAdapter(bus powerboard.I2CBus) {
	if closer, ok := bus.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			console.Warnf("could not close adapter: %s", err)
		}
	}
}

func loadSettings(c *cli.Context) (*config.Settings, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// execute runs one operation through the register level engine against a
// simulated controller whose only device forwards to bus. A write-only
// operation is flushed after the stop, so a transport error there turns an
// Okay into Nacked.
func execute(ctx context.Context, bus powerboard.I2CBus, op i2c.Operation, window int) (i2c.Result, error) {
	ctrl := sim.NewController()
	bridge := sim.NewBridge(ctx, bus, op.Address, sim.WithWindow(window))
	ctrl.Attach(op.Address, bridge)
	res, err := sim.Exec(ctrl, i2c.NewBus(ctrl), &op, 10_000)
	if err != nil {
		return res, err
	}
	err = bridge.Err()
	if err != nil && res == i2c.Okay {
		res = i2c.Nacked
	}
	return res, err
}
