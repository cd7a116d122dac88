package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/cmd/powerboard/console"
	"github.com/mklimuk/powerboard/i2c"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read a register through the bus engine",
	Flags: append([]cli.Flag{
		addressFlag,
		&cli.IntFlag{Name: "cmd", Usage: "command byte", Required: true},
		&cli.IntFlag{Name: "len", Value: 2, Usage: "bytes to read"},
		&cli.BoolFlag{Name: "block", Usage: "the first byte read is the count of the rest"},
	}, adapterFlags...),
	Action: func(c *cli.Context) error {
		n := c.Int("len")
		if n < 1 || n > 255 {
			return console.Exit(1, "invalid length %d", n)
		}
		bus, err := openAdapter(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeAdapter(bus)

		buf := make([]byte, n)
		op := i2c.Operation{
			Address:    byte(c.Int("addr")),
			HasCommand: true,
			Command:    byte(c.Int("cmd")),
			Read:       i2c.Buffer{Data: buf, LengthPrefixed: c.Bool("block")},
		}
		res, err := execute(commandContext(c), bus, op, n)
		if err != nil {
			console.Errorf("transport: %s", err)
		}
		if res != i2c.Okay {
			return console.Exit(1, "read %#02x/%#02x: %s", op.Address, op.Command, console.Result(res))
		}
		if op.Read.LengthPrefixed {
			buf = buf[:min(len(buf), int(buf[0])+1)]
		}
		console.Printf("%s\n", console.White(hex.EncodeToString(buf)))
		if len(buf) == 2 && !op.Read.LengthPrefixed {
			console.Printf("word: %d\n", i2c.Word([2]byte(buf)))
		}
		return nil
	},
}

var writeCmd = cli.Command{
	Name:  "write",
	Usage: "write a register through the bus engine",
	Flags: append([]cli.Flag{
		addressFlag,
		&cli.IntFlag{Name: "cmd", Usage: "command byte", Required: true},
		&cli.StringFlag{Name: "data", Usage: "hex encoded payload", Required: true},
		&cli.BoolFlag{Name: "block", Usage: "prefix the payload with its length"},
	}, adapterFlags...),
	Action: func(c *cli.Context) error {
		data, err := hex.DecodeString(c.String("data"))
		if err != nil {
			return console.Exit(1, "invalid payload: %s", console.Red(err))
		}
		if c.Bool("block") {
			if len(data) > 255 {
				return console.Exit(1, "block payload too long: %d", len(data))
			}
			data = append([]byte{byte(len(data))}, data...)
		}
		bus, err := openAdapter(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeAdapter(bus)

		op := i2c.Operation{
			Address:    byte(c.Int("addr")),
			HasCommand: true,
			Command:    byte(c.Int("cmd")),
			Write:      i2c.Buffer{Data: data, LengthPrefixed: c.Bool("block")},
		}
		res, err := execute(commandContext(c), bus, op, 1)
		if err != nil {
			console.Errorf("transport: %s", err)
		}
		if res != i2c.Okay {
			return console.Exit(1, "write %#02x/%#02x: %s", op.Address, op.Command, console.Result(res))
		}
		console.PInfof(console.PictoFinish, "wrote %d bytes to %#02x", len(data), op.Address)
		return nil
	},
}

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "list addresses that acknowledge a one byte read",
	Flags: adapterFlags,
	Action: func(c *cli.Context) error {
		bus, err := openAdapter(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeAdapter(bus)

		ctx := commandContext(c)
		found := 0
		for addr := byte(0x08); addr <= 0x77; addr++ {
			var b [1]byte
			op := i2c.Operation{Address: addr, Read: i2c.Buffer{Data: b[:]}}
			res, _ := execute(ctx, bus, op, 1)
			if res == i2c.Okay {
				found++
				console.Printf("%s\n", console.Green(fmt.Sprintf("%#02x", addr)))
			}
		}
		if found == 0 {
			console.PInfof(console.PictoGhost, "no devices found")
		}
		return nil
	},
}
