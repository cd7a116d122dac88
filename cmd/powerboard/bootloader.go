package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/bootloader"
	"github.com/mklimuk/powerboard/cmd/powerboard/console"
)

var bootloaderCmd = cli.Command{
	Name:  "bootloader",
	Usage: "check flash addresses against the bootloader protection rules",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 512, Usage: "flash erase page size in instructions"},
	},
	Subcommands: cli.Commands{
		{
			Name:      "check",
			ArgsUsage: "<address>...",
			Action: func(c *cli.Context) error {
				layout, err := bootloader.LayoutForPage(c.Int("page"))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if c.NArg() == 0 {
					return console.Exit(1, "no address given")
				}
				for _, arg := range c.Args().Slice() {
					addr, err := parseAddress(arg)
					if err != nil {
						return console.Exit(1, "invalid address %q: %s", arg, console.Red(err))
					}
					write, erase := console.Red("denied"), console.Red("denied")
					if layout.RowWriteAllowed(addr) {
						write = console.Green("allowed")
					}
					if layout.EraseAllowed(addr) {
						erase = console.Green("allowed")
					}
					console.Printf("%#06x write %s erase %s\n", addr, write, erase)
				}
				return nil
			},
		},
	},
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}
