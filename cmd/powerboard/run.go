package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/powerboard/cmd/powerboard/console"
	"github.com/mklimuk/powerboard/device/charger"
	"github.com/mklimuk/powerboard/device/smartbattery"
	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/rover"
	"github.com/mklimuk/powerboard/sim"
	"github.com/mklimuk/powerboard/state"
	"github.com/mklimuk/powerboard/task"
)

type runReport struct {
	Ticks     uint64                 `yaml:"ticks"`
	Batteries []smartbattery.Reading `yaml:"batteries"`
	Charger   bool                   `yaml:"charger_connected"`
	State     *state.State           `yaml:"state"`
	Buses     []task.Snapshot        `yaml:"buses"`
}

var runCmd = cli.Command{
	Name:  "run",
	Usage: "run both bus schedulers against a simulated board",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Value: time.Second},
		&cli.IntFlag{Name: "latency", Value: 1, Usage: "simulated controller steps per bus action"},
		&cli.BoolFlag{Name: "bridge", Usage: "poll bus A's battery through a real adapter"},
		&cli.IntFlag{Name: "effort", Usage: "left motor effort, -1000..1000"},
		&cli.IntFlag{Name: "fan", Value: -1, Usage: "manual fan speed 0..240; automatic when negative"},
	}, adapterFlags...),
	Action: func(c *cli.Context) error {
		settings, err := loadSettings(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		bench := rover.NewBench(rover.Addresses{
			FanController: settings.Devices.FanController,
			Battery:       settings.Devices.Battery,
			Charger:       settings.Devices.Charger,
		}, sim.WithLatency(c.Int("latency")))

		ctx, cancel := context.WithTimeout(commandContext(c), c.Duration("duration"))
		defer cancel()

		if c.Bool("bridge") {
			bus, err := openAdapter(c)
			if err != nil {
				return console.Exit(1, "adapter initialization error: %s", console.Red(err))
			}
			defer closeAdapter(bus)
			bench.A.Attach(settings.Devices.Battery, sim.NewBridge(ctx, bus, settings.Devices.Battery, sim.WithWindow(2)))
		}

		st := &state.State{}
		st.Communication.MotorEffort[state.MotorLeft] = int16(c.Int("effort"))
		if fan := c.Int("fan"); fan >= 0 {
			st.Communication.CommandFan(uint8(min(fan, 240)), time.Now())
		}
		busA, busB := bench.Buses(i2c.WithBaud(settings.I2C.Baud))
		runner := rover.NewRunner(settings, st, busA, busB,
			rover.WithBeforeTick(bench.Step),
			rover.WithFaultHandler(func(step string) {
				slog.Warn("bus fault", "step", step)
			}),
		)
		err = runner.Run(ctx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return console.Exit(1, "run stopped: %s", console.Red(err))
		}

		report := runReport{
			Ticks:   runner.Ticks(),
			Charger: charger.Connected(st.I2C.ChargerState),
			State:   st,
			Buses:   runner.Snapshots(),
		}
		for _, b := range st.I2C.SmartBattery {
			report.Batteries = append(report.Batteries, smartbattery.Decode(b.SOC, b.Status, b.Mode, b.Temperature, b.Voltage, b.Current))
		}
		rows := make([][]string, 0, len(report.Buses))
		for _, snap := range report.Buses {
			rows = append(rows, []string{
				snap.Name,
				snap.Resume.String(),
				fmt.Sprint(snap.Cycles),
				fmt.Sprint(snap.Reinits),
				fmt.Sprint(snap.Nacks),
				fmt.Sprint(snap.Illegals),
			})
		}
		console.Printf("%s\n", console.Table([]string{"BUS", "RESUME", "CYCLES", "REINITS", "NACKS", "ILLEGALS"}, rows))
		return console.YAML(report)
	},
}
