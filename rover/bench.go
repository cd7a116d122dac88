package rover

import (
	"github.com/mklimuk/powerboard/device/charger"
	"github.com/mklimuk/powerboard/device/fan"
	"github.com/mklimuk/powerboard/device/smartbattery"
	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/sim"
)

// Bench is a simulated power board: one register level controller per bus
// with the devices the chains expect, populated with plausible values.
type Bench struct {
	A, B *sim.Controller

	FanController *sim.RegisterMap
	BatteryA      *sim.RegisterMap
	BatteryB      *sim.RegisterMap
	Charger       *sim.RegisterMap
}

func NewBench(addr Addresses, opts ...sim.ControllerOpt) *Bench {
	b := &Bench{
		A:             sim.NewController(opts...),
		B:             sim.NewController(opts...),
		FanController: sim.NewRegisterMap(),
		BatteryA:      NewBatteryModel(87, 16400, 0xfe0c),
		BatteryB:      NewBatteryModel(64, 15900, 0xfd44),
		Charger:       sim.NewRegisterMap(),
	}
	b.FanController.SetByte(fan.RegisterTemperatureLeft, 31)
	b.FanController.SetByte(fan.RegisterTemperatureRight, 33)
	b.FanController.SetByte(fan.RegisterSpeed, 0)
	b.Charger.SetWord(charger.RegisterState, 0)

	b.A.Attach(addr.FanController, b.FanController)
	b.A.Attach(addr.Battery, b.BatteryA)
	b.B.Attach(addr.Battery, b.BatteryB)
	b.B.Attach(addr.Charger, b.Charger)
	return b
}

// NewBatteryModel returns a register map answering the SBS words the chains
// poll, at 25°C and initialized.
func NewBatteryModel(soc, millivolts, current uint16) *sim.RegisterMap {
	m := sim.NewRegisterMap()
	m.SetWord(smartbattery.CommandRelativeStateOfCharge, soc)
	m.SetWord(smartbattery.CommandStatus, uint16(smartbattery.StatusInitialized|smartbattery.StatusDischarging))
	m.SetWord(smartbattery.CommandMode, 0)
	m.SetWord(smartbattery.CommandTemperature, 2981)
	m.SetWord(smartbattery.CommandVoltage, millivolts)
	m.SetWord(smartbattery.CommandCurrent, current)
	return m
}

// Buses wraps both controllers, wiring the line driver so reinit is visible.
func (b *Bench) Buses(opts ...i2c.BusOption) (*i2c.Bus, *i2c.Bus) {
	a := i2c.NewBus(b.A, append([]i2c.BusOption{i2c.WithLines(b.A)}, opts...)...)
	bb := i2c.NewBus(b.B, append([]i2c.BusOption{i2c.WithLines(b.B)}, opts...)...)
	return a, bb
}

// Step advances both controllers by one unit of hardware time.
func (b *Bench) Step() {
	b.A.Step()
	b.B.Step()
}
