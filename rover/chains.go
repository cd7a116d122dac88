// Package rover wires the bus schedulers to the power board's devices and
// the shared robot state.
package rover

import (
	"github.com/mklimuk/powerboard/device/charger"
	"github.com/mklimuk/powerboard/device/fan"
	"github.com/mklimuk/powerboard/device/smartbattery"
	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/state"
	"github.com/mklimuk/powerboard/task"
)

type Addresses struct {
	FanController byte
	Battery       byte
	Charger       byte
}

func DefaultAddresses() Addresses {
	return Addresses{
		FanController: fan.DefaultAddress,
		Battery:       smartbattery.DefaultAddress,
		Charger:       charger.DefaultAddress,
	}
}

// chain owns the transfer buffers of one bus. Operations point into them, so
// a chain must not be copied once its steps are built.
type chain struct {
	st    *state.State
	addr  Addresses
	bytev [1]byte
	word  [2]byte
	speed [1]byte
}

// BusA polls the fan controller and battery A and commands the fan speed.
func BusA(st *state.State, addr Addresses) []task.Step {
	c := &chain{st: st, addr: addr}
	battery := &st.I2C.SmartBattery[state.BatteryA]
	return []task.Step{
		c.temperature("fan temperature left", fan.RegisterTemperatureLeft, 0),
		c.temperature("fan temperature right", fan.RegisterTemperatureRight, 1),
		c.batteryWord("battery A charge", smartbattery.CommandRelativeStateOfCharge, &battery.SOC),
		c.fanSpeed(),
		c.batteryWord("battery A status", smartbattery.CommandStatus, &battery.Status),
		c.batteryWord("battery A mode", smartbattery.CommandMode, &battery.Mode),
		c.batteryWord("battery A temperature", smartbattery.CommandTemperature, &battery.Temperature),
		c.batteryWord("battery A voltage", smartbattery.CommandVoltage, &battery.Voltage),
		c.batteryWord("battery A current", smartbattery.CommandCurrent, &battery.Current),
	}
}

// BusB polls battery B and the charger.
func BusB(st *state.State, addr Addresses) []task.Step {
	c := &chain{st: st, addr: addr}
	battery := &st.I2C.SmartBattery[state.BatteryB]
	return []task.Step{
		c.batteryWord("battery B charge", smartbattery.CommandRelativeStateOfCharge, &battery.SOC),
		c.wordStep("charger state", addr.Charger, charger.RegisterState, &st.I2C.ChargerState),
		c.batteryWord("battery B status", smartbattery.CommandStatus, &battery.Status),
		c.batteryWord("battery B mode", smartbattery.CommandMode, &battery.Mode),
		c.batteryWord("battery B temperature", smartbattery.CommandTemperature, &battery.Temperature),
		c.batteryWord("battery B voltage", smartbattery.CommandVoltage, &battery.Voltage),
		c.batteryWord("battery B current", smartbattery.CommandCurrent, &battery.Current),
	}
}

func (c *chain) temperature(name string, reg byte, idx int) task.Step {
	return task.Step{
		Name: name,
		Prepare: func() i2c.Operation {
			return i2c.ReadByte(c.addr.FanController, reg, &c.bytev)
		},
		Handle: func(res i2c.Result, _ []byte) {
			ok := res == i2c.Okay
			c.st.I2C.TemperatureSensorValid[idx] = ok
			if ok {
				c.st.I2C.TemperatureSensor[idx] = uint16(c.bytev[0])
			}
		},
	}
}

func (c *chain) batteryWord(name string, cmd byte, dst *uint16) task.Step {
	return c.wordStep(name, c.addr.Battery, cmd, dst)
}

func (c *chain) wordStep(name string, addr, cmd byte, dst *uint16) task.Step {
	return task.Step{
		Name: name,
		Prepare: func() i2c.Operation {
			return i2c.ReadWord(addr, cmd, &c.word)
		},
		Handle: func(res i2c.Result, _ []byte) {
			if res == i2c.Okay {
				*dst = i2c.Word(c.word)
			}
		},
	}
}

// fanSpeed fixes the speed when the step is entered, so retries of the write
// send the same value.
func (c *chain) fanSpeed() task.Step {
	return task.Step{
		Name: "fan speed",
		Prepare: func() i2c.Operation {
			c.speed[0] = fan.Decide(&c.st.Communication)
			return i2c.WriteByte(c.addr.FanController, fan.RegisterSpeed, &c.speed)
		},
	}
}
