// Package fan knows the power board's fan controller: two temperature
// registers and a speed register.
package fan

import (
	"github.com/mklimuk/powerboard/state"
)

const DefaultAddress = 0x18

const (
	RegisterTemperatureLeft  = 0x00
	RegisterTemperatureRight = 0x01
	RegisterSpeed            = 0x0b
)

// MaxSpeed is full speed; 0 is off.
const MaxSpeed = 240

// effortThreshold is the summed drive effort above which the fans run.
const effortThreshold = 10

// Decide picks the speed to write to the controller. A manual speed wins
// while a fan command is active; otherwise the fans run at full speed while
// the drive motors work and stop when they idle. The automatic choice is
// written back so the host sees what was sent.
func Decide(c *state.CommunicationState) uint8 {
	if c.UseManualFanSpeed {
		return c.FanSpeed
	}
	effort := abs(int(c.MotorEffort[state.MotorLeft])) + abs(int(c.MotorEffort[state.MotorRight]))
	if effort > effortThreshold {
		c.FanSpeed = MaxSpeed
	} else {
		c.FanSpeed = 0
	}
	return c.FanSpeed
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
