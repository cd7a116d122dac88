// Package state holds the robot-wide status the bus schedulers write into.
// Fields are grouped by the component that sets them; a group is only ever
// written by its owner.
package state

import "time"

const BatteryCount = 2

const (
	BatteryA = 0
	BatteryB = 1
)

const (
	MotorLeft = iota
	MotorRight
	MotorFlipper
	MotorCount
)

type State struct {
	I2C           I2CState           `yaml:"i2c"`
	Communication CommunicationState `yaml:"communication"`
}

// I2CState is owned by the bus schedulers. Values are raw device words;
// a failed poll keeps the previous value.
type I2CState struct {
	// TemperatureSensor holds the fan controller's two readings.
	TemperatureSensor      [2]uint16             `yaml:"temperature_sensor"`
	TemperatureSensorValid [2]bool               `yaml:"temperature_sensor_valid"`
	ChargerState           uint16                `yaml:"charger_state"`
	SmartBattery           [BatteryCount]Battery `yaml:"smart_battery"`
}

// Battery mirrors the SBS words polled from one smart battery.
type Battery struct {
	SOC         uint16 `yaml:"soc"`
	Status      uint16 `yaml:"status"`
	Mode        uint16 `yaml:"mode"`
	Temperature uint16 `yaml:"temperature"`
	Current     uint16 `yaml:"current"`
	Voltage     uint16 `yaml:"voltage"`
}

// CommunicationState is owned by the host command handler; the bus A chain
// writes the automatic fan speed back into it.
type CommunicationState struct {
	UseManualFanSpeed bool `yaml:"use_manual_fan_speed"`
	// FanSpeed ranges from 0 (off) to 240 (full speed).
	FanSpeed uint8 `yaml:"fan_speed"`
	// MotorEffort ranges from -1000 to 1000.
	MotorEffort    [MotorCount]int16 `yaml:"motor_effort"`
	LastFanCommand time.Time         `yaml:"last_fan_command,omitempty"`
}

// CommandFan sets a manual fan speed that overrides the automatic choice
// until it expires.
func (c *CommunicationState) CommandFan(speed uint8, now time.Time) {
	c.UseManualFanSpeed = true
	c.FanSpeed = speed
	c.LastFanCommand = now
}

// ExpireFanCommand drops the manual fan speed once timeout has passed since
// the last command. It reports whether the command expired.
func (c *CommunicationState) ExpireFanCommand(now time.Time, timeout time.Duration) bool {
	if !c.UseManualFanSpeed || now.Sub(c.LastFanCommand) <= timeout {
		return false
	}
	c.UseManualFanSpeed = false
	return true
}
