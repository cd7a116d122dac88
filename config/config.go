// Package config holds the power board settings that shape the bus engine:
// poll cadence, stall timeout, baud reload and device addresses.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/powerboard/device/charger"
	"github.com/mklimuk/powerboard/device/fan"
	"github.com/mklimuk/powerboard/device/smartbattery"
	"github.com/mklimuk/powerboard/i2c"
)

var ErrInvalid = errors.New("invalid settings")

type Settings struct {
	Main          Main          `yaml:"main"`
	I2C           I2C           `yaml:"i2c"`
	Communication Communication `yaml:"communication"`
	Devices       Devices       `yaml:"devices"`
}

type Main struct {
	// TickUs is the control loop period; every scheduler ticks once per period.
	TickUs uint32 `yaml:"tick_us"`
	// I2CPollMs is how often a new polling cycle is triggered on each bus.
	I2CPollMs uint16 `yaml:"i2c_poll_ms"`
}

type I2C struct {
	// StepTimeoutMs is how long a bus may sit on one sub-step before it is reset.
	StepTimeoutMs uint16 `yaml:"step_timeout_ms"`
	Baud          uint16 `yaml:"baud"`
}

type Communication struct {
	FanCommandTimeoutMs uint16 `yaml:"fan_command_timeout_ms"`
}

type Devices struct {
	FanController byte `yaml:"fan_controller"`
	Battery       byte `yaml:"battery"`
	Charger       byte `yaml:"charger"`
}

func Default() *Settings {
	return &Settings{
		Main: Main{
			TickUs:    1000,
			I2CPollMs: 100,
		},
		I2C: I2C{
			StepTimeoutMs: 100,
			Baud:          i2c.DefaultBaud,
		},
		Communication: Communication{
			FanCommandTimeoutMs: 1000,
		},
		Devices: Devices{
			FanController: fan.DefaultAddress,
			Battery:       smartbattery.DefaultAddress,
			Charger:       charger.DefaultAddress,
		},
	}
}

// Load reads a YAML file on top of the defaults; keys missing from the file
// keep their default value.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteDefault stores the default settings at path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func (s *Settings) Validate() error {
	if s.Main.TickUs == 0 {
		return fmt.Errorf("%w: main.tick_us must be > 0", ErrInvalid)
	}
	if s.Main.I2CPollMs == 0 {
		return fmt.Errorf("%w: main.i2c_poll_ms must be > 0", ErrInvalid)
	}
	if s.I2C.StepTimeoutMs == 0 {
		return fmt.Errorf("%w: i2c.step_timeout_ms must be > 0", ErrInvalid)
	}
	if time.Duration(s.I2C.StepTimeoutMs)*time.Millisecond < s.Tick() {
		return fmt.Errorf("%w: i2c.step_timeout_ms is shorter than one tick", ErrInvalid)
	}
	for name, addr := range map[string]byte{
		"fan_controller": s.Devices.FanController,
		"battery":        s.Devices.Battery,
		"charger":        s.Devices.Charger,
	} {
		if addr < 0x08 || addr > 0x77 {
			return fmt.Errorf("%w: devices.%s address %#02x is reserved", ErrInvalid, name, addr)
		}
	}
	return nil
}

func (s *Settings) Tick() time.Duration {
	return time.Duration(s.Main.TickUs) * time.Microsecond
}

func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.Main.I2CPollMs) * time.Millisecond
}

func (s *Settings) FanCommandTimeout() time.Duration {
	return time.Duration(s.Communication.FanCommandTimeoutMs) * time.Millisecond
}

// StallTicks converts the step timeout into control loop ticks, at least one.
func (s *Settings) StallTicks() int {
	n := int(time.Duration(s.I2C.StepTimeoutMs) * time.Millisecond / s.Tick())
	return max(n, 1)
}

// PollTicks converts the poll interval into control loop ticks, at least one.
func (s *Settings) PollTicks() int {
	n := int(s.PollInterval() / s.Tick())
	return max(n, 1)
}
