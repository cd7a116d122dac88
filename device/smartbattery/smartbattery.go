package smartbattery

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/sigurn/crc8"

	"github.com/mklimuk/powerboard"
)

const DefaultAddress = 0x0b

// SBS commands polled by the power board. All of them are word reads.
const (
	CommandMode                  = 0x03
	CommandTemperature           = 0x08
	CommandVoltage               = 0x09
	CommandCurrent               = 0x0a
	CommandRelativeStateOfCharge = 0x0d
	CommandStatus                = 0x16
)

// Status is the BatteryStatus word.
type Status uint16

const (
	StatusOverChargedAlarm        Status = 0x8000
	StatusTerminateChargeAlarm    Status = 0x4000
	StatusOverTemperatureAlarm    Status = 0x1000
	StatusTerminateDischargeAlarm Status = 0x0800
	StatusRemainingCapacityAlarm  Status = 0x0200
	StatusRemainingTimeAlarm      Status = 0x0100
	StatusInitialized             Status = 0x0080
	StatusDischarging             Status = 0x0040
	StatusFullyCharged            Status = 0x0020
	StatusFullyDischarged         Status = 0x0010

	statusErrorMask = 0x000f
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusOverChargedAlarm, "OVER_CHARGED"},
	{StatusTerminateChargeAlarm, "TERMINATE_CHARGE"},
	{StatusOverTemperatureAlarm, "OVER_TEMP"},
	{StatusTerminateDischargeAlarm, "TERMINATE_DISCHARGE"},
	{StatusRemainingCapacityAlarm, "REMAINING_CAPACITY"},
	{StatusRemainingTimeAlarm, "REMAINING_TIME"},
	{StatusInitialized, "INITIALIZED"},
	{StatusDischarging, "DISCHARGING"},
	{StatusFullyCharged, "FULLY_CHARGED"},
	{StatusFullyDischarged, "FULLY_DISCHARGED"},
}

var errorCodes = [...]string{
	"OK", "BUSY", "RESERVED_COMMAND", "UNSUPPORTED_COMMAND",
	"ACCESS_DENIED", "OVERFLOW_UNDERFLOW", "BAD_SIZE", "UNKNOWN_ERROR",
}

// ErrorCode is the result of the last command the battery processed.
func (s Status) ErrorCode() string {
	code := int(s & statusErrorMask)
	if code < len(errorCodes) {
		return errorCodes[code]
	}
	return fmt.Sprintf("ERROR_%d", code)
}

// Alarm is true when any alarm bit is raised.
func (s Status) Alarm() bool {
	return s&0xff00 != 0
}

func (s Status) String() string {
	var flags []string
	for _, n := range statusNames {
		if s&n.flag != 0 {
			flags = append(flags, n.name)
		}
	}
	if len(flags) == 0 {
		return s.ErrorCode()
	}
	return strings.Join(flags, "|") + " " + s.ErrorCode()
}

// Mode is the BatteryMode word.
type Mode uint16

const (
	ModeInternalChargeController Mode = 0x0001
	ModePrimaryBatterySupport    Mode = 0x0002
	ModeConditionFlag            Mode = 0x0080 // conditioning cycle requested
	ModeChargeControllerEnabled  Mode = 0x0100
	ModePrimaryBattery           Mode = 0x0200
	ModeAlarm                    Mode = 0x2000
	ModeChargerMode              Mode = 0x4000
	ModeCapacityMode             Mode = 0x8000
)

func (m Mode) ConditionCycleRequested() bool {
	return m&ModeConditionFlag != 0
}

// CapacityInPower is true when capacities are reported in 10mWh units
// instead of mAh.
func (m Mode) CapacityInPower() bool {
	return m&ModeCapacityMode != 0
}

// Celsius converts an SBS temperature in 0.1K to degrees Celsius.
func Celsius(deciKelvin uint16) float32 {
	return float32(deciKelvin)/10 - 273.15
}

// Milliamps interprets an SBS current word; negative values mean discharge.
func Milliamps(raw uint16) int16 {
	return int16(raw)
}

// Reading is a decoded set of battery words.
type Reading struct {
	SOC         uint16  `yaml:"soc_percent"`
	Status      string  `yaml:"status"`
	Condition   bool    `yaml:"condition_cycle_requested"`
	Temperature float32 `yaml:"temperature_c"`
	Voltage     uint16  `yaml:"voltage_mv"`
	Current     int16   `yaml:"current_ma"`
}

// Decode turns raw words as stored by the bus schedulers into a Reading.
func Decode(soc, status, mode, temperature, voltage, current uint16) Reading {
	return Reading{
		SOC:         soc,
		Status:      Status(status).String(),
		Condition:   Mode(mode).ConditionCycleRequested(),
		Temperature: Celsius(temperature),
		Voltage:     voltage,
		Current:     Milliamps(current),
	}
}

// SmartBattery reads SBS words over a transaction level bus. The bus
// schedulers poll the same commands through the register level engine.
type SmartBattery struct {
	transport powerboard.I2CBus
	address   byte
	pec       bool
}

var ErrPEC = errors.New("smartbattery: packet error code mismatch")

// SMBus PEC is CRC-8 with polynomial 0x07 and zero init.
var pecTable = crc8.MakeTable(crc8.CRC8)

type Config struct {
	Address byte
	PEC     bool
}

type ConfigOption func(*Config)

func WithAddress(address byte) ConfigOption {
	return func(c *Config) {
		c.Address = address
	}
}

// WithPEC reads the packet error code byte after every word and checks it.
func WithPEC() ConfigOption {
	return func(c *Config) {
		c.PEC = true
	}
}

func New(trans powerboard.I2CBus, opts ...ConfigOption) *SmartBattery {
	config := &Config{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &SmartBattery{transport: trans, address: config.Address, pec: config.PEC}
}

// ReadWord issues an SBS read word command.
func (b *SmartBattery) ReadWord(ctx context.Context, cmd byte) (uint16, error) {
	err := b.transport.WriteToAddr(ctx, b.address, []byte{cmd})
	if err != nil {
		return 0, fmt.Errorf("smartbattery: could not select command %#02x: %w", cmd, err)
	}
	resp := make([]byte, 2, 3)
	if b.pec {
		resp = resp[:3]
	}
	err = b.transport.ReadFromAddr(ctx, b.address, resp)
	if err != nil {
		return 0, fmt.Errorf("smartbattery: could not read command %#02x: %w", cmd, err)
	}
	if b.pec {
		frame := []byte{b.address << 1, cmd, b.address<<1 | 1, resp[0], resp[1]}
		if crc8.Checksum(frame, pecTable) != resp[2] {
			return 0, fmt.Errorf("%w on command %#02x", ErrPEC, cmd)
		}
	}
	return binary.LittleEndian.Uint16(resp), nil
}

// Read polls every word the power board tracks and decodes them.
func (b *SmartBattery) Read(ctx context.Context) (Reading, error) {
	cmds := []byte{CommandRelativeStateOfCharge, CommandStatus, CommandMode, CommandTemperature, CommandVoltage, CommandCurrent}
	words := make([]uint16, len(cmds))
	for i, cmd := range cmds {
		w, err := b.ReadWord(ctx, cmd)
		if err != nil {
			return Reading{}, err
		}
		words[i] = w
	}
	return Decode(words[0], words[1], words[2], words[3], words[4], words[5]), nil
}
