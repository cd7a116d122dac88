package smartbattery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sigurn/crc8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busMock struct {
	words   map[byte]uint16
	cmd     byte
	fail    error
	corrupt bool
}

func (b *busMock) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.fail != nil {
		return b.fail
	}
	b.cmd = buffer[0]
	return nil
}

func (b *busMock) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	w := b.words[b.cmd]
	buffer[0], buffer[1] = byte(w), byte(w>>8)
	if len(buffer) == 3 {
		frame := []byte{address << 1, b.cmd, address<<1 | 1, buffer[0], buffer[1]}
		buffer[2] = crc8.Checksum(frame, crc8.MakeTable(crc8.CRC8))
		if b.corrupt {
			buffer[2] ^= 0x01
		}
	}
	return nil
}

func (b *busMock) Release(ctx context.Context) error {
	return nil
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		given    Status
		expected string
	}{
		{0, "OK"},
		{0x00c0, "INITIALIZED|DISCHARGING OK"},
		{0x4080 | 0x0004, "TERMINATE_CHARGE|INITIALIZED ACCESS_DENIED"},
		{0x0020, "FULLY_CHARGED OK"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#04x", uint16(test.given)), func(t *testing.T) {
			assert.Equal(t, test.expected, test.given.String())
		})
	}
	assert.True(t, Status(0x4080).Alarm())
	assert.False(t, Status(0x00c0).Alarm())
}

func TestMode(t *testing.T) {
	assert.True(t, Mode(0x6081).ConditionCycleRequested())
	assert.False(t, Mode(0x6001).ConditionCycleRequested())
	assert.True(t, Mode(0x8000).CapacityInPower())
}

func TestCelsius(t *testing.T) {
	tests := []struct {
		given    uint16
		expected float32
	}{
		{2731, -0.05},
		{2732, 0.05},
		{2981, 24.95},
		{2631, -10.05},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.given), func(t *testing.T) {
			assert.InDelta(t, test.expected, Celsius(test.given), 0.01)
		})
	}
}

func TestSmartBattery_Read(t *testing.T) {
	bus := &busMock{words: map[byte]uint16{
		CommandRelativeStateOfCharge: 87,
		CommandStatus:                0x00c0,
		CommandMode:                  0x0080,
		CommandTemperature:           2981,
		CommandVoltage:               16400,
		CommandCurrent:               0xfe0c,
	}}
	r, err := New(bus).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(87), r.SOC)
	assert.Equal(t, "INITIALIZED|DISCHARGING OK", r.Status)
	assert.True(t, r.Condition)
	assert.Equal(t, uint16(16400), r.Voltage)
	assert.Equal(t, int16(-500), r.Current)

	bus.fail = errors.New("nack")
	_, err = New(bus, WithAddress(0x0c)).Read(context.Background())
	assert.ErrorIs(t, err, bus.fail)
}

func TestPECTable(t *testing.T) {
	assert.Equal(t, uint8(0xf4), crc8.Checksum([]byte("123456789"), pecTable))
}

func TestSmartBattery_ReadWordPEC(t *testing.T) {
	bus := &busMock{words: map[byte]uint16{CommandVoltage: 16400}}
	b := New(bus, WithPEC())
	v, err := b.ReadWord(context.Background(), CommandVoltage)
	require.NoError(t, err)
	assert.Equal(t, uint16(16400), v)

	bus.corrupt = true
	_, err = b.ReadWord(context.Background(), CommandVoltage)
	assert.ErrorIs(t, err, ErrPEC)
}
