package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/powerboard/i2c"
)

type fakeBus struct {
	present map[byte][]byte
	writes  [][]byte
}

var errNoDevice = errors.New("no device")

func (f *fakeBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if _, ok := f.present[address]; !ok {
		return errNoDevice
	}
	f.writes = append(f.writes, append([]byte(nil), buffer...))
	return nil
}

func (f *fakeBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	data, ok := f.present[address]
	if !ok {
		return errNoDevice
	}
	copy(buffer, data)
	return nil
}

func (f *fakeBus) Release(ctx context.Context) error {
	return nil
}

func TestExecute(t *testing.T) {
	bus := &fakeBus{present: map[byte][]byte{0x0b: {0x40, 0x1f}}}
	ctx := context.Background()

	var w [2]byte
	res, err := execute(ctx, bus, i2c.ReadWord(0x0b, 0x09, &w), 2)
	require.NoError(t, err)
	assert.Equal(t, i2c.Okay, res)
	assert.Equal(t, uint16(8000), i2c.Word(w))
	assert.Equal(t, [][]byte{{0x09}}, bus.writes)

	v := [1]byte{0x80}
	res, err = execute(ctx, bus, i2c.WriteByte(0x0b, 0x03, &v), 1)
	require.NoError(t, err)
	assert.Equal(t, i2c.Okay, res)
	assert.Equal(t, []byte{0x03, 0x80}, bus.writes[1])

	res, err = execute(ctx, bus, i2c.ReadWord(0x0c, 0x09, &w), 2)
	assert.Equal(t, i2c.Nacked, res)
	assert.ErrorIs(t, err, errNoDevice)

	writes := len(bus.writes)
	res, err = execute(ctx, bus, i2c.WriteByte(0x18, 0x0b, &v), 1)
	assert.Equal(t, i2c.Nacked, res, "a write to an absent device is not reported as done")
	assert.ErrorIs(t, err, errNoDevice)
	assert.Len(t, bus.writes, writes)
}
