package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/sim"
)

func TestExec(t *testing.T) {
	ctrl := sim.NewController(sim.WithLatency(1))
	m := sim.NewRegisterMap()
	m.SetWord(0x0d, 87)
	ctrl.Attach(0x0b, m)
	bus := i2c.NewBus(ctrl)

	var w [2]byte
	op := i2c.ReadWord(0x0b, 0x0d, &w)
	res, err := sim.Exec(ctrl, bus, &op, 100)
	require.NoError(t, err)
	assert.Equal(t, i2c.Okay, res)
	assert.Equal(t, uint16(87), i2c.Word(w))

	op = i2c.ReadWord(0x0c, 0x0d, &w)
	res, err = sim.Exec(ctrl, bus, &op, 100)
	require.NoError(t, err)
	assert.Equal(t, i2c.Nacked, res)

	ctrl.Freeze(true)
	_, err = sim.Exec(ctrl, bus, &op, 5)
	assert.ErrorIs(t, err, sim.ErrStalled)
}
